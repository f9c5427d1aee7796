package consul

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/consul/api"
	"github.com/sussybocca/Server.x-2/data"
)

// ConsulGateway stores every server as one JSON document in the Consul KV
// store, keyed by its escaped location below a configurable prefix.
//
// Consul KV has a 512KB limit per value, which also bounds the size of a
// single server tree.
type ConsulGateway struct {
	mu     sync.RWMutex
	client *api.Client
	kv     *api.KV

	config *ConsulGatewayConfig
}

// ConsulGatewayConfig contains configuration options for the Consul gateway
type ConsulGatewayConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Prefix for all keys in Consul KV (default: "serverx/")
	Prefix string
}

func NewConsulGateway(config *ConsulGatewayConfig) (*ConsulGateway, error) {
	if config == nil {
		config = &ConsulGatewayConfig{}
	}

	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}

	config.Prefix = strings.Trim(config.Prefix, "/")
	if config.Prefix == "" {
		config.Prefix = "serverx"
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulGateway{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// Returns the identifier name defined for this gateway
func (*ConsulGateway) Name() string {
	return "consul"
}

// Open verifies that the agent is reachable.
func (cg *ConsulGateway) Open(ctx context.Context) error {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	if _, err := cg.client.Status().Leader(); err != nil {
		return fmt.Errorf("%w: %v", data.ErrGatewayFailed, err)
	}

	return nil
}

func (cg *ConsulGateway) Close(ctx context.Context) error {
	return nil
}

func (cg *ConsulGateway) ListPublicLocations(ctx context.Context) ([]data.VirtualLocation, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	pairs, _, err := cg.kv.List(cg.config.Prefix+"/", cg.queryOptions(ctx))
	if err != nil {
		return nil, err
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].CreateIndex < pairs[j].CreateIndex
	})

	var locations []data.VirtualLocation
	for _, pair := range pairs {
		server, err := decodeServer(pair)
		if err != nil {
			return nil, err
		}
		if server.Public {
			locations = append(locations, server.Location)
		}
	}

	return locations, nil
}

func (cg *ConsulGateway) LoadTree(ctx context.Context, location data.VirtualLocation) (*data.Server, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	pair, _, err := cg.kv.Get(cg.buildKey(location), cg.queryOptions(ctx))
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, fmt.Errorf("failed to load '%s': %w", location, data.ErrNotExist)
	}

	return decodeServer(pair)
}

func (cg *ConsulGateway) SaveTree(ctx context.Context, location data.VirtualLocation, files *data.FileNode) error {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	pair, _, err := cg.kv.Get(cg.buildKey(location), cg.queryOptions(ctx))
	if err != nil {
		return err
	}
	if pair == nil {
		return fmt.Errorf("failed to save '%s': %w", location, data.ErrNotExist)
	}

	server, err := decodeServer(pair)
	if err != nil {
		return err
	}
	server.Files = files

	value, err := json.Marshal(server)
	if err != nil {
		return err
	}

	pair.Value = value
	if _, err := cg.kv.Put(pair, cg.writeOptions(ctx)); err != nil {
		return err
	}

	return nil
}

func (cg *ConsulGateway) CreateServer(ctx context.Context, server *data.Server) error {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	value, err := json.Marshal(server)
	if err != nil {
		return err
	}

	// A ModifyIndex of 0 only succeeds if the key does not exist yet
	ok, _, err := cg.kv.CAS(&api.KVPair{
		Key:         cg.buildKey(server.Location),
		Value:       value,
		ModifyIndex: 0,
	}, cg.writeOptions(ctx))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("failed to create '%s': %w", server.Location, data.ErrExist)
	}

	return nil
}

func (cg *ConsulGateway) buildKey(location data.VirtualLocation) string {
	return cg.config.Prefix + "/" + url.PathEscape(string(location))
}

func (cg *ConsulGateway) queryOptions(ctx context.Context) *api.QueryOptions {
	return (&api.QueryOptions{}).WithContext(ctx)
}

func (cg *ConsulGateway) writeOptions(ctx context.Context) *api.WriteOptions {
	return (&api.WriteOptions{}).WithContext(ctx)
}

func decodeServer(pair *api.KVPair) (*data.Server, error) {
	var server data.Server
	if err := json.Unmarshal(pair.Value, &server); err != nil {
		return nil, fmt.Errorf("failed to decode '%s': %w", pair.Key, err)
	}

	return &server, nil
}
