package ephemeral

import (
	"context"
	"fmt"
	"sync"

	"github.com/sussybocca/Server.x-2/data"
	"github.com/tidwall/btree"
)

// EphemeralGateway keeps every server in memory. Nothing survives Close.
type EphemeralGateway struct {
	mu sync.RWMutex

	servers *btree.Map[data.VirtualLocation, *data.Server]
	order   []data.VirtualLocation
	closed  bool
}

func NewEphemeralGateway() *EphemeralGateway {
	return &EphemeralGateway{
		servers: btree.NewMap[data.VirtualLocation, *data.Server](0),
	}
}

// Returns the identifier name defined for this gateway
func (*EphemeralGateway) Name() string {
	return "ephemeral"
}

func (eg *EphemeralGateway) Open(ctx context.Context) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()

	eg.closed = false
	return nil
}

func (eg *EphemeralGateway) Close(ctx context.Context) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()

	eg.servers.Clear()
	eg.order = nil
	eg.closed = true

	return nil
}

func (eg *EphemeralGateway) ListPublicLocations(ctx context.Context) ([]data.VirtualLocation, error) {
	eg.mu.RLock()
	defer eg.mu.RUnlock()

	if eg.closed {
		return nil, data.ErrGatewayClosed
	}

	locations := make([]data.VirtualLocation, 0, len(eg.order))
	for _, location := range eg.order {
		if server, ok := eg.servers.Get(location); ok && server.Public {
			locations = append(locations, location)
		}
	}

	return locations, nil
}

func (eg *EphemeralGateway) LoadTree(ctx context.Context, location data.VirtualLocation) (*data.Server, error) {
	eg.mu.RLock()
	defer eg.mu.RUnlock()

	if eg.closed {
		return nil, data.ErrGatewayClosed
	}

	server, ok := eg.servers.Get(location)
	if !ok {
		return nil, fmt.Errorf("failed to load '%s': %w", location, data.ErrNotExist)
	}

	return server.Clone(), nil
}

func (eg *EphemeralGateway) SaveTree(ctx context.Context, location data.VirtualLocation, files *data.FileNode) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()

	if eg.closed {
		return data.ErrGatewayClosed
	}

	server, ok := eg.servers.Get(location)
	if !ok {
		return fmt.Errorf("failed to save '%s': %w", location, data.ErrNotExist)
	}

	server.Files = files.Clone()
	return nil
}

func (eg *EphemeralGateway) CreateServer(ctx context.Context, server *data.Server) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()

	if eg.closed {
		return data.ErrGatewayClosed
	}

	if _, ok := eg.servers.Get(server.Location); ok {
		return fmt.Errorf("failed to create '%s': %w", server.Location, data.ErrExist)
	}

	eg.servers.Set(server.Location, server.Clone())
	eg.order = append(eg.order, server.Location)

	return nil
}
