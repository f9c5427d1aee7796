package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sussybocca/Server.x-2/data"
	"github.com/vmihailenco/msgpack/v5"
)

// snapshot is the on-disk layout of the gateway file.
type snapshot struct {
	Version int            `msgpack:"version"`
	Servers []*data.Server `msgpack:"servers"`
}

const snapshotVersion = 1

// LocalGateway keeps all servers in a single msgpack encoded file. The file
// is read on Open and rewritten atomically after every change.
type LocalGateway struct {
	mu sync.RWMutex

	path    string
	servers []*data.Server
	opened  bool
}

func NewLocalGateway(path string) *LocalGateway {
	return &LocalGateway{
		path: filepath.Clean(path),
	}
}

// Returns the identifier name defined for this gateway
func (*LocalGateway) Name() string {
	return "local"
}

func (lg *LocalGateway) Open(ctx context.Context) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	b, err := os.ReadFile(lg.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			lg.servers = nil
			lg.opened = true
			return nil
		}
		return fmt.Errorf("%w: %v", data.ErrGatewayFailed, err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(b, &snap); err != nil {
		return fmt.Errorf("%w: failed to decode '%s': %v", data.ErrGatewayFailed, lg.path, err)
	}

	lg.servers = snap.Servers
	lg.opened = true

	return nil
}

func (lg *LocalGateway) Close(ctx context.Context) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	lg.servers = nil
	lg.opened = false

	return nil
}

func (lg *LocalGateway) ListPublicLocations(ctx context.Context) ([]data.VirtualLocation, error) {
	lg.mu.RLock()
	defer lg.mu.RUnlock()

	if !lg.opened {
		return nil, data.ErrGatewayClosed
	}

	locations := make([]data.VirtualLocation, 0, len(lg.servers))
	for _, server := range lg.servers {
		if server.Public {
			locations = append(locations, server.Location)
		}
	}

	return locations, nil
}

func (lg *LocalGateway) LoadTree(ctx context.Context, location data.VirtualLocation) (*data.Server, error) {
	lg.mu.RLock()
	defer lg.mu.RUnlock()

	if !lg.opened {
		return nil, data.ErrGatewayClosed
	}

	index := lg.indexOf(location)
	if index < 0 {
		return nil, fmt.Errorf("failed to load '%s': %w", location, data.ErrNotExist)
	}

	return lg.servers[index].Clone(), nil
}

func (lg *LocalGateway) SaveTree(ctx context.Context, location data.VirtualLocation, files *data.FileNode) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if !lg.opened {
		return data.ErrGatewayClosed
	}

	index := lg.indexOf(location)
	if index < 0 {
		return fmt.Errorf("failed to save '%s': %w", location, data.ErrNotExist)
	}

	previous := lg.servers[index].Files
	lg.servers[index].Files = files.Clone()

	if err := lg.flush(); err != nil {
		lg.servers[index].Files = previous
		return err
	}

	return nil
}

func (lg *LocalGateway) CreateServer(ctx context.Context, server *data.Server) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if !lg.opened {
		return data.ErrGatewayClosed
	}

	if lg.indexOf(server.Location) >= 0 {
		return fmt.Errorf("failed to create '%s': %w", server.Location, data.ErrExist)
	}

	lg.servers = append(lg.servers, server.Clone())
	if err := lg.flush(); err != nil {
		lg.servers = lg.servers[:len(lg.servers)-1]
		return err
	}

	return nil
}

func (lg *LocalGateway) indexOf(location data.VirtualLocation) int {
	for i, server := range lg.servers {
		if server.Location == location {
			return i
		}
	}

	return -1
}

// flush writes the snapshot to a temporary file next to the target and
// renames it into place.
func (lg *LocalGateway) flush() error {
	b, err := msgpack.Marshal(&snapshot{
		Version: snapshotVersion,
		Servers: lg.servers,
	})
	if err != nil {
		return err
	}

	dir := filepath.Dir(lg.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(lg.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), lg.path)
}
