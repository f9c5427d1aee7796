// Package gateway defines how virtual servers are persisted and resolves
// gateway addresses to one of the available backends.
package gateway

import (
	"context"

	"github.com/sussybocca/Server.x-2/data"
)

// Gateway stores server records. Implementations must be safe for
// concurrent use, since loads and saves are issued from background commands.
type Gateway interface {
	// Name returns the identifier name of this gateway.
	Name() string

	// Open is part of the lifecycle behaviour and gets called before first use.
	Open(ctx context.Context) error

	// Close is part of the lifecycle behaviour and releases every held resource.
	Close(ctx context.Context) error

	// ListPublicLocations returns the locations of all public servers in
	// the order they were created.
	ListPublicLocations(ctx context.Context) ([]data.VirtualLocation, error)

	// LoadTree returns the server stored at location, or data.ErrNotExist.
	LoadTree(ctx context.Context, location data.VirtualLocation) (*data.Server, error)

	// SaveTree overwrites the whole tree of an existing server.
	SaveTree(ctx context.Context, location data.VirtualLocation, files *data.FileNode) error

	// CreateServer stores a new server record, or fails with data.ErrExist.
	CreateServer(ctx context.Context, server *data.Server) error
}
