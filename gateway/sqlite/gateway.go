package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sussybocca/Server.x-2/data"
	"github.com/tidwall/btree"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteGateway stores servers in a single SQLite table. Trees are kept as
// JSON text in the same shape they are transmitted in.
//
// An in-memory B-tree maps every known location to its row id, so lookups
// for unknown locations never reach the database.
type SQLiteGateway struct {
	mu sync.RWMutex
	db *sql.DB

	keys *btree.Map[data.VirtualLocation, int64]
}

// NewSQLiteGateway creates a new SQLite-backed gateway.
// The dbPath can be ":memory:" for an in-memory database or a file path.
func NewSQLiteGateway(dbPath string) (*SQLiteGateway, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Every connection to ":memory:" is its own database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	gateway := &SQLiteGateway{
		db:   db,
		keys: btree.NewMap[data.VirtualLocation, int64](0),
	}

	if err := gateway.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return gateway, nil
}

func (sg *SQLiteGateway) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS servers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		virtual_url TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		is_public INTEGER NOT NULL DEFAULT 1,
		files TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_servers_public ON servers(is_public);
	`

	_, err := sg.db.Exec(schema)
	return err
}

// Returns the identifier name defined for this gateway
func (*SQLiteGateway) Name() string {
	return "sqlite"
}

// Open verifies the connection and loads all locations into the key index.
func (sg *SQLiteGateway) Open(ctx context.Context) error {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	if err := sg.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", data.ErrGatewayFailed, err)
	}

	rows, err := sg.db.QueryContext(ctx, "SELECT virtual_url, id FROM servers")
	if err != nil {
		return err
	}
	defer rows.Close()

	sg.keys.Clear()
	for rows.Next() {
		var location string
		var id int64
		if err := rows.Scan(&location, &id); err != nil {
			return err
		}
		sg.keys.Set(data.VirtualLocation(location), id)
	}

	return rows.Err()
}

func (sg *SQLiteGateway) Close(ctx context.Context) error {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	sg.keys.Clear()
	return sg.db.Close()
}

func (sg *SQLiteGateway) ListPublicLocations(ctx context.Context) ([]data.VirtualLocation, error) {
	sg.mu.RLock()
	defer sg.mu.RUnlock()

	rows, err := sg.db.QueryContext(ctx, "SELECT virtual_url FROM servers WHERE is_public = 1 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []data.VirtualLocation
	for rows.Next() {
		var location string
		if err := rows.Scan(&location); err != nil {
			return nil, err
		}
		locations = append(locations, data.VirtualLocation(location))
	}

	return locations, rows.Err()
}

func (sg *SQLiteGateway) LoadTree(ctx context.Context, location data.VirtualLocation) (*data.Server, error) {
	sg.mu.RLock()
	defer sg.mu.RUnlock()

	id, ok := sg.keys.Get(location)
	if !ok {
		return nil, fmt.Errorf("failed to load '%s': %w", location, data.ErrNotExist)
	}

	var (
		name      string
		public    bool
		files     sql.NullString
		createdAt int64
	)

	err := sg.db.QueryRowContext(ctx,
		"SELECT name, is_public, files, created_at FROM servers WHERE id = ?", id).
		Scan(&name, &public, &files, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to load '%s': %w", location, data.ErrNotExist)
		}
		return nil, err
	}

	server := &data.Server{
		Location:    location,
		DisplayName: name,
		Public:      public,
		CreatedAt:   time.Unix(0, createdAt).UTC(),
	}

	if files.Valid && files.String != "" {
		var root data.FileNode
		if err := json.Unmarshal([]byte(files.String), &root); err != nil {
			return nil, fmt.Errorf("failed to decode tree of '%s': %w", location, err)
		}
		server.Files = &root
	}

	return server, nil
}

func (sg *SQLiteGateway) SaveTree(ctx context.Context, location data.VirtualLocation, files *data.FileNode) error {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	id, ok := sg.keys.Get(location)
	if !ok {
		return fmt.Errorf("failed to save '%s': %w", location, data.ErrNotExist)
	}

	b, err := json.Marshal(files)
	if err != nil {
		return err
	}

	result, err := sg.db.ExecContext(ctx, "UPDATE servers SET files = ? WHERE id = ?", string(b), id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		sg.keys.Delete(location)
		return fmt.Errorf("failed to save '%s': %w", location, data.ErrNotExist)
	}

	return nil
}

func (sg *SQLiteGateway) CreateServer(ctx context.Context, server *data.Server) error {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	if _, ok := sg.keys.Get(server.Location); ok {
		return fmt.Errorf("failed to create '%s': %w", server.Location, data.ErrExist)
	}

	b, err := json.Marshal(server.Tree())
	if err != nil {
		return err
	}

	result, err := sg.db.ExecContext(ctx,
		"INSERT INTO servers (virtual_url, name, is_public, files, created_at) VALUES (?, ?, ?, ?, ?)",
		string(server.Location), server.DisplayName, server.Public, string(b), server.CreatedAt.UnixNano())
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	sg.keys.Set(server.Location, id)
	return nil
}
