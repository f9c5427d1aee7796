package gateway

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sussybocca/Server.x-2/data"
	"github.com/sussybocca/Server.x-2/gateway/consul"
	"github.com/sussybocca/Server.x-2/gateway/ephemeral"
	"github.com/sussybocca/Server.x-2/gateway/local"
	"github.com/sussybocca/Server.x-2/gateway/postgres"
	"github.com/sussybocca/Server.x-2/gateway/s3"
	"github.com/sussybocca/Server.x-2/gateway/sqlite"
)

var (
	_ Gateway = (*ephemeral.EphemeralGateway)(nil)
	_ Gateway = (*local.LocalGateway)(nil)
	_ Gateway = (*sqlite.SQLiteGateway)(nil)
	_ Gateway = (*postgres.PostgresGateway)(nil)
	_ Gateway = (*consul.ConsulGateway)(nil)
	_ Gateway = (*s3.S3Gateway)(nil)
)

// ParseAddress creates the gateway described by address. The returned
// gateway still has to be opened.
func ParseAddress(address string) (Gateway, error) {
	// Format address
	address = strings.TrimSpace(address)
	// Quick check to identify if we work with a possibly valid address
	if !strings.Contains(address, ":") {
		return nil, fmt.Errorf("failed to parse address '%s': %w", address, data.ErrMalformedAddress)
	}
	// Special 'direct no address declarations'
	switch address {
	case ":ephemeral:":
		return ephemeral.NewEphemeralGateway(), nil
	}
	// Protocol-based parsing
	switch {
	// file://<path>
	case strings.HasPrefix(address, "file://"):
		return parseLocalAddress(strings.TrimPrefix(address, "file://"))
	// sqlite://<path>|:memory:
	case strings.HasPrefix(address, "sqlite://"):
		return parseSqliteAddress(strings.TrimPrefix(address, "sqlite://"))
	// postgres://<user>:<pass>@<address>:<port>/<db>?<sslmode>
	case strings.HasPrefix(address, "postgres://"):
		return parsePostgresAddress(strings.TrimPrefix(address, "postgres://"))
	case strings.HasPrefix(address, "postgresql://"):
		return parsePostgresAddress(strings.TrimPrefix(address, "postgresql://"))
	case strings.HasPrefix(address, "psql://"):
		return parsePostgresAddress(strings.TrimPrefix(address, "psql://"))
	// consul://<address>:<port>?<token>&<prefix>&<datacenter>
	case strings.HasPrefix(address, "consul://"):
		return parseConsulAddress(strings.TrimPrefix(address, "consul://"))
	// s3://<address>:<port>/<bucket>?<access_key>&<secret_key>&<ssl>
	case strings.HasPrefix(address, "s3://"):
		return parseS3Address(strings.TrimPrefix(address, "s3://"))
	case strings.HasPrefix(address, "minio://"):
		return parseS3Address(strings.TrimPrefix(address, "minio://"))
	}

	return nil, fmt.Errorf("failed to parse address '%s': %w", address, data.ErrUnknownProtocol)
}

func parseLocalAddress(address string) (Gateway, error) {
	if address == "" {
		return nil, fmt.Errorf("missing file path: %w", data.ErrMalformedAddress)
	}

	return local.NewLocalGateway(address), nil
}

func parseSqliteAddress(address string) (Gateway, error) {
	if address == "" {
		return nil, fmt.Errorf("missing database path: %w", data.ErrMalformedAddress)
	}

	gw, err := sqlite.NewSQLiteGateway(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrGatewayFailed, err)
	}

	return gw, nil
}

func parsePostgresAddress(address string) (Gateway, error) {
	if address == "" {
		return nil, fmt.Errorf("missing database address: %w", data.ErrMalformedAddress)
	}

	gw, err := postgres.NewPostgresGateway("postgres://" + address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrGatewayFailed, err)
	}

	return gw, nil
}

func parseConsulAddress(address string) (Gateway, error) {
	u, err := url.Parse("consul://" + address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformedAddress, err)
	}

	query := u.Query()
	gw, err := consul.NewConsulGateway(&consul.ConsulGatewayConfig{
		Address:    u.Host,
		Token:      query.Get("token"),
		Datacenter: query.Get("datacenter"),
		Prefix:     query.Get("prefix"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrGatewayFailed, err)
	}

	return gw, nil
}

func parseS3Address(address string) (Gateway, error) {
	u, err := url.Parse("s3://" + address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformedAddress, err)
	}

	bucket := strings.Trim(u.Path, "/")
	if u.Host == "" || bucket == "" {
		return nil, fmt.Errorf("missing endpoint or bucket: %w", data.ErrMalformedAddress)
	}

	query := u.Query()
	useSsl := false
	if ssl := query.Get("ssl"); ssl != "" {
		if useSsl, err = strconv.ParseBool(ssl); err != nil {
			return nil, fmt.Errorf("invalid ssl value '%s': %w", ssl, data.ErrMalformedAddress)
		}
	}

	gw, err := s3.NewS3Gateway(u.Host, bucket, query.Get("access_key"), query.Get("secret_key"), useSsl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrGatewayFailed, err)
	}

	return gw, nil
}
