package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/plantbot/internal/blob"
)

// Driver names a history backend.
type Driver string

const (
	DriverJSON     Driver = "json"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver maps a config value to a Driver; empty means json.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DriverJSON, nil
	case DriverJSON, DriverSQLite, DriverPostgres:
		return d, nil
	default:
		return "", fmt.Errorf("unknown history driver %q (want json, sqlite or postgres)", s)
	}
}

// Options select and configure a backend.
type Options struct {
	Driver      Driver
	DataDir     string     // sqlite
	PostgresDSN string     // postgres
	Blobs       blob.Store // json
}

// Open constructs the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverJSON, "":
		if opts.Blobs == nil {
			return nil, fmt.Errorf("history: json driver needs a blob store")
		}
		return NewDocStore(opts.Blobs), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, opts.DataDir)
	case DriverPostgres:
		return NewPostgresStore(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown history driver %q", opts.Driver)
	}
}
