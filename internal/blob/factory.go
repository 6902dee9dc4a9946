package blob

import (
	"context"
	"fmt"
)

// Options selects and configures a backend.
type Options struct {
	Driver Driver
	Dir    string // filesystem root
	S3     S3Config
}

// Open constructs the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverFilesystem, "":
		return NewFSStore(opts.Dir)
	case DriverS3:
		return NewS3Store(ctx, opts.S3)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
