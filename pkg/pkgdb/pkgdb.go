package pkgdb

import (
	"path/filepath"

	"github.com/arthur-debert/libmerge/pkg/config"
	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/types"
)

// Database is a read-only snapshot of owned paths.
type Database interface {
	Entries() ([]types.OwnedEntry, error)
	// Describe names the source for diagnostics.
	Describe() string
}

// Open selects the database configured in cfg.
func Open(fs types.FS, cfg *config.Config) (Database, error) {
	switch cfg.PkgDB.Source {
	case config.SourceVarDB:
		return NewVarDB(fs, cfg.VarDBPath(), cfg.Root), nil
	case config.SourceManifest:
		return NewManifest(fs, cfg.PkgDB.Manifest, cfg.Root), nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown package database source %q", cfg.PkgDB.Source)
	}
}

// rooted maps a host path onto the configured root.
func rooted(root, p string) string {
	if root == "" || root == "/" {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
