// Package swap repoints a directory entry at a new symlink target without
// a window in which the entry is missing.
package swap

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/logging"
	"github.com/arthur-debert/libmerge/pkg/paths"
	"github.com/arthur-debert/libmerge/pkg/types"
)

// Symlink makes <dir>/<name> a symlink to target. The link is first
// created as <dir>/lib.tmp and then renamed over name, which replaces an
// existing symlink (or file) atomically. A lib.tmp left behind by an
// interrupted run is removed first.
func Symlink(fs types.FS, dir, name, target string) error {
	logger := logging.GetLogger("swap")

	tmp := filepath.Join(dir, paths.LibTmpDir)
	dest := filepath.Join(dir, name)

	if info, err := fs.Lstat(tmp); err == nil {
		if info.IsDir() {
			return errors.Newf(errors.ErrSymlinkSwap, "%s is a directory, refusing to remove it", tmp).
				WithDetail("path", tmp).
				WithHint("inspect and remove " + tmp + " manually")
		}
		logger.Warn().Str("path", tmp).Msg("Removing stale temporary symlink")
		if err := fs.Remove(tmp); err != nil {
			return errors.Wrapf(err, errors.ErrSymlinkSwap, "failed to remove stale %s", tmp).
				WithDetail("path", tmp)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrSymlinkSwap, "failed to inspect %s", tmp).
			WithDetail("path", tmp)
	}

	if err := fs.Symlink(target, tmp); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkSwap, "failed to create %s -> %s", tmp, target).
			WithDetail("path", tmp)
	}
	if err := fs.Rename(tmp, dest); err != nil {
		_ = fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrSymlinkSwap, "failed to replace %s", dest).
			WithDetail("path", dest)
	}

	logger.Debug().
		Str("path", dest).
		Str("target", target).
		Msg("Symlink swapped")
	return nil
}
