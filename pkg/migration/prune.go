package migration

import (
	stderrors "errors"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/libmerge/pkg/types"
	"golang.org/x/sys/unix"
)

// isBenign reports the removal outcomes that mean someone got there first
// or the directory still holds something we keep.
func isBenign(err error) bool {
	return stderrors.Is(err, unix.ENOENT) ||
		stderrors.Is(err, unix.ENOTEMPTY) ||
		stderrors.Is(err, unix.EEXIST)
}

// pruneParents removes now-empty directories from dir upwards, stopping
// below stop or at the first directory that is not empty.
func pruneParents(fs types.FS, dir, stop string) error {
	for dir != stop && types.IsUnder(dir, stop) {
		if err := fs.Remove(dir); err != nil {
			if isBenign(err) {
				return nil
			}
			return err
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// postOrder lists everything below root, children before their parent,
// without following symlinks. root itself is not listed.
func postOrder(fs types.FS, root string) ([]string, error) {
	info, err := fs.Lstat(root)
	if err != nil || !info.IsDir() {
		return nil, err
	}

	entries, err := fs.ReadDir(root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		p := filepath.Join(root, name)
		below, err := postOrder(fs, p)
		if err != nil {
			return out, err
		}
		out = append(out, below...)
		out = append(out, p)
	}
	return out, nil
}
