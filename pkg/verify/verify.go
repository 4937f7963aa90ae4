// Package verify checks the lib/lib32/lib64 topology of a prefix before a
// migration phase is allowed to run. Checks only inspect the filesystem;
// running them any number of times gives the same answer.
package verify

import (
	"io/fs"
	"os"

	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/paths"
	"github.com/arthur-debert/libmerge/pkg/types"
)

// Check verifies one prefix.
type Check func(fsys types.FS, prefix string) error

// All runs check over every prefix, stopping at the first failure.
func All(fsys types.FS, prefixes []string, check Check) error {
	for _, prefix := range prefixes {
		if err := check(fsys, prefix); err != nil {
			return err
		}
	}
	return nil
}

// Initial asserts the pre-migration layout: lib -> lib64, real lib64 and
// lib32 directories, no lib.new. Required before analyze and migrate.
func Initial(fsys types.FS, prefix string) error {
	l := paths.NewLayout(prefix)

	if err := checkPrefix(fsys, l); err != nil {
		return err
	}
	if !isDir(fsys, l.Lib64) {
		return violation(errors.ErrLib64NotDir, l.Lib64, "%s needs to exist as a real directory!")
	}
	if isSymlink(fsys, l.Lib32) {
		return violation(errors.ErrLib32IsSymlink, l.Lib32, "%s is a symlink! was the migration done already?")
	}
	if isRealDir(fsys, l.Lib) {
		return violation(errors.ErrLibIsDir, l.Lib, "%s is a real directory! was the migration done already?")
	}
	if linkTarget(fsys, l.Lib) == paths.LibNewDir {
		return violation(errors.ErrLibPointsToNew, l.Lib, "%s is a symlink to lib.new! did you want to finish?").
			WithHint("run `libmerge finish` or `libmerge rollback`")
	}
	if !isSymlink(fsys, l.Lib) || linkTarget(fsys, l.Lib) != paths.Lib64Dir {
		return violation(errors.ErrLibNotLinkToLib64, l.Lib, "%s needs to be a symlink to lib64!")
	}
	if exists(fsys, l.LibNew) {
		return violation(errors.ErrLibNewExists, l.LibNew, "%s exists! do you need to remove failed migration?").
			WithHint("inspect and remove " + l.LibNew + " before migrating again")
	}
	return nil
}

// Migrated asserts the mid-migration layout: lib -> lib.new, lib.new a real
// directory, lib32 and lib64 untouched. Required before rollback and finish.
func Migrated(fsys types.FS, prefix string) error {
	l := paths.NewLayout(prefix)

	if err := checkPrefix(fsys, l); err != nil {
		return err
	}
	if !isDir(fsys, l.Lib64) {
		return violation(errors.ErrLib64NotDir, l.Lib64, "%s needs to exist as a real directory!")
	}
	if isSymlink(fsys, l.Lib32) {
		return violation(errors.ErrLib32IsSymlink, l.Lib32, "%s is a symlink! was the migration finished already?")
	}
	if isRealDir(fsys, l.Lib) {
		return violation(errors.ErrLibIsDir, l.Lib, "%s is a real directory! was the migration finished already?")
	}
	if linkTarget(fsys, l.Lib) == paths.Lib64Dir {
		return violation(errors.ErrLibPointsToLib64, l.Lib, "%s is a symlink to lib64! did the migration succeed?")
	}
	if !isRealDir(fsys, l.LibNew) {
		return violation(errors.ErrLibNewMissing, l.LibNew, "%s does not exist! did you migrate?").
			WithHint("run `libmerge migrate` first")
	}
	if !isSymlink(fsys, l.Lib) || linkTarget(fsys, l.Lib) != paths.LibNewDir {
		return violation(errors.ErrLibNotLinkToNew, l.Lib, "%s needs to be a symlink to lib.new!")
	}
	return nil
}

// DetectPhase classifies the current topology of a prefix. It cannot tell
// initial from analyzed; that depends on the saved state.
func DetectPhase(fsys types.FS, prefix string) types.Phase {
	if Initial(fsys, prefix) == nil {
		return types.PhaseInitial
	}
	if Migrated(fsys, prefix) == nil {
		return types.PhaseMigrated
	}
	l := paths.NewLayout(prefix)
	if isRealDir(fsys, l.Lib) && isSymlink(fsys, l.Lib32) && linkTarget(fsys, l.Lib32) == paths.LibDir {
		return types.PhaseFinished
	}
	return types.PhaseUnknown
}

func checkPrefix(fsys types.FS, l paths.Layout) error {
	if !isDir(fsys, l.Root) {
		return violation(errors.ErrPrefixMissing, l.Root, "%s does not exist!")
	}
	return nil
}

func violation(code errors.ErrorCode, path, format string) *errors.Error {
	return errors.Newf(code, format, path).WithDetail("path", path)
}

// isDir follows symlinks, matching a plain directory test.
func isDir(fsys types.FS, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.IsDir()
}

func exists(fsys types.FS, path string) bool {
	_, err := fsys.Lstat(path)
	return err == nil
}

func isSymlink(fsys types.FS, path string) bool {
	info, err := fsys.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func isRealDir(fsys types.FS, path string) bool {
	info, err := fsys.Lstat(path)
	return err == nil && info.Mode().Type() == fs.ModeDir
}

// linkTarget returns the literal symlink target, or "" for anything else.
func linkTarget(fsys types.FS, path string) string {
	if !isSymlink(fsys, path) {
		return ""
	}
	target, err := fsys.Readlink(path)
	if err != nil {
		return ""
	}
	return target
}
