package migration

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/libmerge/pkg/classify"
	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/executor"
	"github.com/arthur-debert/libmerge/pkg/logging"
	"github.com/arthur-debert/libmerge/pkg/paths"
	"github.com/arthur-debert/libmerge/pkg/pkgdb"
	"github.com/arthur-debert/libmerge/pkg/state"
	"github.com/arthur-debert/libmerge/pkg/swap"
	"github.com/arthur-debert/libmerge/pkg/types"
	"github.com/arthur-debert/libmerge/pkg/verify"
	"github.com/rs/zerolog"
)

// Progress narrates each filesystem step to the operator.
type Progress interface {
	Stepf(format string, args ...interface{})
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(format string, args ...interface{})

// Stepf implements Progress.
func (f ProgressFunc) Stepf(format string, args ...interface{}) {
	f(format, args...)
}

type silent struct{}

func (silent) Stepf(string, ...interface{}) {}

// Migrator runs the phases against a filesystem.
type Migrator struct {
	fs       types.FS
	copier   executor.Copier
	remover  executor.Remover
	progress Progress
	logger   zerolog.Logger
}

// New creates a Migrator. A nil progress discards narration.
func New(fs types.FS, copier executor.Copier, remover executor.Remover, progress Progress) *Migrator {
	if progress == nil {
		progress = silent{}
	}
	return &Migrator{
		fs:       fs,
		copier:   copier,
		remover:  remover,
		progress: progress,
		logger:   logging.GetLogger("migration"),
	}
}

// Verify checks that every prefix is in the layout action starts from.
func (m *Migrator) Verify(action types.Action, prefixes []string) error {
	switch action {
	case types.ActionAnalyze, types.ActionMigrate:
		return verify.All(m.fs, prefixes, verify.Initial)
	case types.ActionRollback, types.ActionFinish:
		return verify.All(m.fs, prefixes, verify.Migrated)
	}
	return errors.Newf(errors.ErrInvalidInput, "unknown action %q", action)
}

// Analyze verifies every prefix is in the initial layout and classifies
// the package database against it. It changes nothing on disk.
func (m *Migrator) Analyze(prefixes []string, db pkgdb.Database, opts classify.Options) (*classify.Analysis, error) {
	done := logging.LogOperationStart(m.logger, "analyze")
	defer done()

	if err := m.Verify(types.ActionAnalyze, prefixes); err != nil {
		return nil, err
	}

	m.progress.Stepf("Analyzing files installed into lib & lib64 (%s) ...", db.Describe())
	entries, err := db.Entries()
	if err != nil {
		return nil, err
	}

	return classify.Classify(prefixes, entries, classify.FSLister{FS: m.fs}, opts)
}

// Migrate builds lib.new in every prefix from lib32 and the included lib
// entries, strips the excluded paths back out, and only then points every
// lib symlink at lib.new. A failed copy is fatal and leaves lib.new in
// place for inspection.
func (m *Migrator) Migrate(ctx context.Context, st state.State) (*Result, error) {
	done := logging.LogOperationStart(m.logger, "migrate")
	defer done()

	if err := st.Validate(); err != nil {
		return nil, err
	}
	if err := m.Verify(types.ActionMigrate, st.Prefixes); err != nil {
		return nil, err
	}

	result := newResult(types.PhaseMigrated, st.Prefixes)

	for _, prefix := range st.Prefixes {
		l := paths.NewLayout(prefix)

		if err := m.fs.Mkdir(l.LibNew, 0755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", l.LibNew).
				WithDetail("path", l.LibNew)
		}

		m.progress.Stepf("%s & %s -> %s ...", l.Lib32, l.Lib, l.LibNew)
		sources := []string{l.Lib32 + "/."}
		for _, inc := range st.Includes[prefix].Sorted() {
			sources = append(sources, filepath.Join(l.Lib, inc))
		}
		if err := m.copier.Copy(ctx, sources, l.LibNew); err != nil {
			return nil, errors.Wrapf(err, errors.ErrExecFailed, "copying into %s failed", l.LibNew).
				WithDetail("path", l.LibNew).
				WithHint("inspect " + l.LibNew + ", remove it and run `libmerge migrate` again")
		}

		excludes := st.Excludes[prefix].Sorted()
		if len(excludes) > 0 {
			m.progress.Stepf("Remove extraneous files from %s ...", l.LibNew)
		}
		for _, p := range excludes {
			fp := filepath.Join(l.LibNew, p)
			err := m.fs.Remove(fp)
			switch {
			case err == nil:
				result.Removed++
			case !isBenign(err):
				return nil, errors.Wrapf(err, errors.ErrFileRemove, "failed to remove %s", fp).
					WithDetail("path", fp)
			}
			if err := pruneParents(m.fs, filepath.Dir(fp), l.LibNew); err != nil {
				return nil, errors.Wrapf(err, errors.ErrFileRemove, "failed to prune parents of %s", fp).
					WithDetail("path", fp)
			}
		}

		prefixLogger := logging.ForPrefix(m.logger, prefix)
		prefixLogger.Info().
			Int("sources", len(sources)).
			Int("excluded", len(excludes)).
			Msg("lib.new populated")
	}

	for _, prefix := range st.Prefixes {
		l := paths.NewLayout(prefix)
		m.progress.Stepf("Updating: %s -> %s ...", l.Lib, paths.LibNewDir)
		if err := swap.Symlink(m.fs, l.Root, paths.LibDir, paths.LibNewDir); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Rollback points every lib back at lib64 and then removes lib.new. Only
// the symlink swap is fatal; a lib.new that cannot be removed is an issue.
func (m *Migrator) Rollback(ctx context.Context, st state.State) (*Result, error) {
	done := logging.LogOperationStart(m.logger, "rollback")
	defer done()

	if len(st.Prefixes) == 0 {
		return nil, errors.New(errors.ErrStateCorrupt, "state lists no prefixes")
	}
	if err := m.Verify(types.ActionRollback, st.Prefixes); err != nil {
		return nil, err
	}

	result := newResult(types.PhaseInitial, st.Prefixes)

	for _, prefix := range st.Prefixes {
		l := paths.NewLayout(prefix)
		m.progress.Stepf("Updating: %s -> %s ...", l.Lib, paths.Lib64Dir)
		if err := swap.Symlink(m.fs, l.Root, paths.LibDir, paths.Lib64Dir); err != nil {
			return nil, err
		}
	}

	for _, prefix := range st.Prefixes {
		l := paths.NewLayout(prefix)
		m.progress.Stepf("Removing: %s ...", l.LibNew)
		if err := m.remover.RemoveAll(ctx, l.LibNew); err != nil {
			m.logger.Warn().Err(err).Str("path", l.LibNew).Msg("Cleanup failed")
			result.addIssue(errors.Wrapf(err, errors.ErrFileRemove, "removal of %s failed", l.LibNew).
				WithDetail("path", l.LibNew).
				WithHint("remove " + l.LibNew + " manually"))
		}
	}

	return result, nil
}

// Finish makes lib.new the real lib, turns lib32 into a symlink to lib and
// prunes from lib64 what the merge absorbed. Only the rename of lib.new is
// fatal.
func (m *Migrator) Finish(ctx context.Context, st state.State) (*Result, error) {
	done := logging.LogOperationStart(m.logger, "finish")
	defer done()

	if err := st.Validate(); err != nil {
		return nil, err
	}
	if err := m.Verify(types.ActionFinish, st.Prefixes); err != nil {
		return nil, err
	}

	result := newResult(types.PhaseFinished, st.Prefixes)

	for _, prefix := range st.Prefixes {
		l := paths.NewLayout(prefix)
		m.progress.Stepf("Renaming %s -> %s ...", l.LibNew, l.Lib)
		if err := m.fs.Remove(l.Lib); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileRemove, "failed to unlink %s", l.Lib).
				WithDetail("path", l.Lib)
		}
		if err := m.fs.Rename(l.LibNew, l.Lib); err != nil {
			return nil, errors.Wrapf(err, errors.ErrRename, "failed to rename %s to %s", l.LibNew, l.Lib).
				WithDetail("path", l.LibNew).
				WithHint("rename " + l.LibNew + " to " + l.Lib + " manually before anything else")
		}
	}

	for _, prefix := range st.Prefixes {
		m.replaceLib32(ctx, paths.NewLayout(prefix), result)
	}

	for _, prefix := range st.Prefixes {
		l := paths.NewLayout(prefix)
		m.progress.Stepf("Removing stale files from %s ...", l.Lib64)
		excludes := st.Excludes[prefix]
		for _, inc := range st.Includes[prefix].Sorted() {
			m.pruneLib64(l.Lib64, inc, excludes, result)
		}
	}

	return result, nil
}

func (m *Migrator) replaceLib32(ctx context.Context, l paths.Layout, result *Result) {
	m.progress.Stepf("Removing: %s ...", l.Lib32)
	if err := m.remover.RemoveAll(ctx, l.Lib32); err != nil {
		result.addIssue(errors.Wrapf(err, errors.ErrFileRemove, "removal failed for %s", l.Lib32).
			WithDetail("path", l.Lib32).
			WithHint("remove " + l.Lib32 + " manually and replace it with a symlink to lib"))
		return
	}

	m.progress.Stepf("Updating: %s -> %s ...", l.Lib32, paths.LibDir)
	if err := m.fs.Symlink(paths.LibDir, l.Lib32); err != nil {
		result.addIssue(errors.Wrapf(err, errors.ErrSymlinkSwap, "symlinking failed for %s", l.Lib32).
			WithDetail("path", l.Lib32).
			WithHint("symlink " + l.Lib32 + " to lib manually"))
	}
}

// pruneLib64 removes everything below lib64/<inc> whose lib64-relative
// path is not excluded, children first, then lib64/<inc> itself. Paths
// inside pure lib directories are removed unconditionally.
func (m *Migrator) pruneLib64(lib64, inc string, excludes types.PathSet, result *Result) {
	top := filepath.Join(lib64, inc)

	below, err := postOrder(m.fs, top)
	if err != nil && !isBenign(err) {
		result.addIssue(errors.Wrapf(err, errors.ErrFileAccess, "cannot walk %s", top).
			WithDetail("path", top))
	}

	for _, fp := range below {
		rel, err := filepath.Rel(lib64, fp)
		if err != nil || excludes.Has(filepath.ToSlash(rel)) {
			continue
		}
		m.removeBestEffort(fp, result)
	}
	m.removeBestEffort(top, result)
}

func (m *Migrator) removeBestEffort(fp string, result *Result) {
	err := m.fs.Remove(fp)
	if err == nil {
		result.Removed++
		return
	}
	if isBenign(err) {
		m.logger.Debug().Str("path", fp).Err(err).Msg("Kept")
		return
	}
	m.logger.Warn().Str("path", fp).Err(err).Msg("Removing failed")
	result.addIssue(errors.Wrapf(err, errors.ErrFileRemove, "removing %s failed", fp).
		WithDetail("path", fp))
}
