package migration_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/libmerge/pkg/classify"
	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/executor"
	"github.com/arthur-debert/libmerge/pkg/filesystem"
	"github.com/arthur-debert/libmerge/pkg/migration"
	"github.com/arthur-debert/libmerge/pkg/paths"
	"github.com/arthur-debert/libmerge/pkg/pkgdb"
	"github.com/arthur-debert/libmerge/pkg/state"
	"github.com/arthur-debert/libmerge/pkg/testutil"
	"github.com/arthur-debert/libmerge/pkg/types"
	"github.com/arthur-debert/libmerge/pkg/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// packages owned on the sample host. Files under lib physically live in
// lib64 while lib -> lib64.
var samplePackages = []testutil.Package{
	{Name: "dev-util/pkgconf", Files: []string{"/lib/pkgconfig/bar.pc"}},
	{Name: "dev-lang/python", Dirs: []string{"/lib/python3.11"}, Files: []string{"/lib/python3.11/os.py"}},
	{Name: "sys-libs/zlib", Files: []string{"/lib64/pkgconfig/foo.pc", "/lib64/libc.so.6"}},
	{Name: "sys-libs/glibc32", Files: []string{"/lib32/libc.so.6"}},
	{Name: "sys-devel/gcc", Files: []string{
		"/usr/lib/gcc/x/crt1.o",
		"/usr/lib64/gcc/x/libgcc_s.so",
		"/usr/lib64/gcc/y/only64.so",
	}},
}

func sampleHost(t *testing.T) *testutil.Host {
	t.Helper()
	h := testutil.NewHost(t)
	h.WriteFiles(
		"/lib64/pkgconfig/bar.pc",
		"/lib64/pkgconfig/foo.pc",
		"/lib64/python3.11/os.py",
		"/lib64/libc.so.6",
		"/lib64/firmware/blob",
		"/lib64/libstray.so",
		"/lib32/libc.so.6",
		"/usr/lib64/gcc/x/crt1.o",
		"/usr/lib64/gcc/x/libgcc_s.so",
		"/usr/lib64/gcc/y/only64.so",
		"/usr/lib64/locale/x",
		"/usr/lib32/libz.so",
	)
	return h
}

type recorder struct {
	steps []string
}

func (r *recorder) Stepf(format string, args ...interface{}) {
	r.steps = append(r.steps, fmt.Sprintf(format, args...))
}

func realMigrator() (*migration.Migrator, *recorder) {
	rec := &recorder{}
	m := migration.New(filesystem.NewOS(),
		executor.NewCommandCopier("cp", "auto"),
		executor.NewCommandRemover("rm"),
		rec)
	return m, rec
}

func analyze(t *testing.T, h *testutil.Host, m *migration.Migrator) state.State {
	t.Helper()
	db := pkgdb.NewManifest(filesystem.NewOS(), h.Manifest(samplePackages...), h.Root)
	analysis, err := m.Analyze(h.Prefixes(), db, classify.DefaultOptions())
	require.NoError(t, err)
	return analysis.State()
}

func TestAnalyze(t *testing.T) {
	h := sampleHost(t)
	m, rec := realMigrator()

	st := analyze(t, h, m)

	root, usr := h.Path("/"), h.Path("/usr")
	assert.Equal(t, []string{"firmware", "pkgconfig", "python3.11"}, st.Includes[root].Sorted())
	assert.Equal(t, []string{"pkgconfig/foo.pc"}, st.Excludes[root].Sorted())
	assert.Equal(t, []string{"gcc", "locale"}, st.Includes[usr].Sorted())
	assert.Equal(t, []string{"gcc/x/libgcc_s.so", "gcc/y/only64.so"}, st.Excludes[usr].Sorted())
	assert.NotEmpty(t, rec.steps)

	// nothing on disk changed
	assert.Equal(t, types.PhaseInitial, verify.DetectPhase(filesystem.NewOS(), root))
}

func TestAnalyzeRejectsConflicts(t *testing.T) {
	h := sampleHost(t)
	m, _ := realMigrator()

	pkgs := append([]testutil.Package{
		{Name: "a", Files: []string{"/lib/foo.so"}},
		{Name: "b", Files: []string{"/lib64/foo.so"}},
	}, samplePackages...)
	db := pkgdb.NewManifest(filesystem.NewOS(), h.Manifest(pkgs...), h.Root)

	analysis, err := m.Analyze(h.Prefixes(), db, classify.DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, analysis)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConflict))
}

func TestAnalyzeRequiresInitialLayout(t *testing.T) {
	h := sampleHost(t)
	testutil.CreateDir(t, h.Path("/usr"), paths.LibNewDir)
	m, _ := realMigrator()

	db := pkgdb.NewManifest(filesystem.NewOS(), h.Manifest(samplePackages...), h.Root)
	_, err := m.Analyze(h.Prefixes(), db, classify.DefaultOptions())
	assert.True(t, errors.IsErrorCode(err, errors.ErrLibNewExists))
}

func TestMigrate(t *testing.T) {
	h := sampleHost(t)
	m, rec := realMigrator()
	st := analyze(t, h, m)

	result, err := m.Migrate(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseMigrated, result.Phase)
	assert.False(t, result.HasIssues())

	fs := filesystem.NewOS()
	require.NoError(t, verify.All(fs, h.Prefixes(), verify.Migrated))

	root := h.Layout("/")
	assert.Equal(t, paths.LibNewDir, testutil.ReadSymlink(t, root.Lib))
	assert.Equal(t, "/lib32/libc.so.6", testutil.ReadFile(t, filepath.Join(root.LibNew, "libc.so.6")))
	assert.True(t, testutil.FileExists(t, filepath.Join(root.LibNew, "pkgconfig", "bar.pc")))
	assert.True(t, testutil.FileExists(t, filepath.Join(root.LibNew, "python3.11", "os.py")))
	assert.True(t, testutil.FileExists(t, filepath.Join(root.LibNew, "firmware", "blob")))
	assert.False(t, testutil.Exists(t, filepath.Join(root.LibNew, "pkgconfig", "foo.pc")))
	assert.False(t, testutil.Exists(t, filepath.Join(root.LibNew, "libstray.so")))
	assert.False(t, testutil.Exists(t, root.LibTmp))

	usr := h.Layout("/usr")
	assert.True(t, testutil.FileExists(t, filepath.Join(usr.LibNew, "gcc", "x", "crt1.o")))
	assert.False(t, testutil.Exists(t, filepath.Join(usr.LibNew, "gcc", "x", "libgcc_s.so")))
	// gcc/y only held an excluded file, so it is pruned
	assert.False(t, testutil.Exists(t, filepath.Join(usr.LibNew, "gcc", "y")))
	assert.True(t, testutil.FileExists(t, filepath.Join(usr.LibNew, "libz.so")))

	// lib64 itself is untouched
	assert.True(t, testutil.FileExists(t, h.Path("/lib64/pkgconfig/foo.pc")))
	assert.Contains(t, rec.steps, fmt.Sprintf("Updating: %s -> lib.new ...", root.Lib))
}

func TestMigrateSwapsOnlyAfterEveryPrefixIsPopulated(t *testing.T) {
	h := sampleHost(t)
	copier := &testutil.MockCopier{}
	remover := &testutil.MockRemover{}
	m := migration.New(filesystem.NewOS(), copier, remover, nil)

	st := analyze(t, h, m)
	root, usr := h.Layout("/"), h.Layout("/usr")

	copier.On("Copy", mock.Anything, mock.Anything, root.LibNew).Return(nil)
	copier.On("Copy", mock.Anything, mock.Anything, usr.LibNew).Return(fmt.Errorf("cp: No space left on device"))

	_, err := m.Migrate(context.Background(), st)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrExecFailed))
	assert.Contains(t, errors.GetHint(err), usr.LibNew)

	// neither lib moved, and the failed lib.new is left for inspection
	assert.Equal(t, paths.Lib64Dir, testutil.ReadSymlink(t, root.Lib))
	assert.Equal(t, paths.Lib64Dir, testutil.ReadSymlink(t, usr.Lib))
	assert.True(t, testutil.RealDirExists(t, usr.LibNew))
	copier.AssertExpectations(t)
	remover.AssertNotCalled(t, "RemoveAll", mock.Anything, mock.Anything)
}

func TestMigrateCopySources(t *testing.T) {
	h := sampleHost(t)
	copier := &testutil.MockCopier{}
	m := migration.New(filesystem.NewOS(), copier, &testutil.MockRemover{}, nil)

	st := state.New([]string{h.Path("/")})
	st.Includes[h.Path("/")] = types.NewPathSet("python3.11", "firmware")
	st.Excludes[h.Path("/")] = types.NewPathSet("python3.11/gone.py")

	root := h.Layout("/")
	copier.On("Copy", mock.Anything, []string{
		root.Lib32 + "/.",
		filepath.Join(root.Lib, "firmware"),
		filepath.Join(root.Lib, "python3.11"),
	}, root.LibNew).Return(nil)

	result, err := m.Migrate(context.Background(), st)
	require.NoError(t, err)
	// an exclude that is already gone is not an error
	assert.Equal(t, 0, result.Removed)
	copier.AssertExpectations(t)
}

func TestMigrateRefusesMergedLib(t *testing.T) {
	h := sampleHost(t)
	m, _ := realMigrator()
	st := analyze(t, h, m)

	root := h.Layout("/")
	require.NoError(t, os.Remove(root.Lib))
	testutil.CreateDir(t, root.Root, paths.LibDir)

	copier := &testutil.MockCopier{}
	m = migration.New(filesystem.NewOS(), copier, &testutil.MockRemover{}, nil)

	_, err := m.Migrate(context.Background(), st)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLibIsDir))
	assert.Contains(t, err.Error(), "was the migration done already?")

	copier.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, testutil.Exists(t, root.LibNew))
	assert.False(t, testutil.Exists(t, h.Layout("/usr").LibNew))
}

func TestMigrateRejectsInvalidState(t *testing.T) {
	m, _ := realMigrator()
	_, err := m.Migrate(context.Background(), state.State{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrStateCorrupt))
}

func TestRollbackRestoresInitial(t *testing.T) {
	h := sampleHost(t)
	m, _ := realMigrator()
	st := analyze(t, h, m)

	_, err := m.Migrate(context.Background(), st)
	require.NoError(t, err)

	result, err := m.Rollback(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseInitial, result.Phase)
	assert.False(t, result.HasIssues())

	fs := filesystem.NewOS()
	require.NoError(t, verify.All(fs, h.Prefixes(), verify.Initial))
	for _, prefix := range h.Prefixes() {
		assert.Equal(t, types.PhaseInitial, verify.DetectPhase(fs, prefix))
	}
	assert.True(t, testutil.FileExists(t, h.Path("/lib64/pkgconfig/foo.pc")))

	// the host can be migrated again
	_, err = m.Migrate(context.Background(), st)
	require.NoError(t, err)
}

func TestRollbackCleanupFailureIsRecoverable(t *testing.T) {
	h := sampleHost(t)
	m, _ := realMigrator()
	st := analyze(t, h, m)
	_, err := m.Migrate(context.Background(), st)
	require.NoError(t, err)

	remover := &testutil.MockRemover{}
	remover.On("RemoveAll", mock.Anything, h.Layout("/").LibNew).Return(fmt.Errorf("rm: Device or resource busy"))
	remover.On("RemoveAll", mock.Anything, h.Layout("/usr").LibNew).Return(nil)
	m = migration.New(filesystem.NewOS(), &testutil.MockCopier{}, remover, nil)

	result, err := m.Rollback(context.Background(), st)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, errors.Recoverable, result.Issues[0].Severity)
	assert.Equal(t, errors.ErrFileRemove, result.Issues[0].Code)

	assert.Equal(t, paths.Lib64Dir, testutil.ReadSymlink(t, h.Layout("/").Lib))
	remover.AssertExpectations(t)
}

func TestRollbackRequiresMigrated(t *testing.T) {
	h := sampleHost(t)
	m, _ := realMigrator()
	st := analyze(t, h, m)

	_, err := m.Rollback(context.Background(), st)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLibPointsToLib64))
}

func TestFinish(t *testing.T) {
	h := sampleHost(t)
	m, _ := realMigrator()
	st := analyze(t, h, m)
	_, err := m.Migrate(context.Background(), st)
	require.NoError(t, err)

	result, err := m.Finish(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseFinished, result.Phase)
	assert.False(t, result.HasIssues(), "issues: %v", result.Issues)
	assert.Positive(t, result.Removed)

	fs := filesystem.NewOS()
	for _, prefix := range h.Prefixes() {
		assert.Equal(t, types.PhaseFinished, verify.DetectPhase(fs, prefix))
		l := paths.NewLayout(prefix)
		assert.True(t, testutil.RealDirExists(t, l.Lib))
		assert.Equal(t, paths.LibDir, testutil.ReadSymlink(t, l.Lib32))
		assert.False(t, testutil.Exists(t, l.LibNew))
	}

	root := h.Layout("/")
	assert.Equal(t, "/lib32/libc.so.6", testutil.ReadFile(t, filepath.Join(root.Lib, "libc.so.6")))
	assert.True(t, testutil.FileExists(t, filepath.Join(root.Lib, "python3.11", "os.py")))

	// lib64 keeps only what the merge did not absorb
	assert.Equal(t, []string{"libc.so.6", "libstray.so", "pkgconfig"}, testutil.ListDir(t, root.Lib64))
	assert.Equal(t, []string{"foo.pc"}, testutil.ListDir(t, filepath.Join(root.Lib64, "pkgconfig")))

	usr := h.Layout("/usr")
	assert.Equal(t, []string{"gcc"}, testutil.ListDir(t, usr.Lib64))
	assert.Equal(t, []string{"libgcc_s.so"}, testutil.ListDir(t, filepath.Join(usr.Lib64, "gcc", "x")))
	assert.Equal(t, []string{"only64.so"}, testutil.ListDir(t, filepath.Join(usr.Lib64, "gcc", "y")))
	assert.True(t, testutil.FileExists(t, filepath.Join(usr.Lib, "libz.so")))
}

func TestFinishLib32FailureIsRecoverable(t *testing.T) {
	h := sampleHost(t)
	m, _ := realMigrator()
	st := analyze(t, h, m)
	_, err := m.Migrate(context.Background(), st)
	require.NoError(t, err)

	remover := &testutil.MockRemover{}
	remover.On("RemoveAll", mock.Anything, h.Layout("/").Lib32).Return(fmt.Errorf("rm: Permission denied"))
	remover.On("RemoveAll", mock.Anything, h.Layout("/usr").Lib32).Return(nil).Run(func(args mock.Arguments) {
		require.NoError(t, os.RemoveAll(args.String(1)))
	})
	m = migration.New(filesystem.NewOS(), &testutil.MockCopier{}, remover, nil)

	result, err := m.Finish(context.Background(), st)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, errors.Recoverable, result.Issues[0].Severity)
	assert.Contains(t, result.Issues[0].Hint, "symlink to lib")

	root := h.Layout("/")
	assert.True(t, testutil.RealDirExists(t, root.Lib))
	assert.True(t, testutil.RealDirExists(t, root.Lib32))
	assert.Equal(t, paths.LibDir, testutil.ReadSymlink(t, h.Layout("/usr").Lib32))
}

func TestFinishRequiresMigrated(t *testing.T) {
	h := sampleHost(t)
	m, _ := realMigrator()
	st := analyze(t, h, m)

	_, err := m.Finish(context.Background(), st)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLibPointsToLib64))
	assert.True(t, testutil.RealDirExists(t, h.Layout("/").Lib32))
}
