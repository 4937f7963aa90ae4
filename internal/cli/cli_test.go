package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/libmerge/internal/cli"
	"github.com/arthur-debert/libmerge/pkg/filesystem"
	"github.com/arthur-debert/libmerge/pkg/paths"
	"github.com/arthur-debert/libmerge/pkg/report"
	"github.com/arthur-debert/libmerge/pkg/testutil"
	"github.com/arthur-debert/libmerge/pkg/types"
	"github.com/arthur-debert/libmerge/pkg/verify"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var packages = []testutil.Package{
	{Name: "dev-lang/python", Dirs: []string{"/lib/python3.11"}, Files: []string{"/lib/python3.11/os.py"}},
	{Name: "sys-libs/zlib", Files: []string{"/lib64/libz.so.1", "/lib/pkgconfig/zlib.pc", "/lib64/pkgconfig/z64.pc"}},
	{Name: "sys-libs/glibc32", Files: []string{"/lib32/libc.so.6"}},
	{Name: "sys-devel/gcc", Files: []string{"/usr/lib/gcc/x/crt1.o"}},
}

type harness struct {
	host      *testutil.Host
	manifest  string
	stateFile string
	euid      int
	stdout    bytes.Buffer
	stderr    bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(paths.EnvStateFile, "")

	h := &harness{host: testutil.NewHost(t)}
	h.host.WriteFiles(
		"/lib64/python3.11/os.py",
		"/lib64/libz.so.1",
		"/lib64/pkgconfig/zlib.pc",
		"/lib64/pkgconfig/z64.pc",
		"/lib32/libc.so.6",
		"/usr/lib64/gcc/x/crt1.o",
	)
	h.manifest = h.host.Manifest(packages...)
	h.stateFile = filepath.Join(t.TempDir(), "libmerge.state")
	return h
}

func (h *harness) options(t *testing.T) cli.Options {
	h.stdout.Reset()
	h.stderr.Reset()
	return cli.Options{
		Stdout:           &h.stdout,
		Stderr:           &h.stderr,
		Euid:             func() int { return h.euid },
		FS:               filesystem.NewOS(),
		SystemConfigFile: filepath.Join(t.TempDir(), "libmerge.toml"),
	}
}

func (h *harness) run(t *testing.T, args ...string) int {
	t.Helper()
	args = append(args,
		"--root", h.host.Root,
		"--state-file", h.stateFile,
		"--contents-from", h.manifest,
	)
	return cli.Execute(context.Background(), h.options(t), args)
}

func (h *harness) phase(t *testing.T) types.Phase {
	t.Helper()
	require.Equal(t, 0, h.run(t, "status", "--format", "json"))

	var st report.Status
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &st))
	return st.Phase
}

func TestFullMigration(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run(t, "analyze"), h.stderr.String())
	assert.Contains(t, h.stderr.String(), "split "+h.host.Path("/lib")+"/+"+h.host.Path("/lib64")+"/:")
	assert.Contains(t, h.stderr.String(), "libmerge migrate")
	assert.True(t, testutil.FileExists(t, h.stateFile))
	assert.Equal(t, types.PhaseAnalyzed, h.phase(t))

	require.Equal(t, 0, h.run(t, "migrate"), h.stderr.String())
	assert.Contains(t, h.stderr.String(), "libmerge finish")
	assert.Equal(t, types.PhaseMigrated, h.phase(t))

	root := h.host.Layout("/")
	assert.Equal(t, paths.LibNewDir, testutil.ReadSymlink(t, root.Lib))
	assert.True(t, testutil.FileExists(t, filepath.Join(root.LibNew, "python3.11", "os.py")))
	assert.True(t, testutil.FileExists(t, filepath.Join(root.LibNew, "pkgconfig", "zlib.pc")))
	assert.False(t, testutil.Exists(t, filepath.Join(root.LibNew, "pkgconfig", "z64.pc")))
	assert.True(t, testutil.FileExists(t, filepath.Join(root.LibNew, "libc.so.6")))

	require.Equal(t, 0, h.run(t, "finish"), h.stderr.String())
	assert.Contains(t, h.stderr.String(), "SYMLINK_LIB=no")
	assert.False(t, testutil.Exists(t, h.stateFile))
	assert.Equal(t, types.PhaseFinished, h.phase(t))

	assert.True(t, testutil.RealDirExists(t, root.Lib))
	assert.Equal(t, paths.LibDir, testutil.ReadSymlink(t, root.Lib32))
	assert.Equal(t, []string{"libz.so.1", "pkgconfig"}, testutil.ListDir(t, root.Lib64))
	assert.Equal(t, []string{"z64.pc"}, testutil.ListDir(t, filepath.Join(root.Lib64, "pkgconfig")))
}

func TestRollback(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run(t, "analyze"), h.stderr.String())
	require.Equal(t, 0, h.run(t, "migrate"), h.stderr.String())
	require.Equal(t, 0, h.run(t, "rollback"), h.stderr.String())
	assert.Contains(t, h.stderr.String(), "Rollback complete")

	fs := filesystem.NewOS()
	for _, prefix := range h.host.Prefixes() {
		assert.Equal(t, types.PhaseInitial, verify.DetectPhase(fs, prefix))
	}
	assert.False(t, testutil.Exists(t, h.stateFile))
	assert.Equal(t, types.PhaseInitial, h.phase(t))
}

func TestAnalyzeIsDefaultAction(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run(t), h.stderr.String())
	assert.True(t, testutil.FileExists(t, h.stateFile))
}

func TestPhaseNarrationGoesToStderr(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run(t, "analyze"), h.stderr.String())
	assert.Empty(t, h.stdout.String())
	assert.Contains(t, h.stderr.String(), "Analyzing files installed")
	assert.Contains(t, h.stderr.String(), "pure "+h.host.Path("/lib")+"/:")
	assert.Contains(t, h.stderr.String(), "    libmerge migrate\n")
}

func TestUnprivilegedAnalyzeDoesNotSave(t *testing.T) {
	h := newHarness(t)
	h.euid = 1000

	require.Equal(t, 0, h.run(t, "analyze"), h.stderr.String())
	assert.Contains(t, h.stderr.String(), cli.MsgUnprivileged)
	assert.Contains(t, h.stderr.String(), "rerun the process as root")
	assert.False(t, testutil.Exists(t, h.stateFile))
}

func TestUnprivilegedPhasesAreRefused(t *testing.T) {
	for _, action := range []string{"migrate", "rollback", "finish"} {
		t.Run(action, func(t *testing.T) {
			h := newHarness(t)
			h.euid = 1000

			assert.Equal(t, 1, h.run(t, action))
			assert.Contains(t, h.stderr.String(), cli.MsgNeedsRoot)
			assert.Equal(t, paths.Lib64Dir, testutil.ReadSymlink(t, h.host.Layout("/").Lib))
		})
	}
}

func TestMigrateWithoutState(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run(t, "migrate"))
	assert.Contains(t, h.stderr.String(), "libmerge analyze")
	assert.False(t, testutil.Exists(t, h.host.Layout("/").LibNew))
}

func TestFinishBeforeMigrate(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run(t, "analyze"), h.stderr.String())

	assert.Equal(t, 1, h.run(t, "finish"))
	assert.Contains(t, h.stderr.String(), "is a symlink to lib64! did the migration succeed?")
	assert.True(t, testutil.FileExists(t, h.stateFile))
}

func TestMigrateTwiceIsRefused(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run(t, "analyze"), h.stderr.String())
	require.Equal(t, 0, h.run(t, "migrate"), h.stderr.String())

	assert.Equal(t, 1, h.run(t, "migrate"))
	assert.Contains(t, h.stderr.String(), "is a symlink to lib.new! did you want to finish?")
}

func TestStateForOtherRootIsRefused(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run(t, "analyze"), h.stderr.String())

	other := testutil.NewHost(t)
	code := cli.Execute(context.Background(), h.options(t), []string{
		"migrate", "--root", other.Root, "--state-file", h.stateFile,
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "the saved state covers")
	assert.False(t, testutil.Exists(t, other.Layout("/").LibNew))
}

func TestAnalyzeReportsConflicts(t *testing.T) {
	h := newHarness(t)
	h.host.WriteFiles("/lib64/libdup.so")
	h.manifest = h.host.Manifest(append([]testutil.Package{
		{Name: "a/one", Files: []string{"/lib/libdup.so"}},
		{Name: "a/two", Files: []string{"/lib64/libdup.so"}},
	}, packages...)...)

	assert.Equal(t, 1, h.run(t, "analyze"))
	assert.Contains(t, h.stderr.String(), h.host.Path("/lib/libdup.so")+" & "+h.host.Path("/lib64/libdup.so"))
	assert.False(t, testutil.Exists(t, h.stateFile))
}

func TestAnalyzeFromVarDB(t *testing.T) {
	h := newHarness(t)
	h.host.VarDB(packages...)

	code := cli.Execute(context.Background(), h.options(t), []string{
		"analyze", "--root", h.host.Root, "--state-file", h.stateFile,
	})
	require.Equal(t, 0, code, h.stderr.String())
	assert.True(t, testutil.FileExists(t, h.stateFile))
}

func TestStatusText(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run(t, "status"))
	assert.Contains(t, h.stdout.String(), "[INITIAL] "+h.host.Path("/usr"))
	assert.Contains(t, h.stdout.String(), "no saved state")
	assert.Contains(t, h.stdout.String(), "next: analyze")
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 1, h.run(t, "status", "--format", "yaml"))
	assert.Contains(t, h.stderr.String(), "invalid --format")
}

func TestVersionAndMan(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, cli.Execute(context.Background(), h.options(t), []string{"version"}))
	assert.Contains(t, h.stdout.String(), "libmerge version")

	require.Equal(t, 0, cli.Execute(context.Background(), h.options(t), []string{"man"}))
	assert.Contains(t, h.stdout.String(), "LIBMERGE")
	assert.Contains(t, h.stdout.String(), "analyze")
}

func TestCommandTree(t *testing.T) {
	root := cli.NewRootCmd(cli.DefaultOptions())

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"analyze", "migrate", "rollback", "finish", "status", "version", "man"}, names)

	for _, flag := range []string{"verbose", "root", "state-file", "contents-from", "config", "format"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}

	var migrate *cobra.Command
	for _, c := range root.Commands() {
		if c.Name() == "migrate" {
			migrate = c
		}
	}
	require.NotNil(t, migrate)
	assert.Equal(t, cli.MsgMigrateShort, migrate.Short)
}

func TestGenCompletion(t *testing.T) {
	root := cli.NewRootCmd(cli.DefaultOptions())

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		var buf bytes.Buffer
		require.NoError(t, cli.GenCompletion(root, shell, &buf), shell)
		assert.Contains(t, buf.String(), "libmerge", shell)
	}

	assert.Error(t, cli.GenCompletion(root, "tcsh", &bytes.Buffer{}))
}
