package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/libmerge/internal/version"
	"github.com/arthur-debert/libmerge/pkg/filesystem"
	"github.com/arthur-debert/libmerge/pkg/logging"
	"github.com/arthur-debert/libmerge/pkg/report"
	"github.com/arthur-debert/libmerge/pkg/types"
	"github.com/arthur-debert/libmerge/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// Options are the process-level dependencies of the commands. Tests
// replace them to run without root and without touching the real host.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	// Euid reports the effective user id; 0 is privileged.
	Euid func() int
	FS   types.FS
	// SystemConfigFile overrides /etc/libmerge.toml.
	SystemConfigFile string
}

// DefaultOptions returns the options of the real process.
func DefaultOptions() Options {
	return Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Euid:   os.Geteuid,
		FS:     filesystem.NewOS(),
	}
}

// flags holds the global flag values.
type flags struct {
	verbosity    int
	root         string
	stateFile    string
	contentsFrom string
	configFile   string
	format       string
}

// Execute runs the command line and returns the process exit status.
// Every fatal error, whatever its origin, is reported here.
func Execute(ctx context.Context, opts Options, args []string) int {
	rootCmd := NewRootCmd(opts)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		report.New(opts.Stderr, ui.FormatAuto).Fatal(err)
		return 1
	}
	return 0
}

// NewRootCmd creates and returns the root command
func NewRootCmd(opts Options) *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:     "libmerge",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(f.verbosity, opts.Stderr)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		// analyze is the default action
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhase(cmd, opts, f, types.ActionAnalyze)
		},
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}
	rootCmd.SetOut(opts.Stdout)
	rootCmd.SetErr(opts.Stderr)

	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&f.verbosity, "verbose", "v", MsgFlagVerbose)
	pf.StringVar(&f.root, "root", "", MsgFlagRoot)
	pf.StringVar(&f.stateFile, "state-file", "", MsgFlagStateFile)
	pf.StringVar(&f.contentsFrom, "contents-from", "", MsgFlagContentsFrom)
	pf.StringVar(&f.configFile, "config", "", MsgFlagConfig)
	pf.StringVar(&f.format, "format", "auto", MsgFlagFormat)

	rootCmd.AddCommand(newPhaseCmd(opts, f, types.ActionAnalyze, MsgAnalyzeShort))
	rootCmd.AddCommand(newPhaseCmd(opts, f, types.ActionMigrate, MsgMigrateShort))
	rootCmd.AddCommand(newPhaseCmd(opts, f, types.ActionRollback, MsgRollbackShort))
	rootCmd.AddCommand(newPhaseCmd(opts, f, types.ActionFinish, MsgFinishShort))
	rootCmd.AddCommand(newStatusCmd(opts, f))
	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newManCmd(opts))

	return rootCmd
}

func newPhaseCmd(opts Options, f *flags, action types.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhase(cmd, opts, f, action)
		},
	}
}

func newVersionCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Long:  `Print detailed version information including commit hash and build date`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(opts.Stdout, "libmerge version %s\n", version.Version)
			if version.Commit != "" {
				_, _ = fmt.Fprintf(opts.Stdout, "Commit: %s\n", version.Commit)
			}
			if version.Date != "" {
				_, _ = fmt.Fprintf(opts.Stdout, "Built:  %s\n", version.Date)
			}
		},
	}
}

func newManCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:    "man",
		Short:  MsgManShort,
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return GenManPage(cmd.Root(), opts.Stdout)
		},
	}
}

// GenManPage writes the section 8 man page of the command tree.
func GenManPage(rootCmd *cobra.Command, w io.Writer) error {
	header := &doc.GenManHeader{
		Title:   "LIBMERGE",
		Section: "8",
		Source:  "libmerge " + version.Version,
		Manual:  "libmerge manual",
	}
	return doc.GenMan(rootCmd, header, w)
}

// GenCompletion writes the completion script for shell.
func GenCompletion(rootCmd *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(w, true)
	case "zsh":
		return rootCmd.GenZshCompletion(w)
	case "fish":
		return rootCmd.GenFishCompletion(w, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf("unknown shell %q, supported shells: bash, zsh, fish, powershell", shell)
	}
}
