package cli

import (
	"github.com/arthur-debert/libmerge/pkg/config"
	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/executor"
	"github.com/arthur-debert/libmerge/pkg/logging"
	"github.com/arthur-debert/libmerge/pkg/migration"
	"github.com/arthur-debert/libmerge/pkg/paths"
	"github.com/arthur-debert/libmerge/pkg/report"
	"github.com/arthur-debert/libmerge/pkg/state"
	"github.com/arthur-debert/libmerge/pkg/types"
	"github.com/arthur-debert/libmerge/pkg/ui"
	"github.com/spf13/cobra"
)

// env is everything a command needs, built once per invocation.
type env struct {
	cfg      *config.Config
	fs       types.FS
	prefixes []string
	store    *state.Store
	// out narrates phases on the diagnostic stream; results such as
	// status go to stdout through result.
	out        *report.Reporter
	result     *report.Reporter
	migrator   *migration.Migrator
	privileged bool
}

func newEnv(cmd *cobra.Command, opts Options, f *flags) (*env, error) {
	logger := logging.GetLogger("cli")

	format, err := ui.ParseFormat(f.format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrUsage, "invalid --format")
	}

	cfg, err := config.Load(config.LoadOptions{
		SystemFile: opts.SystemConfigFile,
		UserFile:   f.configFile,
		Overrides:  overrides(cmd, f),
	})
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("config", cfg.String()).Msg("Configuration loaded")

	stateFile := paths.StateFile(cfg.StateFile)
	if cmd.Flags().Changed("state-file") {
		stateFile = paths.ExpandHome(f.stateFile)
	}

	out := report.New(opts.Stderr, format)
	copier := executor.NewCommandCopier(cfg.Copy.Command, cfg.Copy.Reflink)
	remover := executor.NewCommandRemover(cfg.Remove.Command)

	return &env{
		cfg:        cfg,
		fs:         opts.FS,
		prefixes:   paths.Prefixes(cfg.Root),
		store:      state.NewStore(opts.FS, stateFile),
		out:        out,
		result:     report.New(opts.Stdout, format),
		migrator:   migration.New(opts.FS, copier, remover, out),
		privileged: opts.Euid() == 0,
	}, nil
}

// overrides maps the flags the operator actually set onto config keys.
func overrides(cmd *cobra.Command, f *flags) map[string]interface{} {
	o := make(map[string]interface{})
	flagSet := cmd.Flags()
	if flagSet.Changed("root") {
		o["root"] = f.root
	}
	if flagSet.Changed("state-file") {
		o["state_file"] = f.stateFile
	}
	if flagSet.Changed("contents-from") {
		o["pkgdb.manifest"] = f.contentsFrom
	}
	return o
}
