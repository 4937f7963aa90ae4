package cli

import (
	"fmt"
	"slices"

	"github.com/arthur-debert/libmerge/pkg/classify"
	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/logging"
	"github.com/arthur-debert/libmerge/pkg/migration"
	"github.com/arthur-debert/libmerge/pkg/pkgdb"
	"github.com/arthur-debert/libmerge/pkg/types"
	"github.com/spf13/cobra"
)

const programName = "libmerge"

func runPhase(cmd *cobra.Command, opts Options, f *flags, action types.Action) error {
	logger := logging.GetLogger("cli")
	defer logging.LogOperationStart(logger, string(action))()

	e, err := newEnv(cmd, opts, f)
	if err != nil {
		return err
	}

	if action.RequiresPrivilege() && !e.privileged {
		return errors.New(errors.ErrUsage, MsgNeedsRoot).
			WithHint(fmt.Sprintf("run `sudo %s %s`", programName, action))
	}

	if action == types.ActionAnalyze {
		return e.analyze()
	}
	return e.transition(cmd, action)
}

func (e *env) analyze() error {
	if !e.privileged {
		e.out.Notice(MsgUnprivileged)
	}

	db, err := pkgdb.Open(e.fs, e.cfg)
	if err != nil {
		return err
	}

	analysis, err := e.migrator.Analyze(e.prefixes, db, classify.Options{
		Lib64Extensions: e.cfg.Analyze.Lib64Extensions,
	})
	if err != nil {
		return err
	}
	e.out.Classification(analysis)

	if e.privileged {
		if err := e.store.Save(analysis.State()); err != nil {
			return err
		}
		e.out.Stepf("saved the migration plan to %s", e.store.Path())
	}

	e.out.Guide(programName, types.ActionAnalyze, e.privileged)
	return nil
}

// transition runs migrate, rollback or finish against the saved state.
func (e *env) transition(cmd *cobra.Command, action types.Action) error {
	ctx := cmd.Context()

	// The layout check comes first so that a host that was already
	// migrated is reported as such, not as missing state.
	if err := e.migrator.Verify(action, e.prefixes); err != nil {
		return err
	}

	st, err := e.store.Load()
	if err != nil {
		return err
	}
	if !slices.Equal(st.Prefixes, e.prefixes) {
		return errors.Newf(errors.ErrStateCorrupt, MsgPrefixChanged, st.Prefixes, e.prefixes).
			WithDetail("path", e.store.Path()).
			WithHint(fmt.Sprintf("run `%s analyze` again with the same root", programName))
	}

	var result *migration.Result
	switch action {
	case types.ActionMigrate:
		result, err = e.migrator.Migrate(ctx, st)
	case types.ActionRollback:
		result, err = e.migrator.Rollback(ctx, st)
	case types.ActionFinish:
		result, err = e.migrator.Finish(ctx, st)
	default:
		return errors.Newf(errors.ErrInvalidInput, "unknown action %q", action)
	}
	if err != nil {
		return err
	}
	e.out.Issues(result)

	// The plan is spent once lib no longer points at lib.new.
	if action != types.ActionMigrate {
		if err := e.store.Clear(); err != nil {
			return err
		}
	}

	e.out.Guide(programName, action, e.privileged)
	return nil
}
