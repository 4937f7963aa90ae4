package cli

import (
	"github.com/arthur-debert/libmerge/pkg/report"
	"github.com/arthur-debert/libmerge/pkg/types"
	"github.com/arthur-debert/libmerge/pkg/verify"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts Options, f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: MsgStatusShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts, f)
			if err != nil {
				return err
			}
			return e.status()
		},
	}
}

func (e *env) status() error {
	prefixes := make([]report.PrefixStatus, len(e.prefixes))
	for i, prefix := range e.prefixes {
		prefixes[i] = report.PrefixStatus{
			Prefix: prefix,
			Phase:  verify.DetectPhase(e.fs, prefix),
		}
	}

	saved, err := e.store.Exists()
	if err != nil {
		return err
	}

	phase := report.HostPhase(prefixes, saved)
	next := types.NextActions(phase)
	if next == nil {
		next = []types.Action{}
	}
	return e.result.Status(report.Status{
		Prefixes:  prefixes,
		StateFile: e.store.Path(),
		Saved:     saved,
		Phase:     phase,
		Next:      next,
	})
}
