package migration

import (
	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/types"
)

// Result describes a completed phase.
type Result struct {
	// Phase is the phase the host is in afterwards.
	Phase    types.Phase
	Prefixes []string
	// Removed counts entries pruned from lib.new or lib64.
	Removed int
	// Issues are recoverable failures the operator should look at.
	Issues []*errors.Error
}

func newResult(phase types.Phase, prefixes []string) *Result {
	return &Result{Phase: phase, Prefixes: append([]string(nil), prefixes...)}
}

// HasIssues reports whether any recoverable failure occurred.
func (r *Result) HasIssues() bool {
	return len(r.Issues) > 0
}

func (r *Result) addIssue(err *errors.Error) {
	r.Issues = append(r.Issues, err.AsRecoverable())
}
