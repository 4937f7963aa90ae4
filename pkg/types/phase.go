package types

// Phase is the migration phase a prefix (or the whole host) is in.
type Phase string

const (
	PhaseInitial  Phase = "initial"
	PhaseAnalyzed Phase = "analyzed"
	PhaseMigrated Phase = "migrated"
	PhaseFinished Phase = "finished"
	PhaseUnknown  Phase = "unknown"
)

// Action is one of the operator-invoked transitions.
type Action string

const (
	ActionAnalyze  Action = "analyze"
	ActionMigrate  Action = "migrate"
	ActionRollback Action = "rollback"
	ActionFinish   Action = "finish"
)

// NextActions returns the transitions that lead out of a phase. Re-running
// analyze while analyzed only refreshes the saved state and is not listed.
func NextActions(p Phase) []Action {
	switch p {
	case PhaseInitial:
		return []Action{ActionAnalyze}
	case PhaseAnalyzed:
		return []Action{ActionMigrate}
	case PhaseMigrated:
		return []Action{ActionRollback, ActionFinish}
	default:
		return nil
	}
}

// RequiresPrivilege reports whether an action may only run as root.
func (a Action) RequiresPrivilege() bool {
	return a != ActionAnalyze
}
