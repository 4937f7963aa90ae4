package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arthur-debert/libmerge/pkg/types"
	"github.com/arthur-debert/libmerge/pkg/ui"
	"github.com/pterm/pterm"
)

// PrefixStatus is the detected phase of one prefix.
type PrefixStatus struct {
	Prefix string      `json:"prefix"`
	Phase  types.Phase `json:"phase"`
}

// Status is the host-wide picture shown by `libmerge status`.
type Status struct {
	Prefixes  []PrefixStatus `json:"prefixes"`
	StateFile string         `json:"state_file"`
	Saved     bool           `json:"state_saved"`
	// Phase is the host phase, folding the saved state into the topology.
	Phase types.Phase    `json:"phase"`
	Next  []types.Action `json:"next"`
}

// HostPhase folds per-prefix phases and the presence of saved state into
// one phase. Prefixes that disagree give unknown.
func HostPhase(prefixes []PrefixStatus, saved bool) types.Phase {
	if len(prefixes) == 0 {
		return types.PhaseUnknown
	}
	phase := prefixes[0].Phase
	for _, p := range prefixes[1:] {
		if p.Phase != phase {
			return types.PhaseUnknown
		}
	}
	if phase == types.PhaseInitial && saved {
		return types.PhaseAnalyzed
	}
	return phase
}

// PhaseStyle returns the badge style of a phase
func PhaseStyle(phase types.Phase) *pterm.Style {
	switch phase {
	case types.PhaseInitial:
		return pterm.NewStyle(pterm.BgBlue, pterm.FgWhite)
	case types.PhaseAnalyzed:
		return pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)
	case types.PhaseMigrated:
		return pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	case types.PhaseFinished:
		return pterm.NewStyle(pterm.BgGreen, pterm.FgWhite)
	default:
		return pterm.NewStyle(pterm.BgRed, pterm.FgWhite, pterm.Bold)
	}
}

func (r *Reporter) badge(phase types.Phase) string {
	label := fmt.Sprintf(" %-8s ", strings.ToUpper(string(phase)))
	if !r.styled() {
		return "[" + strings.TrimSpace(label) + "]"
	}
	return PhaseStyle(phase).Sprint(label)
}

// Status prints the host status, as JSON when asked to.
func (r *Reporter) Status(st Status) error {
	if r.format == ui.FormatJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	for _, p := range st.Prefixes {
		r.println(fmt.Sprintf("%s %s", r.badge(p.Phase), r.render("FilePath", p.Prefix)))
	}
	r.println("")

	saved := "no saved state"
	if st.Saved {
		saved = "state saved"
	}
	r.println(fmt.Sprintf("%s %s (%s)", r.badge(st.Phase), saved, st.StateFile))

	if len(st.Next) > 0 {
		next := make([]string, len(st.Next))
		for i, a := range st.Next {
			next[i] = string(a)
		}
		r.println(r.render("Hint", "next: "+strings.Join(next, " | ")))
	}
	return nil
}
