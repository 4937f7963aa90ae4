package report

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/libmerge/pkg/types"
	"github.com/charmbracelet/glamour"
)

// GuidanceWidth is the wrap width of rendered guidance.
const GuidanceWidth = 80

// Guidance returns the markdown telling the operator what to do after an
// action. privileged only matters for analyze.
func Guidance(program string, action types.Action, privileged bool) string {
	switch action {
	case types.ActionAnalyze:
		if !privileged {
			return "Everything looks good from here. However, you need to rerun " +
				"the process as root to confirm.\n"
		}
		return fmt.Sprintf(`The state has been saved and the migration is ready to proceed.
To initiate it, please run:

    %s migrate

**Please do not perform any changes to the system at this point.** The
package database was read just now; if you install or remove anything
before migrating, please rerun the analysis.
`, program)

	case types.ActionMigrate:
		return fmt.Sprintf(`Initial migration complete. Please now test whether your system works
correctly. It might be a good idea to try rebooting it. Once tested,
complete the migration and clean up backup files via calling:

    %s finish

If you wish to revert the changes, run:

    %s rollback
`, program, program)

	case types.ActionRollback:
		return `Rollback complete. Your system should now be as before the migration.
Please look into fixing your issues and try again.
`

	case types.ActionFinish:
		return `Migration complete. Please switch to the new profiles, or add
the following to your make.conf (or equivalent):

    SYMLINK_LIB=no
    LIBDIR_x86=lib

Afterwards, please rebuild all installed GCC versions and all
packages installing into lib32, e.g.:

    emerge -1v /usr/lib/gcc /lib32 /usr/lib32

When the rebuilds are complete, the package manager should remove
the lib32 symlink. If it does not, do:

    rm /lib32 /usr/lib32
`
	}
	return ""
}

// Guide prints the guidance for an action.
func (r *Reporter) Guide(program string, action types.Action, privileged bool) {
	md := Guidance(program, action, privileged)
	if md == "" {
		return
	}
	r.println("")
	if !r.styled() {
		_, _ = fmt.Fprint(r.out, plainMarkdown(md))
		return
	}
	_, _ = fmt.Fprint(r.out, renderMarkdown(md))
}

// renderMarkdown renders for the terminal, falling back to the source.
func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GuidanceWidth),
	)
	if err != nil {
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return rendered
}

// plainMarkdown drops the emphasis markers that only glamour renders.
func plainMarkdown(md string) string {
	return strings.ReplaceAll(md, "**", "")
}
