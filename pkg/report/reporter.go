package report

import (
	"fmt"
	"io"

	"github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/migration"
	"github.com/arthur-debert/libmerge/pkg/ui"
	"github.com/arthur-debert/libmerge/pkg/ui/output/styles"
)

// Reporter writes operator-facing output.
type Reporter struct {
	out    io.Writer
	format ui.Format
}

// New creates a reporter on out. FormatAuto is resolved against out.
func New(out io.Writer, format ui.Format) *Reporter {
	return &Reporter{out: out, format: ui.Resolve(format, out)}
}

// Format returns the resolved output format.
func (r *Reporter) Format() ui.Format {
	return r.format
}

func (r *Reporter) styled() bool {
	return r.format == ui.FormatTerminal
}

func (r *Reporter) render(style, text string) string {
	if !r.styled() {
		return text
	}
	return styles.GetStyle(style).Render(text)
}

func (r *Reporter) println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Stepf narrates one filesystem step.
func (r *Reporter) Stepf(format string, args ...interface{}) {
	r.println(r.render("Step", fmt.Sprintf(format, args...)))
}

// Notice prints a one-line remark.
func (r *Reporter) Notice(msg string) {
	r.println(r.render("Muted", "["+msg+"]"))
}

// Fatal reports an error that ended the run.
func (r *Reporter) Fatal(err error) {
	if err == nil {
		return
	}
	r.println("")
	r.println(r.render("Error", "error: ") + errors.Describe(err))
	r.details(err)
}

// Issues reports the recoverable issues of a finished phase.
func (r *Reporter) Issues(result *migration.Result) {
	if result == nil || !result.HasIssues() {
		return
	}
	r.println("")
	r.println(r.render("Warning", fmt.Sprintf("%d step(s) need manual attention:", len(result.Issues))))
	for _, issue := range result.Issues {
		r.println(r.render("Warning", "warning: ") + errors.Describe(issue))
		r.details(issue)
	}
}

func (r *Reporter) details(err error) {
	if paths, ok := errors.GetErrorDetails(err)["paths"].([]string); ok && len(paths) > 0 {
		r.println("")
		for _, p := range paths {
			r.item(p)
		}
		r.println("")
	}
	if hint := errors.GetHint(err); hint != "" {
		r.println(r.render("Hint", "hint: "+hint))
	}
}

func (r *Reporter) list(title string, items []string) {
	if len(items) == 0 {
		return
	}
	r.println("")
	r.println(r.render("SubHeader", title))
	for _, item := range items {
		r.item(item)
	}
}

// item prints one indented list entry.
func (r *Reporter) item(s string) {
	if r.styled() {
		r.println(styles.GetStyle("Item").Render(s))
		return
	}
	r.println("    " + s)
}
