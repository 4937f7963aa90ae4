// Package report is the single place that turns phase outcomes into
// operator-facing output on the diagnostic stream.
//
// Fatal errors, recoverable issues, the classification summary, step
// narration and next-step guidance are all written here. On a colour
// terminal the output is styled with lipgloss, guidance is rendered
// markdown (glamour) and phases get pterm badges; otherwise everything is
// plain text.
package report
