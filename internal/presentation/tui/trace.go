package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/muesli/termenv"
)

// TraceMarkdown renders a throw trace as a markdown document.
func TraceMarkdown(tr *domain.Trace) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", tr.Signal)
	scope := "local"
	if !tr.Local {
		scope = "global"
	}
	fmt.Fprintf(&sb, "- **trace**: `%s`\n", tr.ID)
	fmt.Fprintf(&sb, "- **source**: %s\n", tr.Source)
	fmt.Fprintf(&sb, "- **scope**: %s (propagation %d)\n", scope, tr.Propagation)
	fmt.Fprintf(&sb, "- **duration**: %s\n\n", tr.Duration)

	if len(tr.Steps) == 0 {
		sb.WriteString("_No steps recorded._\n")
		return sb.String()
	}

	sb.WriteString("| # | step | location | distance | subscriber | detail |\n")
	sb.WriteString("|---|------|----------|----------|------------|--------|\n")
	for i, s := range tr.Steps {
		fmt.Fprintf(&sb, "| %d | %s | %s | %d | %s | %s |\n",
			i+1, s.Kind, cell(string(s.Location)), s.Distance, cell(string(s.Subscriber)), cell(detail(s)))
	}
	return sb.String()
}

func detail(s domain.Step) string {
	switch s.Kind {
	case domain.StepExplore:
		if s.Exit != "" {
			return "via " + s.Exit
		}
	case domain.StepMatch:
		return "level " + s.Level
	case domain.StepInvoke:
		return s.Handler
	case domain.StepFailure:
		return s.Handler + ": " + s.Error
	}
	return ""
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}

// PrintResult writes a one-line colored summary of a throw.
func PrintResult(w io.Writer, res *domain.Result) {
	out := termenv.NewOutput(w)
	failures := 0
	if res.Trace != nil {
		failures = len(res.Trace.Failures())
	}

	notified := make([]string, len(res.Notified))
	for i, e := range res.Notified {
		notified[i] = string(e)
	}
	summary := fmt.Sprintf("notified %d: %s", len(notified), strings.Join(notified, ", "))
	if len(notified) == 0 {
		summary = "notified 0"
	}

	color := "#22c55e"
	if failures > 0 {
		color = "#f59e0b"
	}
	fmt.Fprint(w, out.String(summary).Foreground(out.Color(color)))
	if failures > 0 {
		fmt.Fprint(w, out.String(fmt.Sprintf(" (%d failed)", failures)).Foreground(out.Color("#ef4444")))
	}
	if res.Stopped {
		fmt.Fprint(w, out.String(" [stopped]").Faint())
	}
	fmt.Fprintln(w)
}
