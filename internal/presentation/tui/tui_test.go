package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/aware/internal/presentation/tui"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestTraceMarkdown(t *testing.T) {
	tr := &domain.Trace{
		ID:          "01TRACE",
		Signal:      "sound:crying",
		Source:      "baby",
		Local:       true,
		Propagation: 3,
		Steps: []domain.Step{
			{Kind: domain.StepExplore, Location: "nursery"},
			{Kind: domain.StepExplore, Location: "hall", Distance: 1, Exit: "door"},
			{Kind: domain.StepMatch, Location: "hall", Distance: 1, Subscriber: "parent", Level: "sound"},
			{Kind: domain.StepFailure, Location: "hall", Distance: 1, Subscriber: "parent", Handler: "cmd", Error: "a|b"},
		},
	}

	md := tui.TraceMarkdown(tr)
	assert.Contains(t, md, "# sound:crying")
	assert.Contains(t, md, "local (propagation 3)")
	assert.Contains(t, md, "| 1 | explore | nursery | 0 | - | - |")
	assert.Contains(t, md, "| 2 | explore | hall | 1 | - | via door |")
	assert.Contains(t, md, "| 3 | match | hall | 1 | parent | level sound |")
	assert.Contains(t, md, `cmd: a\|b`)

	empty := tui.TraceMarkdown(&domain.Trace{Signal: "x"})
	assert.Contains(t, empty, "No steps recorded")
	assert.Contains(t, empty, "global")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintResult(&buf, &domain.Result{
		Notified: []domain.EntityID{"parent", "cook"},
		Trace:    &domain.Trace{Steps: []domain.Step{{Kind: domain.StepFailure}}},
		Stopped:  true,
	})
	out := buf.String()
	assert.Contains(t, out, "notified 2: parent, cook")
	assert.Contains(t, out, "(1 failed)")
	assert.Contains(t, out, "[stopped]")

	buf.Reset()
	tui.PrintResult(&buf, &domain.Result{})
	assert.Contains(t, buf.String(), "notified 0")
}

func TestRendererFor_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, tui.IsTerminal(&buf))

	render := tui.RendererFor(&buf)
	out, err := render("# title")
	assert.NoError(t, err)
	assert.Equal(t, "# title", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}
