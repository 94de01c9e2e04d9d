package simply

import (
	"strings"

	"github.com/cznic/mathutil"
	"github.com/pterm/pterm"
)

// Severity is the level of a Diagnostics event (§3.4).
type Severity int

const (
	Info Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one diagnostic emitted by a pipeline stage. Diagnostics are a
// pure observability side-channel: nothing in the pipeline reads back
// anything a sink does with an Event.
type Event struct {
	Stage    string
	Severity Severity
	Message  string
}

// Diagnostics receives pipeline stage events.
type Diagnostics interface {
	Emit(Event)
}

// DiscardDiagnostics drops every event; it is the sink tests use.
type DiscardDiagnostics struct{}

func (DiscardDiagnostics) Emit(Event) {}

// TerminalDiagnostics renders events to the terminal with one labelled,
// colored panel per stage, mirroring the pterm-based front-end style in
// the example corpus: a colored background tag naming the stage and
// level, followed by the message in the matching foreground color.
// MinSeverity filters out events below the configured level.
type TerminalDiagnostics struct {
	MinSeverity Severity
}

func (d TerminalDiagnostics) Emit(e Event) {
	if e.Severity < d.MinSeverity {
		return
	}
	bannerLen := mathutil.Clamp(pterm.GetTerminalWidth()/2, 20, 50)
	pterm.FgGray.Println(strings.Repeat("-", bannerLen))
	tag := "[" + e.Stage + "] " + e.Severity.String()
	switch e.Severity {
	case Error:
		pterm.NewStyle(pterm.BgRed, pterm.FgWhite).Print(tag)
		pterm.FgRed.Println(" " + e.Message)
	case Warn:
		pterm.NewStyle(pterm.BgYellow, pterm.FgBlack).Print(tag)
		pterm.FgYellow.Println(" " + e.Message)
	default:
		pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack).Print(tag)
		pterm.FgLightGreen.Println(" " + e.Message)
	}
}

// Stage emits an Info event naming a pipeline stage's completion, the
// recurring shape most call sites need.
func Stage(d Diagnostics, stage, message string) {
	d.Emit(Event{Stage: stage, Severity: Info, Message: message})
}
