// Package diagnostics renders interpreter diagnostics to the terminal and
// wires the optional --trace pipeline log, keeping both concerns out of
// internal/lang so the core stays testable without a terminal attached.
package diagnostics

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/dlacey/wisp/internal/lang"
)

// Printer renders diagnostics and trace events to a writer, colorizing
// output unless NoColor is set (honoring --no-color and non-TTY output the
// same way the teacher's own test harness decides when to colorize).
type Printer struct {
	Out     io.Writer
	NoColor bool

	kindColor *color.Color
	log       zerolog.Logger
}

// NewPrinter builds a Printer and, when trace is true, a zerolog pipeline
// logger writing structured events to out.
func NewPrinter(out io.Writer, noColor, trace bool) *Printer {
	p := &Printer{Out: out, NoColor: noColor}
	p.kindColor = color.New(color.FgRed, color.Bold)
	if noColor {
		p.kindColor.DisableColor()
	}

	level := zerolog.Disabled
	if trace {
		level = zerolog.TraceLevel
	}
	p.log = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return p
}

// Diagnostic prints one error in the form "[line N] kind: message",
// coloring the "kind:" prefix when colorization is enabled.
func (p *Printer) Diagnostic(err error) {
	d, ok := lang.AsDiagnostic(err)
	if !ok {
		fmt.Fprintln(p.Out, err.Error())
		return
	}
	if d.Kind == lang.KindInternal {
		p.log.Trace().Msgf("%+v", err)
	}
	prefix := p.kindColor.Sprint(labelFor(d))
	if d.Line > 0 {
		fmt.Fprintf(p.Out, "[line %d] %s %s\n", d.Line, prefix, d.Message)
	} else {
		fmt.Fprintf(p.Out, "%s %s\n", prefix, d.Message)
	}
}

// labelFor returns just the "kind:" portion of a Diagnostic so it can be
// colorized independently of the line prefix and message; Diagnostic.Error
// renders the same single-line form as plain text without going through a
// Printer.
func labelFor(d *lang.Diagnostic) string {
	return d.Kind.Label() + ":"
}

// Trace emits a structured pipeline event (stage name plus free-form
// fields) to the --trace log; it is a no-op when trace mode is off.
func (p *Printer) Trace(stage string, fields map[string]any) {
	evt := p.log.Trace().Str("stage", stage)
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}
	evt.Msg(stage)
}
