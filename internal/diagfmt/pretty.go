package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"ownck/internal/diag"
	"ownck/internal/prog"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	noteColor = color.New(color.FgBlue)
	gutColor  = color.New(color.FgHiBlack)
)

// Pretty renders diagnostics for one function body in human-readable form.
// Expects the bag to be sorted already. For each diagnostic it prints
//
//	<fn>:<point>: <SEV> <CODE>: <message>
//
// followed by the instruction listing line with a caret underline, then any
// notes in the same shape. The program may be nil (results restored from the
// cache); the listing is skipped then.
func Pretty(w io.Writer, fn string, p *prog.Program, bag *diag.Bag, opts PrettyOpts) {
	if p == nil {
		opts.Listing = false
	}
	for _, d := range bag.Items() {
		printHeader(w, fn, d.Primary, severityLabel(d.Severity, opts.Color), d.Code.ID(), d.Message)
		if opts.Listing {
			printListing(w, p, d.Primary, opts.Color)
		}
		if !opts.WithNotes {
			continue
		}
		for _, n := range d.Notes {
			label := "note"
			if opts.Color {
				label = noteColor.Sprint(label)
			}
			fmt.Fprintf(w, "    %s: %s\n", label, n.Msg)
			if opts.Listing {
				printListing(w, p, n.Point, opts.Color)
			}
		}
	}
}

func printHeader(w io.Writer, fn string, at prog.Point, sev, code, msg string) {
	fmt.Fprintf(w, "%s:%d: %s %s: %s\n", fn, at, sev, code, msg)
}

func printListing(w io.Writer, p *prog.Program, at prog.Point, colored bool) {
	if !at.IsValid() {
		return
	}
	line := p.Describe(at)
	gutter := fmt.Sprintf("%5d | ", at)
	underPad := strings.Repeat(" ", len(gutter)-2)
	caret := "^" + strings.Repeat("~", max(runewidth.StringWidth(line)-1, 0))
	if colored {
		gutter = gutColor.Sprint(gutter)
		caret = errColor.Sprint(caret)
	}
	fmt.Fprintf(w, "%s%s\n", gutter, line)
	fmt.Fprintf(w, "%s| %s\n", underPad, caret)
}

func severityLabel(s diag.Severity, colored bool) string {
	label := s.String()
	if !colored {
		return label
	}
	switch s {
	case diag.SevError:
		return errColor.Sprint(label)
	case diag.SevWarning:
		return warnColor.Sprint(label)
	default:
		return infoColor.Sprint(label)
	}
}
