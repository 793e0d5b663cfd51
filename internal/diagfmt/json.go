package diagfmt

import (
	"encoding/json"
	"io"

	"ownck/internal/diag"
	"ownck/internal/prog"
)

// LocationJSON is a program point in JSON output, with the instruction
// rendered in listing form for readability downstream.
type LocationJSON struct {
	Fn    string `json:"fn"`
	Point uint32 `json:"point"`
	Instr string `json:"instr,omitempty"`
}

// NoteJSON is a secondary note in JSON output.
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON is a single finding in JSON output.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// FunctionJSON groups a function body's verdict with its findings.
type FunctionJSON struct {
	Name        string           `json:"name"`
	Valid       bool             `json:"valid"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// Output is the root structure of JSON output.
type Output struct {
	Functions []FunctionJSON `json:"functions"`
	Valid     bool           `json:"valid"`
	Count     int            `json:"count"`
}

func makeLocation(fn string, p *prog.Program, at prog.Point) LocationJSON {
	loc := LocationJSON{Fn: fn, Point: uint32(at)}
	if p != nil && at.IsValid() {
		loc.Instr = p.Describe(at)
	}
	return loc
}

// FunctionOutput converts one body's diagnostics into the JSON DTO. The
// program may be nil; rendered instructions are omitted then.
func FunctionOutput(fn string, p *prog.Program, bag *diag.Bag, opts JSONOpts) FunctionJSON {
	out := FunctionJSON{
		Name:        fn,
		Valid:       !bag.HasErrors(),
		Diagnostics: make([]DiagnosticJSON, 0, bag.Len()),
	}
	for _, d := range bag.Items() {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: makeLocation(fn, p, d.Primary),
		}
		if opts.WithNotes {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{
					Message:  n.Msg,
					Location: makeLocation(fn, p, n.Point),
				})
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// WriteJSON assembles and writes the root output for a set of checked
// function bodies.
func WriteJSON(w io.Writer, functions []FunctionJSON, opts JSONOpts) error {
	out := Output{Functions: functions, Valid: true}
	for _, fn := range functions {
		out.Count += fn.Count
		if !fn.Valid {
			out.Valid = false
		}
	}
	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
