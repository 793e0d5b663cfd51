package sema

import (
	"ownck/internal/diag"
	"ownck/internal/prog"
)

// Options configure a verification pass over one function body.
type Options struct {
	// Reporter receives diagnostics as they are produced, in addition to the
	// Result's own bag. Optional.
	Reporter diag.Reporter
	// MaxDiagnostics caps the Result bag. Zero means the default of 100.
	MaxDiagnostics int
}

// Result stores everything a verification pass produced.
type Result struct {
	Program  *prog.Program
	Liveness *Liveness

	violations []Violation
	bag        *diag.Bag
	track      *tracker
}

// Valid reports whether the body obeys every ownership and borrow rule.
func (r *Result) Valid() bool {
	return r != nil && len(r.violations) == 0
}

// Violations returns the raw violation records in detection order.
func (r *Result) Violations() []Violation {
	if r == nil {
		return nil
	}
	return r.violations
}

// Bag returns the sorted diagnostics for the body.
func (r *Result) Bag() *diag.Bag {
	if r == nil {
		return nil
	}
	return r.bag
}

// BindingState returns the final ownership state of a binding after the walk.
func (r *Result) BindingState(id prog.BindingID) ValueState {
	if r == nil {
		return StateInvalid
	}
	return r.track.state(id)
}

// Check verifies a single function body. The pass is pure and synchronous:
// no I/O, no shared mutable state, so independent bodies may be checked
// concurrently with one Result each.
//
// Every instruction is visited even after violations are found; all errors in
// the body are collected in one pass.
func Check(p *prog.Program, opts Options) *Result {
	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = 100
	}
	res := &Result{
		Program: p,
		bag:     diag.NewBag(maxDiag),
	}
	if p == nil {
		return res
	}

	rec := &recorder{}
	res.Liveness = ComputeLiveness(p)

	res.track = newTracker(p, rec)
	res.track.run()

	newBorrowChecker(p, res.Liveness, res.track, rec).run()

	res.violations = rec.list

	var sink diag.Reporter = diag.BagReporter{Bag: res.bag}
	if opts.Reporter != nil {
		sink = teeReporter{a: sink, b: opts.Reporter}
	}
	report(p, res.violations, sink)
	res.bag.Sort()
	return res
}

// teeReporter fans a diagnostic out to two reporters.
type teeReporter struct {
	a, b diag.Reporter
}

func (t teeReporter) Report(code diag.Code, sev diag.Severity, primary prog.Point, msg string, notes []diag.Note) {
	t.a.Report(code, sev, primary, msg, notes)
	t.b.Report(code, sev, primary, msg, notes)
}
