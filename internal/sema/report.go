package sema

import (
	"fmt"

	"ownck/internal/diag"
	"ownck/internal/prog"
)

// report converts recorded violations into diagnostics. Pure: the same
// violation list always yields the same diagnostics in the same order.
func report(p *prog.Program, violations []Violation, r diag.Reporter) {
	for _, v := range violations {
		reportOne(p, v, r)
	}
}

func reportOne(p *prog.Program, v Violation, r diag.Reporter) {
	switch v.Kind {
	case ViolationUseAfterMove:
		diag.ReportError(r, diag.OwnUseAfterMove, v.Point,
			fmt.Sprintf("use of moved value %q", bindingName(p, v.Binding))).
			WithNote(v.Prior, "value moved here").
			Emit()
	case ViolationUseAfterDrop:
		diag.ReportError(r, diag.OwnUseAfterDrop, v.Point,
			fmt.Sprintf("use of dropped value %q", bindingName(p, v.Binding))).
			WithNote(v.Prior, "value dropped here").
			Emit()
	case ViolationConflictingBorrow:
		reportBorrowConflict(p, v, r)
	case ViolationDanglingReference:
		diag.ReportError(r, diag.OwnDanglingRef, v.Point,
			fmt.Sprintf("reference %q used after %q is dropped", refName(p, v.Ref), bindingName(p, v.Binding))).
			WithNote(v.Prior, fmt.Sprintf("%q dropped here", bindingName(p, v.Binding))).
			Emit()
	default:
		diag.ReportError(r, diag.UnknownCode, v.Point, "unclassified violation").Emit()
	}
}

func reportBorrowConflict(p *prog.Program, v Violation, r diag.Reporter) {
	target := bindingName(p, v.Binding)
	// A conflict without a second reference is a move out of a borrowed
	// binding; a pair conflict names both references.
	if !v.Other.IsValid() {
		diag.ReportError(r, diag.OwnBorrowConflict, v.Point,
			fmt.Sprintf("cannot move out of %q while borrowed by %q", target, refName(p, v.Ref))).
			WithNote(v.Prior, "borrow created here").
			Emit()
		return
	}
	later := p.Ref(v.Ref)
	kind := "shared"
	if later != nil && later.Kind == prog.RefExclusive {
		kind = "exclusive"
	}
	diag.ReportError(r, diag.OwnBorrowConflict, v.Point,
		fmt.Sprintf("cannot borrow %q as %s while %q is live", target, kind, refName(p, v.Other))).
		WithNote(v.Prior, "earlier borrow created here").
		Emit()
}

func bindingName(p *prog.Program, id prog.BindingID) string {
	if b := p.Binding(id); b != nil {
		return b.Name
	}
	return "_"
}

func refName(p *prog.Program, id prog.RefID) string {
	if ref := p.Ref(id); ref != nil {
		return ref.Name
	}
	return "_"
}
