package sema

import (
	"ownck/internal/prog"
)

// ViolationKind classifies ownership and borrow rule violations.
type ViolationKind uint8

const (
	ViolationInvalid ViolationKind = iota
	ViolationUseAfterMove
	ViolationUseAfterDrop
	ViolationConflictingBorrow
	ViolationDanglingReference
)

func (k ViolationKind) String() string {
	switch k {
	case ViolationUseAfterMove:
		return "UseAfterMove"
	case ViolationUseAfterDrop:
		return "UseAfterDrop"
	case ViolationConflictingBorrow:
		return "ConflictingBorrow"
	case ViolationDanglingReference:
		return "DanglingReference"
	}
	return "Invalid"
}

// Violation records one broken rule: the offending point and the earlier
// event it conflicts with. Binding identifies the value involved; Ref and
// Other carry the references participating in borrow conflicts.
type Violation struct {
	Kind    ViolationKind
	Point   prog.Point // the point that introduces the violation
	Prior   prog.Point // the conflicting earlier event
	Binding prog.BindingID
	Ref     prog.RefID
	Other   prog.RefID
}

// recorder accumulates violations in detection order. Detection order is
// deterministic (a function of the instruction sequence alone), which keeps
// repeated runs byte-identical.
type recorder struct {
	list []Violation
}

func (r *recorder) add(v Violation) {
	r.list = append(r.list, v)
}
