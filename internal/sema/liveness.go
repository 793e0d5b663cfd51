package sema

import (
	"ownck/internal/prog"
)

// Interval is the effective lifetime of a reference: the program-point range
// from its creation to its last use. This computed range, not the lexical
// scope, is what borrow conflicts are decided on.
type Interval struct {
	Start prog.Point
	End   prog.Point
}

// Contains reports whether the interval covers the point (inclusive).
func (iv Interval) Contains(p prog.Point) bool {
	return iv.Start <= p && p <= iv.End
}

// Overlaps reports whether two intervals share at least one program point.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start <= other.End && other.Start <= iv.End
}

// ZeroLength reports a reference that was never used after creation. Such a
// reference is live only at its creation point.
func (iv Interval) ZeroLength() bool {
	return iv.Start == iv.End
}

// Liveness holds last-use points computed for a program. For straight-line
// bodies a single backward scan suffices: the first use seen walking
// backwards is the last use in program order.
type Liveness struct {
	program  *prog.Program
	refLast  []prog.Point // indexed by RefID; NoPoint when never used
	bindLast []prog.Point // indexed by BindingID; direct uses only
}

// ComputeLiveness runs the backward pass over the instruction sequence.
func ComputeLiveness(p *prog.Program) *Liveness {
	lv := &Liveness{
		program:  p,
		refLast:  make([]prog.Point, len(p.Refs())+1),
		bindLast: make([]prog.Point, len(p.Bindings())+1),
	}
	for i := p.Len(); i >= 1; i-- {
		at := prog.Point(i)
		in := p.Instr(at)
		if in.Op != prog.OpUse {
			continue
		}
		switch {
		case in.Ref.IsValid():
			if lv.refLast[in.Ref] == prog.NoPoint {
				lv.refLast[in.Ref] = at
			}
		case in.Bind.IsValid():
			if lv.bindLast[in.Bind] == prog.NoPoint {
				lv.bindLast[in.Bind] = at
			}
		}
	}
	return lv
}

// RefInterval returns the effective lifetime of a reference. A never-used
// reference collapses to the zero-length interval at its creation point.
func (lv *Liveness) RefInterval(id prog.RefID) Interval {
	ref := lv.program.Ref(id)
	if ref == nil {
		return Interval{}
	}
	last := lv.refLast[id]
	if last == prog.NoPoint || last < ref.Decl {
		last = ref.Decl
	}
	return Interval{Start: ref.Decl, End: last}
}

// RefLastUse returns the last use point of a reference, NoPoint when it is
// never used after creation.
func (lv *Liveness) RefLastUse(id prog.RefID) prog.Point {
	if lv == nil || int(id) >= len(lv.refLast) {
		return prog.NoPoint
	}
	return lv.refLast[id]
}

// BindingLastUse returns the last direct use point of a binding, NoPoint when
// the binding is never used directly.
func (lv *Liveness) BindingLastUse(id prog.BindingID) prog.Point {
	if lv == nil || int(id) >= len(lv.bindLast) {
		return prog.NoPoint
	}
	return lv.bindLast[id]
}
