package sema

import (
	"ownck/internal/prog"
)

// ValueState is the ownership state of a binding's value.
type ValueState uint8

const (
	StateInvalid ValueState = iota
	StateLive
	StateMoved
	StateDropped
)

func (s ValueState) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateMoved:
		return "moved"
	case StateDropped:
		return "dropped"
	}
	return "invalid"
}

// tracker walks the instruction sequence maintaining per-binding value
// states. Violations are recorded and the walk continues, so one pass
// surfaces every ownership error in the body.
type tracker struct {
	program *prog.Program
	states  []ValueState                    // indexed by BindingID
	eventAt []prog.Point                    // point of the current invalidating move/drop
	drops   map[prog.BindingID][]prog.Point // every drop event, in program order
	rec     *recorder
}

func newTracker(p *prog.Program, rec *recorder) *tracker {
	return &tracker{
		program: p,
		states:  make([]ValueState, len(p.Bindings())+1),
		eventAt: make([]prog.Point, len(p.Bindings())+1),
		drops:   make(map[prog.BindingID][]prog.Point),
		rec:     rec,
	}
}

func (t *tracker) run() {
	for i := 1; i <= t.program.Len(); i++ {
		at := prog.Point(i)
		in := t.program.Instr(at)
		switch in.Op {
		case prog.OpBind:
			t.revive(in.Bind)
		case prog.OpMove:
			t.move(at, in.Src, in.Dst)
		case prog.OpCopy:
			t.requireLive(at, in.Src)
			t.revive(in.Dst)
		case prog.OpUse:
			if in.Bind.IsValid() {
				t.requireLive(at, in.Bind)
			}
			// Reads through references are the borrow checker's domain.
		case prog.OpBorrowShared, prog.OpBorrowExclusive:
			t.requireLive(at, in.Bind)
		case prog.OpDrop:
			if t.requireLive(at, in.Bind) {
				t.invalidate(in.Bind, StateDropped, at)
			}
		case prog.OpScopeEnd:
			t.endScope(at, in.Scope)
		}
	}
}

func (t *tracker) move(at prog.Point, src, dst prog.BindingID) {
	if t.requireLive(at, src) {
		// Trivially copyable sources duplicate instead of transferring.
		if b := t.program.Binding(src); b == nil || b.Tag != prog.TagTriviallyCopyable {
			t.invalidate(src, StateMoved, at)
		}
	}
	t.revive(dst)
}

// revive marks a binding live: initial bind, or a rebind through a move/copy
// destination.
func (t *tracker) revive(id prog.BindingID) {
	t.states[id] = StateLive
	t.eventAt[id] = prog.NoPoint
}

// requireLive checks that the binding can be read, written, borrowed or
// dropped. On failure a violation citing the invalidating event is recorded
// and the state is left unchanged.
func (t *tracker) requireLive(at prog.Point, id prog.BindingID) bool {
	switch t.states[id] {
	case StateLive:
		return true
	case StateMoved:
		t.rec.add(Violation{
			Kind:    ViolationUseAfterMove,
			Point:   at,
			Prior:   t.eventAt[id],
			Binding: id,
		})
	case StateDropped:
		t.rec.add(Violation{
			Kind:    ViolationUseAfterDrop,
			Point:   at,
			Prior:   t.eventAt[id],
			Binding: id,
		})
	}
	return false
}

func (t *tracker) invalidate(id prog.BindingID, next ValueState, at prog.Point) {
	t.states[id] = next
	t.eventAt[id] = at
	if next == StateDropped {
		t.drops[id] = append(t.drops[id], at)
	}
}

// endScope drops every binding declared directly in the scope that is still
// live, last declared first, mirroring structured teardown order.
func (t *tracker) endScope(at prog.Point, scope prog.ScopeID) {
	ids := t.program.ScopeBindings(scope)
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		if t.states[id] == StateLive {
			t.invalidate(id, StateDropped, at)
		}
	}
}

// state returns the final ownership state of a binding after the walk.
func (t *tracker) state(id prog.BindingID) ValueState {
	if t == nil || int(id) >= len(t.states) {
		return StateInvalid
	}
	return t.states[id]
}

// dropPoints returns every point at which the binding's value was dropped.
// Usually at most one entry; rebinding through a move destination can produce
// more.
func (t *tracker) dropPoints(id prog.BindingID) []prog.Point {
	if t == nil {
		return nil
	}
	return t.drops[id]
}
