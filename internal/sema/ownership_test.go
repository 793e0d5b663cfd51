package sema

import (
	"testing"

	"ownck/internal/prog"
)

func TestOwnershipCopyKeepsSourceLive(t *testing.T) {
	b := prog.NewBuilder("main")
	b.Bind("n", prog.TagTriviallyCopyable)
	b.Copy("n", "m")
	b.Use("n")
	b.Use("m")

	res := runCheck(t, b)
	if !res.Valid() {
		t.Fatalf("copy must not invalidate the source, got %v", diagCodes(res.Bag()))
	}
}

func TestOwnershipMoveOfCopyableDuplicates(t *testing.T) {
	// A trivially-copyable source never transitions to moved, even through a
	// move instruction.
	b := prog.NewBuilder("main")
	n := b.Bind("n", prog.TagTriviallyCopyable)
	b.Move("n", "m")
	b.Use("n")

	res := runCheck(t, b)
	if !res.Valid() {
		t.Fatalf("expected valid program, got %v", diagCodes(res.Bag()))
	}
	if got := res.BindingState(n); got == StateMoved {
		t.Fatal("copyable binding must never be in the moved state")
	}
}

func TestOwnershipDoubleMove(t *testing.T) {
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly) // 1
	b.Move("x", "y")              // 2
	b.Move("x", "z")              // 3

	res := runCheck(t, b)
	if got := len(res.Violations()); got != 1 {
		t.Fatalf("expected one violation, got %d", got)
	}
	v := res.Violations()[0]
	if v.Kind != ViolationUseAfterMove || v.Point != 3 || v.Prior != 2 {
		t.Fatalf("unexpected violation %+v", v)
	}
}

func TestOwnershipCopyOfDroppedValue(t *testing.T) {
	b := prog.NewBuilder("main")
	b.Bind("n", prog.TagTriviallyCopyable) // 1
	b.Drop("n")                            // 2
	b.Copy("n", "m")                       // 3

	res := runCheck(t, b)
	if got := len(res.Violations()); got != 1 {
		t.Fatalf("expected one violation, got %d", got)
	}
	v := res.Violations()[0]
	if v.Kind != ViolationUseAfterDrop || v.Point != 3 || v.Prior != 2 {
		t.Fatalf("unexpected violation %+v", v)
	}
}

func TestOwnershipScopeEndDropsInnerBindings(t *testing.T) {
	b := prog.NewBuilder("main")
	b.ScopeBegin("inner")              // 1
	x := b.Bind("x", prog.TagMoveOnly) // 2
	b.ScopeEnd()                       // 3

	res := runCheck(t, b)
	if !res.Valid() {
		t.Fatalf("expected valid program, got %v", diagCodes(res.Bag()))
	}
	if got := res.BindingState(x); got != StateDropped {
		t.Fatalf("expected x dropped at scope end, got %v", got)
	}
}

func TestOwnershipMovedValueNotDroppedAtScopeEnd(t *testing.T) {
	// Ownership left the scope before its end; only the destination is torn
	// down.
	b := prog.NewBuilder("main")
	b.ScopeBegin("inner")
	x := b.Bind("x", prog.TagMoveOnly)
	b.Move("x", "y")
	b.ScopeEnd()

	res := runCheck(t, b)
	if !res.Valid() {
		t.Fatalf("expected valid program, got %v", diagCodes(res.Bag()))
	}
	if got := res.BindingState(x); got != StateMoved {
		t.Fatalf("moved binding must stay moved across scope end, got %v", got)
	}
}

func TestOwnershipExplicitDropThenScopeEnd(t *testing.T) {
	// The explicit drop wins; the scope end must not double-drop.
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly)
	b.Drop("x")

	res := runCheck(t, b)
	if !res.Valid() {
		t.Fatalf("expected valid program, got %v", diagCodes(res.Bag()))
	}
}
