package sema

import (
	"testing"

	"ownck/internal/diag"
	"ownck/internal/prog"
)

func TestBorrowSharedPairNeverConflicts(t *testing.T) {
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly)
	b.BorrowShared("x", "r1")
	b.BorrowShared("x", "r2")
	b.Use("r1")
	b.Use("r2")
	b.Use("r1")

	res := runCheck(t, b)
	if !res.Valid() {
		t.Fatalf("two overlapping shared borrows must be legal, got %v", diagCodes(res.Bag()))
	}
}

func TestBorrowSharedOverlappingExclusive(t *testing.T) {
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly) // 1
	b.BorrowShared("x", "r1")     // 2
	b.BorrowExclusive("x", "r2")  // 3
	b.Use("r1")                   // 4
	b.Use("r2")                   // 5

	res := runCheck(t, b)
	if got := len(res.Violations()); got != 1 {
		t.Fatalf("expected exactly one conflict, got %d: %v", got, res.Violations())
	}
	v := res.Violations()[0]
	if v.Kind != ViolationConflictingBorrow {
		t.Fatalf("expected ConflictingBorrow, got %v", v.Kind)
	}
	// Reported at the borrow that introduces the conflict, citing the earlier one.
	if v.Point != 3 || v.Prior != 2 {
		t.Fatalf("expected conflict at point 3 citing point 2, got point=%d prior=%d", v.Point, v.Prior)
	}
	if !hasCode(res.Bag(), diag.OwnBorrowConflict) {
		t.Fatalf("expected %v, got %v", diag.OwnBorrowConflict, diagCodes(res.Bag()))
	}
}

func TestBorrowDoubleExclusiveConflicts(t *testing.T) {
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly)
	b.BorrowExclusive("x", "a")
	b.BorrowExclusive("x", "b")
	b.Use("a")
	b.Use("b")

	res := runCheck(t, b)
	if got := len(res.Violations()); got != 1 {
		t.Fatalf("expected one conflict, got %d", got)
	}
	if res.Violations()[0].Kind != ViolationConflictingBorrow {
		t.Fatalf("expected ConflictingBorrow, got %v", res.Violations()[0].Kind)
	}
}

func TestBorrowNonLexicalShortening(t *testing.T) {
	// The exclusive borrow's last use precedes the shared borrow's creation;
	// both live in the same lexical scope yet there is no conflict.
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly) // 1
	b.BorrowExclusive("x", "m")   // 2
	b.Use("m")                    // 3
	b.BorrowShared("x", "s")      // 4
	b.Use("s")                    // 5

	res := runCheck(t, b)
	if !res.Valid() {
		t.Fatalf("expired exclusive borrow must not conflict, got %v", diagCodes(res.Bag()))
	}
}

func TestBorrowNeverUsedDoesNotBlock(t *testing.T) {
	// A reference that is never used has a zero-length interval: it cannot
	// block a later borrow.
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly)
	b.BorrowExclusive("x", "m") // never used
	b.BorrowExclusive("x", "n")
	b.Use("n")

	res := runCheck(t, b)
	if !res.Valid() {
		t.Fatalf("unused borrow must not block, got %v", diagCodes(res.Bag()))
	}
}

func TestBorrowMoveWhileBorrowed(t *testing.T) {
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly) // 1
	b.BorrowShared("x", "r")      // 2
	b.Move("x", "y")              // 3
	b.Use("r")                    // 4

	res := runCheck(t, b)
	if got := len(res.Violations()); got != 1 {
		t.Fatalf("expected one violation, got %d: %v", got, res.Violations())
	}
	v := res.Violations()[0]
	if v.Kind != ViolationConflictingBorrow {
		t.Fatalf("expected ConflictingBorrow for move-while-borrowed, got %v", v.Kind)
	}
	if v.Point != 3 || v.Prior != 2 {
		t.Fatalf("expected conflict at move point 3 citing borrow at 2, got point=%d prior=%d", v.Point, v.Prior)
	}
}

func TestBorrowMoveAfterBorrowExpired(t *testing.T) {
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly)
	b.BorrowExclusive("x", "r")
	b.Use("r")
	b.Move("x", "y")

	res := runCheck(t, b)
	if !res.Valid() {
		t.Fatalf("move after borrow expiry must be legal, got %v", diagCodes(res.Bag()))
	}
}

func TestBorrowOfMovedValue(t *testing.T) {
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly) // 1
	b.Move("x", "y")              // 2
	b.BorrowShared("x", "r")      // 3

	res := runCheck(t, b)
	if got := len(res.Violations()); got != 1 {
		t.Fatalf("expected one violation, got %d", got)
	}
	v := res.Violations()[0]
	if v.Kind != ViolationUseAfterMove || v.Point != 3 {
		t.Fatalf("expected UseAfterMove at the borrow point, got %+v", v)
	}
}

func TestBorrowDanglingAcrossScopeEnd(t *testing.T) {
	// let r; { bind x; r = &x; } use r: x is dropped at the inner scope end
	// while r is still used afterwards.
	b := prog.NewBuilder("main")
	b.ScopeBegin("inner")              // 1
	b.Bind("x", prog.TagMoveOnly)      // 2
	b.BorrowSharedIn("x", "r", "")     // 3, r declared in the root scope
	b.ScopeEnd()                       // 4, drops x
	b.Use("r")                         // 5

	res := runCheck(t, b)
	if got := len(res.Violations()); got != 1 {
		t.Fatalf("expected exactly one violation, got %d: %v", got, res.Violations())
	}
	v := res.Violations()[0]
	if v.Kind != ViolationDanglingReference {
		t.Fatalf("expected DanglingReference, got %v", v.Kind)
	}
	if v.Point != 5 || v.Prior != 4 {
		t.Fatalf("expected dangling use at point 5 citing drop at 4, got point=%d prior=%d", v.Point, v.Prior)
	}
	if !hasCode(res.Bag(), diag.OwnDanglingRef) {
		t.Fatalf("expected %v, got %v", diag.OwnDanglingRef, diagCodes(res.Bag()))
	}
}

func TestBorrowNoDanglingWhenUnusedAfterDrop(t *testing.T) {
	b := prog.NewBuilder("main")
	b.ScopeBegin("inner")
	b.Bind("x", prog.TagMoveOnly)
	b.BorrowSharedIn("x", "r", "")
	b.Use("r")
	b.ScopeEnd()
	// r is never used after x is dropped: no dangling reference.

	res := runCheck(t, b)
	if !res.Valid() {
		t.Fatalf("expected valid program, got %v", diagCodes(res.Bag()))
	}
}

func TestBorrowDanglingAfterExplicitDrop(t *testing.T) {
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly) // 1
	b.BorrowShared("x", "r")      // 2
	b.Drop("x")                   // 3
	b.Use("r")                    // 4

	res := runCheck(t, b)
	if got := len(res.Violations()); got != 1 {
		t.Fatalf("expected one violation, got %d: %v", got, res.Violations())
	}
	v := res.Violations()[0]
	if v.Kind != ViolationDanglingReference || v.Point != 4 || v.Prior != 3 {
		t.Fatalf("unexpected violation %+v", v)
	}
}
