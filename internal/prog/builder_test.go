package prog

import (
	"errors"
	"strings"
	"testing"
)

func mustBuild(t *testing.T, b *Builder) *Program {
	t.Helper()
	p, err := b.Program()
	if err != nil {
		t.Fatalf("unexpected builder error: %v", err)
	}
	return p
}

func wantMalformed(t *testing.T, b *Builder, fragment string) {
	t.Helper()
	_, err := b.Program()
	if err == nil {
		t.Fatal("expected MalformedProgramError, got none")
	}
	var malformed *MalformedProgramError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedProgramError, got %T: %v", err, err)
	}
	if fragment != "" && !strings.Contains(malformed.Reason, fragment) {
		t.Fatalf("error %q does not mention %q", malformed.Reason, fragment)
	}
}

func TestBuilderAppendsRootScopeEnd(t *testing.T) {
	b := NewBuilder("main")
	b.Bind("x", TagMoveOnly)
	p := mustBuild(t, b)

	if p.Len() != 2 {
		t.Fatalf("expected bind + implicit root scope end, got %d instructions", p.Len())
	}
	last := p.Instr(Point(p.Len()))
	if last.Op != OpScopeEnd || last.Scope != p.RootScope() {
		t.Fatalf("expected trailing scope_end for root, got %+v", last)
	}
}

func TestBuilderImplicitMoveDestination(t *testing.T) {
	b := NewBuilder("main")
	b.Bind("x", TagMoveOnly)
	b.Move("x", "y")
	p := mustBuild(t, b)

	bindings := p.Bindings()
	if len(bindings) != 2 {
		t.Fatalf("expected x and implicit y, got %d bindings", len(bindings))
	}
	y := bindings[1]
	if y.Name != "y" || y.Decl != 2 || y.Scope != p.RootScope() {
		t.Fatalf("unexpected implicit destination %+v", y)
	}
	if y.Tag != TagMoveOnly {
		t.Fatal("destination must inherit the source tag")
	}
}

func TestBuilderScopeTreeAndPoints(t *testing.T) {
	b := NewBuilder("main")
	inner := b.ScopeBegin("inner") // 1
	b.Bind("x", TagMoveOnly)       // 2
	b.ScopeEnd()                   // 3
	p := mustBuild(t, b)           // 4 = root scope end

	s := p.Scope(inner)
	if s == nil || s.Label != "inner" {
		t.Fatalf("missing inner scope: %+v", s)
	}
	if s.Parent != p.RootScope() {
		t.Fatalf("inner scope must nest under root, got parent %d", s.Parent)
	}
	if s.Begin != 1 || s.End != 3 {
		t.Fatalf("expected inner scope [1,3], got [%d,%d]", s.Begin, s.End)
	}
}

func TestBuilderUseOfUndeclaredID(t *testing.T) {
	b := NewBuilder("main")
	b.Use("ghost")
	wantMalformed(t, b, "undeclared")
}

func TestBuilderUseOutOfScope(t *testing.T) {
	b := NewBuilder("main")
	b.ScopeBegin("inner")
	b.Bind("x", TagMoveOnly)
	b.ScopeEnd()
	b.Use("x")
	wantMalformed(t, b, "undeclared")
}

func TestBuilderDuplicateID(t *testing.T) {
	b := NewBuilder("main")
	b.Bind("x", TagMoveOnly)
	b.Bind("x", TagMoveOnly)
	wantMalformed(t, b, "duplicate")
}

func TestBuilderCopyOfMoveOnly(t *testing.T) {
	b := NewBuilder("main")
	b.Bind("x", TagMoveOnly)
	b.Copy("x", "y")
	wantMalformed(t, b, "move-only")
}

func TestBuilderUnbalancedScopeEnd(t *testing.T) {
	b := NewBuilder("main")
	b.ScopeEnd()
	wantMalformed(t, b, "scope_end without matching")
}

func TestBuilderUnclosedScope(t *testing.T) {
	b := NewBuilder("main")
	b.ScopeBegin("inner")
	wantMalformed(t, b, "unclosed")
}

func TestBuilderBorrowOfReference(t *testing.T) {
	b := NewBuilder("main")
	b.Bind("x", TagMoveOnly)
	b.BorrowShared("x", "r")
	b.BorrowShared("r", "s")
	wantMalformed(t, b, "binding required")
}

func TestBuilderBorrowIntoUnknownScope(t *testing.T) {
	b := NewBuilder("main")
	b.Bind("x", TagMoveOnly)
	b.BorrowSharedIn("x", "r", "nowhere")
	wantMalformed(t, b, "unknown enclosing scope")
}

func TestBuilderMoveIntoItself(t *testing.T) {
	b := NewBuilder("main")
	b.Bind("x", TagMoveOnly)
	b.Move("x", "x")
	wantMalformed(t, b, "into itself")
}

func TestBuilderStickyError(t *testing.T) {
	b := NewBuilder("main")
	b.Use("ghost")
	before := b.Err()
	b.Bind("x", TagMoveOnly) // ignored after failure
	if b.Err() != before {
		t.Fatal("first error must stick")
	}
	if _, err := b.Program(); err != before {
		t.Fatal("Program must return the first recorded error")
	}
}

func TestBuilderErrorMentionsPoint(t *testing.T) {
	b := NewBuilder("main")
	b.Bind("x", TagMoveOnly) // 1
	b.Use("ghost")           // would be 2
	_, err := b.Program()
	var malformed *MalformedProgramError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedProgramError, got %v", err)
	}
	if malformed.Fn != "main" || malformed.At != 2 {
		t.Fatalf("expected failure at instr 2 of main, got %+v", malformed)
	}
}

func TestProgramDescribe(t *testing.T) {
	b := NewBuilder("main")
	b.BindTyped("x", "String", TagMoveOnly)
	b.BorrowExclusive("x", "r")
	b.Move("x", "y")
	p := mustBuild(t, b)

	cases := map[Point]string{
		1: "bind x: String",
		2: "r = &mut x",
		3: "move x -> y",
		4: "}",
	}
	for at, want := range cases {
		if got := p.Describe(at); got != want {
			t.Errorf("Describe(%d) = %q, want %q", at, got, want)
		}
	}
}

func TestProgramRefsOfAndScopeBindings(t *testing.T) {
	b := NewBuilder("main")
	b.Bind("x", TagMoveOnly)
	b.Bind("y", TagMoveOnly)
	r1 := b.BorrowShared("x", "r1")
	b.BorrowShared("y", "q")
	r2 := b.BorrowExclusive("x", "r2")
	p := mustBuild(t, b)

	refs := p.RefsOf(p.Bindings()[0].ID)
	if len(refs) != 2 || refs[0] != r1 || refs[1] != r2 {
		t.Fatalf("unexpected refs of x: %v", refs)
	}
	ids := p.ScopeBindings(p.RootScope())
	if len(ids) != 2 {
		t.Fatalf("expected two root bindings, got %d", len(ids))
	}
}
