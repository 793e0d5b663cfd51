package diagfmt

import (
	"strings"
	"testing"

	"ownck/internal/prog"
	"ownck/internal/sema"
)

func checkedSample(t *testing.T) *sema.Result {
	t.Helper()
	b := prog.NewBuilder("main")
	b.Bind("x", prog.TagMoveOnly)
	b.Move("x", "y")
	b.Use("x")
	p, err := b.Program()
	if err != nil {
		t.Fatalf("program: %v", err)
	}
	return sema.Check(p, sema.Options{})
}

func TestPrettyPlain(t *testing.T) {
	res := checkedSample(t)
	var sb strings.Builder
	Pretty(&sb, res.Program.Fn(), res.Program, res.Bag(), PrettyOpts{WithNotes: true, Listing: true})
	out := sb.String()

	for _, want := range []string{
		"main:3: ERROR OWN3001: use of moved value \"x\"",
		"use x",
		"note: value moved here",
		"move x -> y",
		"^~~~",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("pretty output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain output must not contain ANSI escapes")
	}
}

func TestPrettyWithoutListing(t *testing.T) {
	res := checkedSample(t)
	var sb strings.Builder
	Pretty(&sb, res.Program.Fn(), res.Program, res.Bag(), PrettyOpts{})
	out := sb.String()
	if strings.Contains(out, "|") {
		t.Errorf("listing disabled but gutter rendered:\n%s", out)
	}
	if !strings.Contains(out, "OWN3001") {
		t.Errorf("header missing:\n%s", out)
	}
}

func TestFunctionOutputJSON(t *testing.T) {
	res := checkedSample(t)
	fn := FunctionOutput(res.Program.Fn(), res.Program, res.Bag(), JSONOpts{WithNotes: true})
	if fn.Valid {
		t.Fatal("sample has errors")
	}
	if fn.Count != 1 || len(fn.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %d", fn.Count)
	}
	d := fn.Diagnostics[0]
	if d.Code != "OWN3001" || d.Location.Point != 3 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Location.Instr != "use x" {
		t.Fatalf("expected rendered instruction, got %q", d.Location.Instr)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location.Point != 2 {
		t.Fatalf("note lost: %+v", d)
	}
}

func TestWriteJSONAggregates(t *testing.T) {
	res := checkedSample(t)
	fn := FunctionOutput(res.Program.Fn(), res.Program, res.Bag(), JSONOpts{})
	var sb strings.Builder
	if err := WriteJSON(&sb, []FunctionJSON{fn}, JSONOpts{Indent: true}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, `"valid": false`) {
		t.Errorf("root verdict missing:\n%s", out)
	}
	if !strings.Contains(out, `"count": 1`) {
		t.Errorf("count missing:\n%s", out)
	}
}
