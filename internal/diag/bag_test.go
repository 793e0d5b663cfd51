package diag

import (
	"testing"

	"ownck/internal/prog"
)

func TestBagSortDeterministic(t *testing.T) {
	mk := func() *Bag {
		b := NewBag(10)
		b.Add(NewError(OwnUseAfterMove, 7, "late"))
		b.Add(NewError(OwnBorrowConflict, 3, "mid"))
		b.Add(New(SevWarning, OwnInfo, 3, "note"))
		b.Add(NewError(OwnUseAfterDrop, 1, "early"))
		b.Sort()
		return b
	}
	a, b := mk(), mk()
	if FormatShortDiagnostics(a.Items(), false) != FormatShortDiagnostics(b.Items(), false) {
		t.Fatal("sort must be deterministic")
	}
	items := a.Items()
	if items[0].Primary != 1 || items[len(items)-1].Primary != 7 {
		t.Fatalf("expected point order, got %v", FormatShortDiagnostics(items, false))
	}
	// At the same point, errors come before warnings.
	if items[1].Severity != SevError || items[2].Severity != SevWarning {
		t.Fatalf("expected severity tie-break, got %v then %v", items[1].Severity, items[2].Severity)
	}
}

func TestBagCap(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(OwnUseAfterMove, 1, "a")) {
		t.Fatal("first add must succeed")
	}
	if !b.Add(NewError(OwnUseAfterMove, 2, "b")) {
		t.Fatal("second add must succeed")
	}
	if b.Add(NewError(OwnUseAfterMove, 3, "c")) {
		t.Fatal("add beyond cap must be rejected")
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(OwnUseAfterMove, 4, "use of moved value \"x\""))
	b.Add(NewError(OwnUseAfterMove, 4, "use of moved value \"x\""))
	b.Add(NewError(OwnUseAfterMove, 5, "use of moved value \"x\""))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected 2 after dedup, got %d", b.Len())
	}
}

func TestBagMergeGrowsCap(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(OwnUseAfterMove, 1, "a"))
	other := NewBag(2)
	other.Add(NewError(OwnUseAfterDrop, 2, "b"))
	other.Add(NewError(OwnDanglingRef, 3, "c"))
	a.Merge(other)
	if a.Len() != 3 {
		t.Fatalf("expected 3 items after merge, got %d", a.Len())
	}
	if a.HasErrors() != true {
		t.Fatal("merged bag must report errors")
	}
}

func TestDedupReporterFilters(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	r.Report(OwnUseAfterMove, SevError, 2, "dup", nil)
	r.Report(OwnUseAfterMove, SevError, 2, "dup", nil)
	r.Report(OwnUseAfterMove, SevError, 2, "other", nil)
	if bag.Len() != 2 {
		t.Fatalf("expected 2 unique diagnostics, got %d", bag.Len())
	}
}

func TestReportBuilderEmitOnce(t *testing.T) {
	bag := NewBag(10)
	rb := ReportError(BagReporter{Bag: bag}, OwnBorrowConflict, 5, "conflict").
		WithNote(prog.Point(2), "earlier borrow created here")
	rb.Emit()
	rb.Emit()
	if bag.Len() != 1 {
		t.Fatalf("expected a single emission, got %d", bag.Len())
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || d.Notes[0].Point != 2 {
		t.Fatalf("note lost: %+v", d)
	}
}

func TestCodeIDs(t *testing.T) {
	cases := map[Code]string{
		PrgMalformed:      "PRG1001",
		OwnUseAfterMove:   "OWN3001",
		OwnUseAfterDrop:   "OWN3002",
		OwnBorrowConflict: "OWN3003",
		OwnDanglingRef:    "OWN3004",
		UnknownCode:       "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("Code(%d).ID() = %q, want %q", code, got, want)
		}
	}
}
