package sema

import (
	"ownck/internal/prog"
)

// borrowChecker enforces exclusivity between overlapping borrow intervals,
// forbids moving a value out from under a live borrow, and catches references
// that outlive their target. It consumes the liveness intervals, so borrows
// expire at their last use rather than at the end of their lexical scope.
type borrowChecker struct {
	program  *prog.Program
	liveness *Liveness
	track    *tracker
	rec      *recorder
}

func newBorrowChecker(p *prog.Program, lv *Liveness, track *tracker, rec *recorder) *borrowChecker {
	return &borrowChecker{program: p, liveness: lv, track: track, rec: rec}
}

func (bc *borrowChecker) run() {
	bc.checkPairs()
	bc.checkMoves()
	bc.checkDangling()
}

// checkPairs flags every pair of references to the same binding whose
// intervals overlap while at least one side is exclusive. The conflict is
// reported at the later creation point (the borrow that introduces it),
// citing the earlier borrow.
func (bc *borrowChecker) checkPairs() {
	for _, b := range bc.program.Bindings() {
		refs := bc.program.RefsOf(b.ID)
		if len(refs) < 2 {
			continue
		}
		for j := 1; j < len(refs); j++ {
			later := bc.program.Ref(refs[j])
			laterIv := bc.liveness.RefInterval(refs[j])
			for i := 0; i < j; i++ {
				earlier := bc.program.Ref(refs[i])
				if earlier.Kind != prog.RefExclusive && later.Kind != prog.RefExclusive {
					continue
				}
				if !bc.liveness.RefInterval(refs[i]).Overlaps(laterIv) {
					continue
				}
				bc.rec.add(Violation{
					Kind:    ViolationConflictingBorrow,
					Point:   later.Decl,
					Prior:   earlier.Decl,
					Binding: b.ID,
					Ref:     later.ID,
					Other:   earlier.ID,
				})
			}
		}
	}
}

// checkMoves flags moves whose source has a borrow still live at the move
// point.
func (bc *borrowChecker) checkMoves() {
	for i := 1; i <= bc.program.Len(); i++ {
		at := prog.Point(i)
		in := bc.program.Instr(at)
		if in.Op != prog.OpMove {
			continue
		}
		for _, id := range bc.program.RefsOf(in.Src) {
			if !bc.liveness.RefInterval(id).Contains(at) {
				continue
			}
			ref := bc.program.Ref(id)
			bc.rec.add(Violation{
				Kind:    ViolationConflictingBorrow,
				Point:   at,
				Prior:   ref.Decl,
				Binding: in.Src,
				Ref:     id,
			})
		}
	}
}

// checkDangling flags references used after their target's value was dropped.
// A reference that is never used cannot dangle: its interval collapses to the
// creation point, where the target was necessarily still live.
func (bc *borrowChecker) checkDangling() {
	for _, ref := range bc.program.Refs() {
		last := bc.liveness.RefLastUse(ref.ID)
		if !last.IsValid() {
			continue
		}
		for _, dropAt := range bc.track.dropPoints(ref.Target) {
			if dropAt < ref.Decl || last <= dropAt {
				continue
			}
			bc.rec.add(Violation{
				Kind:    ViolationDanglingReference,
				Point:   last,
				Prior:   dropAt,
				Binding: ref.Target,
				Ref:     ref.ID,
			})
			break
		}
	}
}
