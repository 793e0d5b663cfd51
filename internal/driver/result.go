package driver

import (
	"errors"

	"ownck/internal/diag"
	"ownck/internal/observ"
	"ownck/internal/prog"
	"ownck/internal/project"
	"ownck/internal/sema"
)

// FnResult is the verdict for one function body.
type FnResult struct {
	Name  string
	Valid bool
	Bag   *diag.Bag
	// Program and Sema are nil when the result was restored from the disk
	// cache; formatters fall back to header-only rendering then.
	Program *prog.Program
	Sema    *sema.Result
	Cached  bool
}

// FileResult groups the verdicts of every function body in one program file.
type FileResult struct {
	Path      string
	Digest    project.Digest
	Functions []FnResult
	// Err is set for load/decode failures; Functions is empty then.
	Err    error
	Timing *observ.Report
}

// Valid reports whether the file loaded and every body passed.
func (r *FileResult) Valid() bool {
	if r == nil || r.Err != nil {
		return false
	}
	for i := range r.Functions {
		if !r.Functions[i].Valid {
			return false
		}
	}
	return true
}

// ErrBag converts a file-level failure into a one-entry diagnostic bag so
// formatters can render structural errors alongside semantic ones.
func (r *FileResult) ErrBag() *diag.Bag {
	bag := diag.NewBag(1)
	if r == nil || r.Err == nil {
		return bag
	}
	code := diag.PrgLoadFailed
	var malformed *prog.MalformedProgramError
	if errors.As(r.Err, &malformed) {
		code = diag.PrgMalformed
	}
	bag.Add(diag.NewError(code, prog.NoPoint, r.Err.Error()))
	return bag
}

// Stage identifies a batch pipeline step for progress events.
type Stage uint8

const (
	StageLoad Stage = iota
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageLoad:
		return "load"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Event reports batch progress to an optional listener (the progress UI).
type Event struct {
	Path  string
	Stage Stage
	Err   error
	Valid bool
}
