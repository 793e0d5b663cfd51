package driver

import (
	"fmt"
	"os"

	"ownck/internal/observ"
	"ownck/internal/prog"
	"ownck/internal/project"
	"ownck/internal/sema"
)

// CheckFileOptions configure a single-file check.
type CheckFileOptions struct {
	MaxDiagnostics int
	EnableTimings  bool
}

// CheckFile loads one program file and verifies every function body in it.
// Load and decode failures land in FileResult.Err; rule violations land in
// the per-function bags.
func CheckFile(path string, maxDiagnostics int) *FileResult {
	return CheckFileWithOptions(path, CheckFileOptions{MaxDiagnostics: maxDiagnostics})
}

// CheckFileWithOptions is CheckFile with timing collection.
func CheckFileWithOptions(path string, opts CheckFileOptions) *FileResult {
	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	begin := func(name string) int {
		if timer == nil {
			return -1
		}
		return timer.Begin(name)
	}
	end := func(idx int, note string) {
		if timer == nil || idx < 0 {
			return
		}
		timer.End(idx, note)
	}

	loadIdx := begin("load_file")
	data, err := os.ReadFile(path)
	end(loadIdx, "")
	if err != nil {
		return &FileResult{Path: path, Err: fmt.Errorf("load %s: %w", path, err)}
	}
	return checkData(path, data, timer, opts.MaxDiagnostics)
}

// checkData decodes and verifies an already-loaded program file.
func checkData(path string, data []byte, timer *observ.Timer, maxDiagnostics int) *FileResult {
	begin := func(name string) int {
		if timer == nil {
			return -1
		}
		return timer.Begin(name)
	}
	end := func(idx int, note string) {
		if timer == nil || idx < 0 {
			return
		}
		timer.End(idx, note)
	}

	res := &FileResult{Path: path, Digest: project.HashBytes(data)}

	decodeIdx := begin("decode")
	file, err := prog.DecodeBytes(data)
	decodeNote := ""
	if timer != nil && file != nil {
		decodeNote = fmt.Sprintf("fns=%d", len(file.Functions))
	}
	end(decodeIdx, decodeNote)
	if err != nil {
		res.Err = err
		return res
	}

	checkIdx := begin("check")
	res.Functions = make([]FnResult, len(file.Functions))
	total := 0
	for i, p := range file.Functions {
		sres := sema.Check(p, sema.Options{MaxDiagnostics: maxDiagnostics})
		total += sres.Bag().Len()
		res.Functions[i] = FnResult{
			Name:    p.Fn(),
			Valid:   sres.Valid(),
			Bag:     sres.Bag(),
			Program: p,
			Sema:    sres,
		}
	}
	checkNote := ""
	if timer != nil {
		checkNote = fmt.Sprintf("diags=%d", total)
	}
	end(checkIdx, checkNote)

	if timer != nil {
		report := timer.Report()
		res.Timing = &report
	}
	return res
}
