package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"ownck/internal/observ"
	"ownck/internal/project"
)

// ProgramFileSuffix is the extension batch mode picks up when walking a
// directory tree.
const ProgramFileSuffix = ".own.json"

// Options configure a batch check over a directory.
type Options struct {
	// Jobs limits concurrent file checks. Zero or negative means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// Cache, when non-nil, short-circuits files whose content digest already
	// has a stored verdict.
	Cache *DiskCache
	// Events receives progress notifications when non-nil. The channel is
	// never closed by the driver.
	Events chan<- Event
	// EnableTimings collects per-file phase timings.
	EnableTimings bool
}

// ListProgramFiles returns a sorted list of all program files under dir.
// The progress UI uses it to pre-populate its file table.
func ListProgramFiles(dir string) ([]string, error) {
	return listProgramFiles(dir)
}

// listProgramFiles returns a sorted list of all program files under dir.
func listProgramFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ProgramFileSuffix) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Sort for deterministic order
	sort.Strings(files)
	return files, nil
}

// CheckDir verifies every program file under dir in parallel.
// Results come back in sorted path order regardless of completion order.
func CheckDir(ctx context.Context, dir string, opts Options) ([]FileResult, error) {
	files, err := listProgramFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Results are written by index, one goroutine each, so no mutex is needed.
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func(i int, path string) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				emit(gctx, opts.Events, Event{Path: path, Stage: StageLoad})
				results[i] = *checkOne(path, opts)
				res := &results[i]
				emit(gctx, opts.Events, Event{
					Path:  path,
					Stage: StageDone,
					Err:   res.Err,
					Valid: res.Valid(),
				})
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// checkOne runs a single file through the cache-or-check path.
func checkOne(path string, opts Options) *FileResult {
	if opts.Cache == nil {
		return CheckFileWithOptions(path, CheckFileOptions{
			MaxDiagnostics: opts.MaxDiagnostics,
			EnableTimings:  opts.EnableTimings,
		})
	}

	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}

	var loadIdx int
	if timer != nil {
		loadIdx = timer.Begin("load_file")
	}
	data, err := os.ReadFile(path)
	if timer != nil {
		timer.End(loadIdx, "")
	}
	if err != nil {
		return &FileResult{Path: path, Err: fmt.Errorf("load %s: %w", path, err)}
	}

	key := cacheKey(project.HashBytes(data))
	var payload DiskPayload
	// Cache errors fall through to a full recheck; a broken cache never
	// fails the check itself.
	if hit, err := opts.Cache.Get(key, &payload); err == nil && hit {
		if res := diskPayloadToResult(&payload, path, opts.MaxDiagnostics); res != nil {
			res.Digest = project.HashBytes(data)
			if timer != nil {
				report := timer.Report()
				res.Timing = &report
			}
			return res
		}
	}

	res := checkData(path, data, timer, opts.MaxDiagnostics)
	if res.Err == nil {
		_ = opts.Cache.Put(key, resultToDiskPayload(res, opts.MaxDiagnostics))
	}
	return res
}

// cacheKey folds the schema version into the digest so schema bumps miss
// cleanly instead of decoding stale payloads.
func cacheKey(content project.Digest) project.Digest {
	var schema project.Digest
	schema[0] = byte(diskCacheSchemaVersion >> 8)
	schema[1] = byte(diskCacheSchemaVersion)
	return project.Combine(content, schema)
}

func emit(ctx context.Context, ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}
