package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"ownck/internal/diag"
	"ownck/internal/prog"
	"ownck/internal/project"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores per-file check verdicts keyed by content digest.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedNote is the serializable shape of a diagnostic note.
type CachedNote struct {
	Point uint32
	Msg   string
}

// CachedDiag is the serializable shape of one diagnostic.
type CachedDiag struct {
	Severity uint8
	Code     uint16
	Point    uint32
	Msg      string
	Notes    []CachedNote
}

// CachedFn is one function verdict inside a cached payload.
type CachedFn struct {
	Name  string
	Valid bool
	Diags []CachedDiag
}

// DiskPayload stores the full verdict of one program file for fast rechecks.
// Programs themselves are not cached; restored results render header-only.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path           string
	MaxDiagnostics int
	Functions      []CachedFn
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// Subdirectory keeps the cache root easy to inspect and clear.
	return filepath.Join(c.dir, "checks", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err = os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("failed to remove temp file: %v", err)
		}
	}()

	enc := msgpack.NewEncoder(f)
	err = enc.Encode(payload)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// resultToDiskPayload converts a checked FileResult to its cacheable shape.
// Files that failed to load are never cached.
func resultToDiskPayload(res *FileResult, maxDiag int) *DiskPayload {
	if res == nil || res.Err != nil {
		return nil
	}
	payload := &DiskPayload{
		Schema:         diskCacheSchemaVersion,
		Path:           res.Path,
		MaxDiagnostics: maxDiag,
		Functions:      make([]CachedFn, len(res.Functions)),
	}
	for i := range res.Functions {
		fn := &res.Functions[i]
		cf := CachedFn{Name: fn.Name, Valid: fn.Valid}
		for _, d := range fn.Bag.Items() {
			cd := CachedDiag{
				Severity: uint8(d.Severity),
				Code:     uint16(d.Code),
				Point:    uint32(d.Primary),
				Msg:      d.Message,
			}
			for _, n := range d.Notes {
				cd.Notes = append(cd.Notes, CachedNote{Point: uint32(n.Point), Msg: n.Msg})
			}
			cf.Diags = append(cf.Diags, cd)
		}
		payload.Functions[i] = cf
	}
	return payload
}

// diskPayloadToResult restores a FileResult from its cached shape.
// Returns nil when the payload is from another schema or settings.
func diskPayloadToResult(payload *DiskPayload, path string, maxDiag int) *FileResult {
	if payload == nil || payload.Schema != diskCacheSchemaVersion || payload.MaxDiagnostics != maxDiag {
		return nil
	}
	res := &FileResult{
		Path:      path,
		Functions: make([]FnResult, len(payload.Functions)),
	}
	for i, cf := range payload.Functions {
		bag := diag.NewBag(maxDiag)
		for _, cd := range cf.Diags {
			d := diag.Diagnostic{
				Severity: diag.Severity(cd.Severity),
				Code:     diag.Code(cd.Code),
				Message:  cd.Msg,
				Primary:  prog.Point(cd.Point),
			}
			for _, n := range cd.Notes {
				d.Notes = append(d.Notes, diag.Note{Point: prog.Point(n.Point), Msg: n.Msg})
			}
			bag.Add(d)
		}
		res.Functions[i] = FnResult{
			Name:   cf.Name,
			Valid:  cf.Valid,
			Bag:    bag,
			Cached: true,
		}
	}
	return res
}
