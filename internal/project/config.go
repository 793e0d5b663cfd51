package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the per-project configuration file looked up from the
// start directory towards the filesystem root.
const ManifestName = "ownck.toml"

// Manifest is a loaded project configuration together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the ownck.toml layout.
type Config struct {
	Package PackageConfig `toml:"package"`
	Check   CheckConfig   `toml:"check"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type CheckConfig struct {
	// MaxDiagnostics caps diagnostics per function body. Zero keeps the
	// CLI default.
	MaxDiagnostics int `toml:"max_diagnostics"`
	// Jobs limits batch parallelism, zero means one worker per CPU.
	Jobs int `toml:"jobs"`
	// Format selects the default output format (pretty|json|short).
	Format string `toml:"format"`
	// Cache toggles the on-disk result cache.
	Cache bool `toml:"cache"`
}

// Find walks up from startDir looking for the manifest file.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and decodes the project manifest. The boolean is false when no
// manifest exists, which is not an error: the CLI falls back to defaults.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, false, err
	}
	var cfg Config
	if _, err := toml.DecodeFile(manifestPath, &cfg); err != nil {
		return nil, true, fmt.Errorf("failed to parse %s: %w", manifestPath, err)
	}
	if cfg.Check.Format != "" {
		switch cfg.Check.Format {
		case "pretty", "json", "short":
		default:
			return nil, true, fmt.Errorf("%s: unknown check.format %q", manifestPath, cfg.Check.Format)
		}
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}
