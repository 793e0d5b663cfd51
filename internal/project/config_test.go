package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadFromParentDirectory(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[package]
name = "demo"

[check]
max_diagnostics = 25
jobs = 2
format = "json"
cache = true
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	m, ok, err := Load(nested)
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if m.Root != root {
		t.Fatalf("expected root %q, got %q", root, m.Root)
	}
	if m.Config.Package.Name != "demo" {
		t.Fatalf("unexpected package name %q", m.Config.Package.Name)
	}
	c := m.Config.Check
	if c.MaxDiagnostics != 25 || c.Jobs != 2 || c.Format != "json" || !c.Cache {
		t.Fatalf("unexpected check config %+v", c)
	}
}

func TestLoadMissingManifest(t *testing.T) {
	_, ok, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("missing manifest must not be an error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false without a manifest")
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[check]
format = "xml"
`)
	_, ok, err := Load(dir)
	if !ok || err == nil {
		t.Fatalf("expected format error, got ok=%v err=%v", ok, err)
	}
}

func TestHashCombineDeterministic(t *testing.T) {
	a := HashBytes([]byte("alpha"))
	b := HashBytes([]byte("beta"))
	if Combine(a, b) != Combine(a, b) {
		t.Fatal("combine must be deterministic")
	}
	if Combine(a, b) == Combine(b, a) {
		t.Fatal("combine must be order-sensitive")
	}
}
