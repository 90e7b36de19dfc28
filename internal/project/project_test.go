package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "naml.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoad_DecodesPackageAndDependencies(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[package]
name = "hello"
version = "0.1.0"
authors = ["dev"]

[dependencies]
utils = { path = "../utils" }
net = { git = "https://example.com/net.git", tag = "v1.0.0" }
`)
	m, err := Load(filepath.Join(dir, "naml.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Package.Name != "hello" {
		t.Errorf("expected package name %q, got %q", "hello", m.Package.Name)
	}
	if len(m.Dependencies) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(m.Dependencies))
	}
	if m.Dependencies["utils"].Path != "../utils" {
		t.Errorf("expected utils dependency to carry its path, got %+v", m.Dependencies["utils"])
	}
	if m.Dependencies["net"].Tag != "v1.0.0" {
		t.Errorf("expected net dependency to carry its tag, got %+v", m.Dependencies["net"])
	}
}

func TestLoad_RejectsMissingPackageName(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[package]
version = "0.1.0"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a manifest with no [package].name")
	}
}

func TestLoad_RejectsDependencyWithBothPathAndGit(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[package]
name = "hello"

[dependencies]
bad = { path = "../x", git = "https://example.com/x.git" }
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a dependency naming both path and git")
	}
}

func TestFind_WalksUpToAncestorDirectory(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[package]
name = "hello"
`)
	nested := filepath.Join(root, "src", "sub")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := filepath.Join(root, "naml.toml")
	if found != want {
		t.Errorf("expected %q, got %q", want, found)
	}
}

func TestFind_ErrorsWhenNoManifestExists(t *testing.T) {
	dir := t.TempDir()
	if _, err := Find(dir); err == nil {
		t.Fatalf("expected an error when no naml.toml exists above dir")
	}
}

func TestHashSource_IsDeterministicAndOrderSensitive(t *testing.T) {
	a := HashSource([]string{"fn main() {}"}, "v1", "x86_64-linux-gnu")
	b := HashSource([]string{"fn main() {}"}, "v1", "x86_64-linux-gnu")
	if a != b {
		t.Errorf("expected identical inputs to hash identically")
	}
	c := HashSource([]string{"fn main() {}"}, "v2", "x86_64-linux-gnu")
	if a == c {
		t.Errorf("expected a different compiler version to change the digest")
	}
	d := HashSource([]string{"a", "b"}, "v1", "x86_64-linux-gnu")
	e := HashSource([]string{"b", "a"}, "v1", "x86_64-linux-gnu")
	if d == e {
		t.Errorf("expected source order to affect the digest")
	}
}

func TestDigest_IsZero(t *testing.T) {
	var d Digest
	if !d.IsZero() {
		t.Errorf("expected a zero-value Digest to report IsZero")
	}
	nonZero := HashSource([]string{"x"}, "v1", "t")
	if nonZero.IsZero() {
		t.Errorf("expected a computed digest not to report IsZero")
	}
}
