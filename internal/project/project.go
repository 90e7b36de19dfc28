// Package project reads naml.toml (§6.3) and computes the content
// digests §6.5's cache keys off, mirroring the teacher's own split
// between a manifest reader (cmd/surge's project_manifest.go) and a
// standalone hash helper (internal/project/hash.go) — kept together
// here since naml's manifest is a single flat table rather than surge's
// whole module-graph metadata.
package project

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is naml.toml decoded (§6.3): a `[package]` table plus a
// `[dependencies]` table whose entries are either `{ path = "..." }` or
// `{ git = "...", tag/branch/rev = "..." }`. The core consumes only the
// resolved dependency set named here; fetching/vendoring is out of
// scope (§6.3: "fetching and caching are outside scope").
type Manifest struct {
	Path string // absolute path to the naml.toml this was decoded from
	Root string // Path's containing directory

	Package      PackageMeta            `toml:"package"`
	Dependencies map[string]Dependency  `toml:"dependencies"`
}

// PackageMeta is naml.toml's `[package]` table.
type PackageMeta struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	Authors     []string `toml:"authors"`
	License     string `toml:"license"`
}

// Dependency is one `[dependencies.*]` entry. Exactly one of Path or Git
// is expected to be set; Tag/Branch/Rev only make sense alongside Git.
type Dependency struct {
	Path   string `toml:"path"`
	Git    string `toml:"git"`
	Tag    string `toml:"tag"`
	Branch string `toml:"branch"`
	Rev    string `toml:"rev"`
}

// errManifestNotFound is returned by Find when no naml.toml exists
// between startDir and the filesystem root.
var errManifestNotFound = errors.New("no naml.toml found")

// Find walks upward from startDir looking for naml.toml, the same
// nearest-ancestor search cmd/surge's findSurgeToml performs for
// surge.toml.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "naml.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errManifestNotFound
		}
		dir = parent
	}
}

// Load decodes the naml.toml at path and validates the fields §6.3
// requires ([package].name; dependency entries naming exactly one of
// path/git).
func Load(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("%s: parse TOML: %w", path, err)
	}
	if strings.TrimSpace(m.Package.Name) == "" {
		return nil, fmt.Errorf("%s: missing [package].name", path)
	}
	for name, dep := range m.Dependencies {
		hasPath := dep.Path != ""
		hasGit := dep.Git != ""
		if hasPath == hasGit {
			return nil, fmt.Errorf("%s: dependency %q must set exactly one of path or git", path, name)
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = abs
	m.Root = filepath.Dir(abs)
	return &m, nil
}

// FindAndLoad combines Find and Load, the common case for a CLI command
// invoked from somewhere inside a package's directory tree.
func FindAndLoad(startDir string) (*Manifest, error) {
	path, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Digest is a fixed 256-bit content hash, used as §6.5's cache key.
type Digest [32]byte

// IsZero reports whether d carries no hashed content.
func (d Digest) IsZero() bool {
	var z Digest
	return d == z
}

// String renders d as the hex digest internal/cache uses for file names.
func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:])
}

// HashSource computes §6.5's cache key: "a hash of the full source set +
// compiler version + target platform". Source texts are hashed in the
// order given, so the caller is responsible for a stable source_set
// ordering (path-sorted, by convention).
func HashSource(sources []string, compilerVersion, targetTriple string) Digest {
	h := sha256.New()
	h.Write([]byte(compilerVersion))
	h.Write([]byte{0})
	h.Write([]byte(targetTriple))
	h.Write([]byte{0})
	for _, s := range sources {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
