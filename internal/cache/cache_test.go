package cache

import (
	"testing"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/project"
)

func openTest(t *testing.T) *Disk {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c, err := Open("namlc-test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func TestPutGet_RoundTrips(t *testing.T) {
	c := openTest(t)
	digest := project.HashSource([]string{"fn main() {}"}, "v1", "x86_64-linux-gnu")

	want := Payload{
		Digest:      [32]byte(digest),
		OK:          true,
		Diagnostics: []diag.Diagnostic{{Severity: diag.SevWarning, Code: diag.LexTokenTooLong, Message: "too long"}},
	}
	if err := c.Put(want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, hit := c.Get(digest)
	if !hit {
		t.Fatalf("expected a cache hit")
	}
	if got.OK != want.OK || len(got.Diagnostics) != len(want.Diagnostics) {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, want)
	}
	if got.Diagnostics[0].Code != diag.LexTokenTooLong {
		t.Fatalf("expected diagnostic code to survive the round trip, got %+v", got.Diagnostics[0])
	}
}

func TestGet_MissOnUnknownDigest(t *testing.T) {
	c := openTest(t)
	digest := project.HashSource([]string{"anything"}, "v1", "x86_64-linux-gnu")
	if _, hit := c.Get(digest); hit {
		t.Fatalf("expected a miss for a digest never put")
	}
}

func TestDropAll_RemovesEveryEntry(t *testing.T) {
	c := openTest(t)
	d1 := project.HashSource([]string{"a"}, "v1", "t")
	d2 := project.HashSource([]string{"b"}, "v1", "t")
	if err := c.Put(Payload{Digest: [32]byte(d1), OK: true}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(Payload{Digest: [32]byte(d2), OK: true}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, hit := c.Get(d1); hit {
		t.Fatalf("expected d1 to be dropped")
	}
	if _, hit := c.Get(d2); hit {
		t.Fatalf("expected d2 to be dropped")
	}
}
