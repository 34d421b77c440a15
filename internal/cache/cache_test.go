package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKey(t *testing.T) {
	a := Key([]byte("fn f() { 1 }"), "indent=2")
	if len(a) != 32 {
		t.Fatalf("expected 32 hex digits, got %q", a)
	}
	if a != Key([]byte("fn f() { 1 }"), "indent=2") {
		t.Error("expected a deterministic key")
	}
	if a == Key([]byte("fn f() { 1 }"), "indent=4") {
		t.Error("expected the fingerprint to change the key")
	}
	// The separator keeps source and fingerprint from running together.
	if Key([]byte("ab"), "c") == Key([]byte("a"), "bc") {
		t.Error("expected distinct keys for a shifted boundary")
	}
}

func TestPutGet(t *testing.T) {
	s := openStore(t)
	key := Key([]byte("src"), "fp")

	if _, ok, err := s.Get(key); ok || err != nil {
		t.Fatalf("expected a clean miss, got %v, %v", ok, err)
	}

	want := Entry{
		Output:   strings.Repeat("export function main(x) {\n  return x;\n}\n", 20),
		Warnings: []Warning{{Code: "W0302", Message: "pattern variable 'b' is never used", Line: 3, Column: 9, Hint: "rename it to '_b' to discard it"}},
	}
	if err := s.Put(key, want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(key)
	if err != nil || !ok {
		t.Fatalf("expected a hit, got %v, %v", ok, err)
	}
	if got.Output != want.Output || len(got.Warnings) != 1 || got.Warnings[0] != want.Warnings[0] {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Version != FormatVersion {
		t.Errorf("expected version %d, got %d", FormatVersion, got.Version)
	}

	info, err := os.Stat(s.path(key))
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() >= int64(len(want.Output)) {
		t.Errorf("expected compressed entry, %d bytes for %d of output", info.Size(), len(want.Output))
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	s := openStore(t)
	key := Key([]byte("src"), "fp")
	if err := s.Put(key, Entry{Output: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.path(key), []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, ok, err := s.Get(key)
	if ok || err == nil {
		t.Errorf("expected a miss with an error, got %v, %v", ok, err)
	}
}

func TestOverwriteAndConcurrentPut(t *testing.T) {
	s := openStore(t)
	key := Key([]byte("src"), "fp")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Put(key, Entry{Output: "same"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, ok, err := s.Get(key)
	if err != nil || !ok || got.Output != "same" {
		t.Fatalf("unexpected entry %+v, %v, %v", got, ok, err)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(s.path(key)), ".tmp-*"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestInvalidKey(t *testing.T) {
	s := openStore(t)
	if _, _, err := s.Get("a"); err == nil {
		t.Error("expected error for a short key")
	}
	if err := s.Put("", Entry{}); err == nil {
		t.Error("expected error for an empty key")
	}
}
