package pathresolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_AsIs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(path, []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Errorf("got %q, want %q", got, path)
	}
}

func TestResolve_SearchDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.bin"), []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}

	other := t.TempDir()

	got, err := Resolve("a.bin", []string{other, dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, "a.bin")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, err := Resolve("missing.bin", []string{t.TempDir()})
	if err == nil {
		t.Fatal("expected an error")
	}
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
}
