package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()

	// Arrange: matching files at two depths plus a decoy.
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("MkdirAll() returned unexpected error: %v", err)
	}
	for _, name := range []string{"b.hcl", "a.hcl", "notes.txt", filepath.Join("nested", "c.hcl")} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("WriteFile(%s) returned unexpected error: %v", name, err)
		}
	}

	// Act
	files, err := FindFilesByExtension(dir, ".hcl")

	// Assert
	if err != nil {
		t.Fatalf("FindFilesByExtension() returned unexpected error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "nested", "c.hcl"),
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("FindFilesByExtension() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindFilesByExtension_SingleFileRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.hcl")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile() returned unexpected error: %v", err)
	}

	files, err := FindFilesByExtension(path, ".hcl")

	if err != nil {
		t.Fatalf("FindFilesByExtension() returned unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{path}, files); diff != "" {
		t.Errorf("FindFilesByExtension() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindFilesByExtension_EmptyExtension(t *testing.T) {
	t.Parallel()

	_, err := FindFilesByExtension(t.TempDir(), "")

	if err == nil {
		t.Error("FindFilesByExtension() should reject an empty extension")
	}
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".hcl")

	if err == nil {
		t.Error("FindFilesByExtension() should fail for a nonexistent root")
	}
}
