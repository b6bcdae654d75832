package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !IsRegularFile(path) {
		t.Fatalf("expected %s to be a regular file", path)
	}
	if IsRegularFile(dir) {
		t.Fatal("directory should not count as a regular file")
	}
	if IsRegularFile(filepath.Join(dir, "missing")) {
		t.Fatal("missing path should not count as a regular file")
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if IsRegularFile(src) {
		t.Fatal("source should be gone after move")
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestDigestStableAndSizeSensitive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(path, []byte("same head"), 0o644); err != nil {
		t.Fatal(err)
	}
	first, err := Digest(path)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	second, err := Digest(path)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if first != second {
		t.Fatal("digest should be stable for unchanged file")
	}

	if err := os.WriteFile(path, []byte("same head plus"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err := Digest(path)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if changed == first {
		t.Fatal("digest should change when content changes")
	}
}
