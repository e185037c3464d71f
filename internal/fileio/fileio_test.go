package fileio

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSReadWriteTruncate(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(name, []byte{1, 2, 3, 4, 5}, 0o644); err != nil {
		t.Fatal(err)
	}

	var fsys OS
	f, err := fsys.OpenWritable(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := f.WriteAt([]byte{0xFF}, 2); err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(4); err != nil {
		t.Fatal(err)
	}
	size, err := f.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != 4 {
		t.Errorf("expected size 4, got %d", size)
	}

	buf := make([]byte, 8)
	n, err := f.ReadAt(buf, 0)
	if err != io.EOF {
		t.Errorf("expected io.EOF on short read, got %v", err)
	}
	if n != 4 || buf[2] != 0xFF {
		t.Errorf("unexpected contents %v (n=%d)", buf[:n], n)
	}
	if !fsys.Writable(name) {
		t.Error("expected temp file to be writable")
	}
}

func TestOSOpenMissing(t *testing.T) {
	var fsys OS
	_, err := fsys.Open(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestMemFSFailReads(t *testing.T) {
	m := NewMemFS()
	m.WriteFile("a", []byte("0123456789"))
	m.FailReads("a", 4, 2)

	f, err := m.Open("a")
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	if _, err := f.ReadAt(buf, 0); err != nil {
		t.Fatalf("read before failing range: %v", err)
	}
	if _, err := f.ReadAt(buf, 3); !errors.Is(err, ErrInjected) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if got := m.Reads("a"); got != 2 {
		t.Errorf("expected 2 reads, got %d", got)
	}
}

func TestMemFSRenameReplacesTarget(t *testing.T) {
	m := NewMemFS()
	m.WriteFile("dir/target", []byte("old"))
	tmp, err := m.CreateTemp("dir", ".target-")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.WriteAt([]byte("new!"), 0); err != nil {
		t.Fatal(err)
	}
	tmp.Close()
	if err := m.Rename(tmp.Name(), "dir/target"); err != nil {
		t.Fatal(err)
	}
	got, err := m.ReadFile("dir/target")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new!" {
		t.Errorf("expected renamed contents, got %q", got)
	}
	if _, err := m.Stat(tmp.Name()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected temp file to be gone, got %v", err)
	}
}

func TestMemFSReadOnly(t *testing.T) {
	m := NewMemFS()
	m.WriteFile("ro", []byte{1})
	m.SetReadOnly("ro", true)
	if m.Writable("ro") {
		t.Fatal("expected read-only file")
	}
	if _, err := m.OpenWritable("ro"); !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}
