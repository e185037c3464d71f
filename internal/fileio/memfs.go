package fileio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sync"
	"time"
)

// ErrInjected is returned by MemFS reads that hit a range marked with FailReads.
var ErrInjected = errors.New("injected read failure")

// MemFS is an in-memory FS for tests. It can inject read failures over
// byte ranges and counts ReadAt calls per path.
type MemFS struct {
	mu       sync.Mutex
	files    map[string]*memNode
	readOnly map[string]bool
	tempSeq  int
	now      time.Time
}

type memNode struct {
	data    []byte
	modTime time.Time
	mode    os.FileMode
	fail    [][2]int64
	reads   int
}

// NewMemFS returns an empty MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		files:    make(map[string]*memNode),
		readOnly: make(map[string]bool),
		now:      time.Unix(1700000000, 0),
	}
}

// WriteFile creates or replaces a file.
func (m *MemFS) WriteFile(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(time.Second)
	m.files[name] = &memNode{data: append([]byte(nil), data...), modTime: m.now, mode: 0o644}
}

// ReadFile returns a copy of a file's contents.
func (m *MemFS) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), n.data...), nil
}

// SetReadOnly marks a file as not writable.
func (m *MemFS) SetReadOnly(name string, ro bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readOnly[name] = ro
}

// FailReads makes reads of name that overlap [off, off+n) fail.
func (m *MemFS) FailReads(name string, off, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if node, ok := m.files[name]; ok {
		node.fail = append(node.fail, [2]int64{off, off + n})
	}
}

// Reads returns how many ReadAt calls reached the file.
func (m *MemFS) Reads(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if node, ok := m.files[name]; ok {
		return node.reads
	}
	return 0
}

func (m *MemFS) lookup(op, name string) (*memNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return n, nil
}

func (m *MemFS) Open(name string) (File, error) {
	n, err := m.lookup("open", name)
	if err != nil {
		return nil, err
	}
	return &memFile{fs: m, node: n, name: name, readOnly: true}, nil
}

func (m *MemFS) OpenWritable(name string) (File, error) {
	n, err := m.lookup("open", name)
	if err != nil {
		return nil, err
	}
	if !m.Writable(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return &memFile{fs: m, node: n, name: name}, nil
}

func (m *MemFS) CreateTemp(dir, pattern string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tempSeq++
	name := path.Join(dir, fmt.Sprintf("%s%d", pattern, m.tempSeq))
	m.now = m.now.Add(time.Second)
	n := &memNode{modTime: m.now, mode: 0o600}
	m.files[name] = n
	return &memFile{fs: m, node: n, name: name}, nil
}

func (m *MemFS) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.files[oldPath]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldPath, Err: fs.ErrNotExist}
	}
	delete(m.files, oldPath)
	m.files[newPath] = n
	return nil
}

func (m *MemFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, name)
	return nil
}

func (m *MemFS) Stat(name string) (Info, error) {
	n, err := m.lookup("stat", name)
	if err != nil {
		return Info{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Info{Size: int64(len(n.data)), ModTime: n.modTime, Mode: n.mode}, nil
}

func (m *MemFS) Chmod(name string, mode os.FileMode) error {
	n, err := m.lookup("chmod", name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n.mode = mode
	return nil
}

func (m *MemFS) Writable(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.readOnly[name]
}

type memFile struct {
	fs       *MemFS
	node     *memNode
	name     string
	readOnly bool
	closed   bool
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.closed {
		return 0, fs.ErrClosed
	}
	f.node.reads++
	for _, r := range f.node.fail {
		if off < r[1] && off+int64(len(p)) > r[0] {
			return 0, ErrInjected
		}
	}
	if off < 0 {
		return 0, fs.ErrInvalid
	}
	if off >= int64(len(f.node.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.node.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.readOnly {
		return 0, fs.ErrPermission
	}
	end := off + int64(len(p))
	if end > int64(len(f.node.data)) {
		grown := make([]byte, end)
		copy(grown, f.node.data)
		f.node.data = grown
	}
	copy(f.node.data[off:], p)
	f.fs.now = f.fs.now.Add(time.Second)
	f.node.modTime = f.fs.now
	return len(p), nil
}

func (f *memFile) Size() (int64, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	return int64(len(f.node.data)), nil
}

func (f *memFile) Truncate(size int64) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.readOnly {
		return fs.ErrPermission
	}
	if size <= int64(len(f.node.data)) {
		f.node.data = f.node.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, f.node.data)
	f.node.data = grown
	return nil
}

func (f *memFile) Sync() error { return nil }

func (f *memFile) Close() error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	f.closed = true
	return nil
}

func (f *memFile) Name() string { return f.name }
