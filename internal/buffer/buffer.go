package buffer

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"lesbin/internal/fileio"
	"lesbin/internal/logger"
)

var (
	ErrNotFound   = errors.New("file not found")
	ErrUnreadable = errors.New("file not readable")
	ErrReadOnly   = errors.New("buffer is read-only")
	ErrNoFilename = errors.New("no filename set")
)

const saveChunk = 256 * 1024

// SaveMode selects how Save writes the file back.
type SaveMode int

const (
	// SaveAtomic writes a temp file next to the target and renames it over.
	SaveAtomic SaveMode = iota
	// SaveInPlace writes only the changed ranges when the length is unchanged,
	// and falls back to SaveAtomic otherwise.
	SaveInPlace
)

type Options struct {
	Source   SourceOptions
	ReadOnly bool
	SaveMode SaveMode
}

// Buffer is an open file plus the edits made to it this session.
type Buffer struct {
	fsys     fileio.FS
	filename string
	log      *EditLog
	readOnly bool
	isNew    bool
	opts     Options
	disk     fileio.Info
}

// New returns an empty, unnamed buffer.
func New(fsys fileio.FS) *Buffer {
	return &Buffer{
		fsys:  fsys,
		log:   NewEditLog(NewMemorySource(nil)),
		isNew: true,
	}
}

// Open opens filename through fsys. A missing file is ErrNotFound; a
// directory or a file that cannot be opened is ErrUnreadable.
func Open(fsys fileio.FS, filename string, opts Options) (*Buffer, error) {
	info, err := fsys.Stat(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if info.IsDir {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadable, filename)
	}

	src, err := openSource(fsys, filename, opts.Source)
	if err != nil {
		return nil, err
	}

	b := &Buffer{
		fsys:     fsys,
		filename: filename,
		log:      NewEditLog(src),
		readOnly: opts.ReadOnly || !fsys.Writable(filename),
		opts:     opts,
		disk:     info,
	}
	logger.Infof("opened %s: %d bytes, read-only=%v", filename, src.Len(), b.readOnly)
	return b, nil
}

func openSource(fsys fileio.FS, filename string, opts SourceOptions) (ByteSource, error) {
	f, err := fsys.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	src, err := NewSource(f, opts)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return src, nil
}

func (b *Buffer) Filename() string {
	return b.filename
}

func (b *Buffer) IsNew() bool {
	return b.isNew
}

func (b *Buffer) IsModified() bool {
	return b.log.Dirty()
}

func (b *Buffer) ReadOnly() bool {
	return b.readOnly
}

func (b *Buffer) Size() int64 {
	return b.log.Len()
}

// Len is Size under the name readers expect.
func (b *Buffer) Len() int64 {
	return b.log.Len()
}

// Revision changes whenever the effective bytes change.
func (b *Buffer) Revision() uint64 {
	return b.log.Revision()
}

func (b *Buffer) GetByte(offset int64) (byte, bool) {
	w, _ := b.log.Resolve(offset, 1)
	if w.Len() == 0 || w.Marks[0]&MarkUnreadable != 0 {
		return 0, false
	}
	return w.Data[0], true
}

func (b *Buffer) GetBytes(offset int64, count int) []byte {
	w, _ := b.log.Resolve(offset, count)
	if w.Len() == 0 {
		return nil
	}
	return w.Data
}

// Window resolves [offset, offset+n) with per-byte marks.
func (b *Buffer) Window(offset int64, n int) (Window, error) {
	return b.log.Resolve(offset, n)
}

// ReadAt returns the effective bytes in [offset, offset+n).
func (b *Buffer) ReadAt(offset int64, n int) ([]byte, error) {
	w, err := b.log.Resolve(offset, n)
	return w.Data, err
}

func (b *Buffer) apply(op Op) error {
	if b.readOnly {
		return ErrReadOnly
	}
	b.log.Apply(op)
	return nil
}

func (b *Buffer) Insert(offset int64, data []byte) error {
	return b.apply(Insert(offset, data))
}

func (b *Buffer) Delete(offset int64, count int64) error {
	return b.apply(Delete(offset, count))
}

func (b *Buffer) Replace(offset int64, newByte byte) error {
	return b.apply(Overwrite(offset, []byte{newByte}))
}

// ReplaceBytes overwrites from offset and appends whatever runs past the
// end of the file.
func (b *Buffer) ReplaceBytes(offset int64, data []byte) error {
	if b.readOnly {
		return ErrReadOnly
	}
	offset = clamp64(offset, 0, b.Size())
	inside := clamp64(int64(len(data)), 0, b.Size()-offset)
	if inside > 0 {
		b.log.Apply(Overwrite(offset, data[:inside]))
	}
	if rest := data[inside:]; len(rest) > 0 {
		b.log.Apply(Insert(b.Size(), rest))
	}
	return nil
}

// Undo reverts the last edit and returns it.
func (b *Buffer) Undo() (Op, bool) {
	return b.log.Undo()
}

func (b *Buffer) Redo() (Op, bool) {
	return b.log.Redo()
}

func (b *Buffer) CanUndo() bool {
	return b.log.CanUndo()
}

func (b *Buffer) CanRedo() bool {
	return b.log.CanRedo()
}

// Ops returns the pending edits, oldest first.
func (b *Buffer) Ops() []Op {
	return b.log.Ops()
}

// Snapshot returns a read-only view of the current bytes that stays valid
// while the buffer keeps changing.
func (b *Buffer) Snapshot() *Snapshot {
	return &Snapshot{view: b.log.view, revision: b.log.Revision()}
}

// HasChangedOnDisk compares the file's size and modification time with
// what they were at open or last save.
func (b *Buffer) HasChangedOnDisk() (bool, error) {
	if b.isNew || b.filename == "" {
		return false, nil
	}
	info, err := b.fsys.Stat(b.filename)
	if err != nil {
		return false, err
	}
	return info.Size != b.disk.Size || !info.ModTime.Equal(b.disk.ModTime), nil
}

func (b *Buffer) Save() error {
	if b.filename == "" {
		return ErrNoFilename
	}
	if b.readOnly {
		return ErrReadOnly
	}

	var err error
	if b.opts.SaveMode == SaveInPlace && !b.isNew && b.log.OnlyOverwrites() {
		err = b.saveInPlace()
	} else {
		err = b.saveAtomic(b.filename)
	}
	if err != nil {
		return err
	}
	return b.reload()
}

func (b *Buffer) SaveAs(filename string) error {
	if filename == "" {
		return ErrNoFilename
	}
	if err := b.saveAtomic(filename); err != nil {
		return err
	}
	b.filename = filename
	b.isNew = false
	b.readOnly = b.opts.ReadOnly || !b.fsys.Writable(filename)
	return b.reload()
}

// saveAtomic streams the effective bytes into a temp file in the target's
// directory and renames it over the target.
func (b *Buffer) saveAtomic(target string) (err error) {
	mode := fs.FileMode(0o644)
	if info, statErr := b.fsys.Stat(target); statErr == nil {
		mode = info.Mode.Perm()
	}

	tmp, err := b.fsys.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".lesbin-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			b.fsys.Remove(tmpName)
		}
	}()

	size := b.Size()
	if err = tmp.Truncate(size); err != nil {
		return fmt.Errorf("failed to size temp file: %w", err)
	}
	for off := int64(0); off < size; off += saveChunk {
		w, rerr := b.log.Resolve(off, saveChunk)
		if rerr != nil {
			err = fmt.Errorf("failed to read source: %w", rerr)
			return err
		}
		if _, err = tmp.WriteAt(w.Data, off); err != nil {
			return fmt.Errorf("failed to write temp file: %w", err)
		}
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = b.fsys.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = b.fsys.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	logger.Infof("saved %s atomically: %d bytes", target, size)
	return nil
}

// saveInPlace writes only the modified ranges. The caller guarantees the
// length is unchanged, so effective offsets are file offsets.
func (b *Buffer) saveInPlace() error {
	f, err := b.fsys.OpenWritable(b.filename)
	if err != nil {
		return fmt.Errorf("failed to open for writing: %w", err)
	}
	written := 0
	for _, r := range b.log.ModifiedRanges() {
		for off := r[0]; off < r[1]; off += saveChunk {
			n := int(min(saveChunk, r[1]-off))
			w, err := b.log.Resolve(off, n)
			if err != nil {
				f.Close()
				return fmt.Errorf("failed to read edits: %w", err)
			}
			if _, err := f.WriteAt(w.Data, off); err != nil {
				f.Close()
				return fmt.Errorf("failed to write range at 0x%X: %w", off, err)
			}
			written += w.Len()
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Infof("saved %s in place: %d bytes written", b.filename, written)
	return nil
}

// reload makes the file on disk the new baseline and clears the edit log.
func (b *Buffer) reload() error {
	src, err := openSource(b.fsys, b.filename, b.opts.Source)
	if err != nil {
		return err
	}
	info, err := b.fsys.Stat(b.filename)
	if err != nil {
		src.Close()
		return err
	}
	old := b.log.Source()
	b.log.Reset(src)
	b.disk = info
	if old != nil {
		old.Close()
	}
	return nil
}

// Close releases the file handle.
func (b *Buffer) Close() error {
	return b.log.Source().Close()
}
