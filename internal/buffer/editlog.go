package buffer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"lesbin/internal/logger"
)

type OpKind int

const (
	OpOverwrite OpKind = iota
	OpInsert
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpOverwrite:
		return "overwrite"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is one edit. Overwrite carries both the replaced and the written
// bytes; Insert carries the inserted bytes; Delete carries a length.
type Op struct {
	Kind   OpKind
	Offset int64
	Length int64
	Old    []byte
	New    []byte
}

func Overwrite(offset int64, data []byte) Op {
	return Op{Kind: OpOverwrite, Offset: offset, New: data}
}

func Insert(offset int64, data []byte) Op {
	return Op{Kind: OpInsert, Offset: offset, New: data}
}

func Delete(offset, length int64) Op {
	return Op{Kind: OpDelete, Offset: offset, Length: length}
}

// Delta is the change in file length caused by the op.
func (o Op) Delta() int64 {
	switch o.Kind {
	case OpInsert:
		return int64(len(o.New))
	case OpDelete:
		return -o.Length
	}
	return 0
}

func (o Op) String() string {
	switch o.Kind {
	case OpDelete:
		return fmt.Sprintf("delete(0x%X, %d)", o.Offset, o.Length)
	default:
		return fmt.Sprintf("%s(0x%X, % X)", o.Kind, o.Offset, o.New)
	}
}

// Mark flags a resolved byte.
type Mark uint8

const (
	MarkModified Mark = 1 << iota
	MarkUnreadable
)

// Window is a resolved run of effective bytes starting at Offset.
type Window struct {
	Offset int64
	Data   []byte
	Marks  []Mark
}

// Len returns the number of resolved bytes.
func (w Window) Len() int { return len(w.Data) }

// At returns the byte at an absolute offset if the window covers it.
func (w Window) At(offset int64) (byte, Mark, bool) {
	i := offset - w.Offset
	if i < 0 || i >= int64(len(w.Data)) {
		return 0, 0, false
	}
	return w.Data[i], w.Marks[i], true
}

// Covers reports whether [offset, offset+n) lies inside the window.
func (w Window) Covers(offset int64, n int) bool {
	return offset >= w.Offset && offset+int64(n) <= w.Offset+int64(len(w.Data))
}

// Slice returns the part of the window in [offset, offset+n).
func (w Window) Slice(offset int64, n int) Window {
	from := offset - w.Offset
	if from < 0 {
		from = 0
	}
	to := from + int64(n)
	if from > int64(len(w.Data)) {
		from = int64(len(w.Data))
	}
	if to > int64(len(w.Data)) {
		to = int64(len(w.Data))
	}
	return Window{Offset: w.Offset + from, Data: w.Data[from:to], Marks: w.Marks[from:to]}
}

type pieceKind uint8

const (
	fromSource pieceKind = iota
	fromArena
)

// piece is a run of effective bytes backed by either the source file or
// the arena of written bytes.
type piece struct {
	kind pieceKind
	off  int64
	n    int64
}

func (p piece) cut(from, to int64) piece {
	return piece{kind: p.kind, off: p.off + from, n: to - from}
}

// splice replaced removed with added starting at piece index at. Undo
// swaps them back, so the piece list returns to exactly what it was.
type splice struct {
	at      int
	removed []piece
	added   []piece
}

type record struct {
	op Op
	sp splice
}

// pieceView is an immutable view of the piece table. Edits never mutate
// a published pieces or starts slice, and the arena only grows, so a copy
// of this struct stays valid for background readers.
type pieceView struct {
	src    ByteSource
	arena  []byte
	pieces []piece
	// starts[i] is the effective offset of pieces[i]; the final entry is
	// the total length.
	starts []int64
}

func (v pieceView) length() int64 {
	return v.starts[len(v.starts)-1]
}

// locate returns the index of the piece containing offset, or
// len(pieces) when offset is at or past the end.
func (v pieceView) locate(offset int64) int {
	return sort.Search(len(v.pieces), func(k int) bool {
		return v.starts[k+1] > offset
	})
}

func (v pieceView) resolve(offset int64, n int) (Window, error) {
	length := v.length()
	if offset < 0 || offset > length {
		offset = clamp64(offset, 0, length)
		return Window{Offset: offset}, nil
	}
	end := offset + int64(max(n, 0))
	if end > length {
		end = length
	}
	w := Window{
		Offset: offset,
		Data:   make([]byte, end-offset),
		Marks:  make([]Mark, end-offset),
	}
	var firstErr error
	for k := v.locate(offset); k < len(v.pieces) && v.starts[k] < end; k++ {
		p := v.pieces[k]
		from := max(offset, v.starts[k])
		to := min(end, v.starts[k]+p.n)
		dst := from - offset
		inner := p.off + (from - v.starts[k])
		switch p.kind {
		case fromArena:
			copy(w.Data[dst:], v.arena[inner:inner+(to-from)])
			for i := dst; i < dst+(to-from); i++ {
				w.Marks[i] = MarkModified
			}
		case fromSource:
			got, err := v.src.ReadAt(inner, int(to-from))
			copy(w.Data[dst:], got)
			if int64(len(got)) < to-from {
				for i := dst + int64(len(got)); i < dst+(to-from); i++ {
					w.Marks[i] = MarkUnreadable
				}
				if firstErr == nil {
					cause := err
					var re *ReadError
					if errors.As(err, &re) {
						cause = re.Err
					}
					if cause == nil {
						cause = io.ErrUnexpectedEOF
					}
					firstErr = &ReadError{Offset: from + int64(len(got)), Err: cause}
				}
			}
		}
	}
	return w, firstErr
}

// EditLog layers recorded edits over a ByteSource as a piece table. The
// source is never written; Resolve composes it with the edits on demand.
type EditLog struct {
	view     pieceView
	done     []record
	undone   []record
	revision uint64
}

// NewEditLog returns an empty log over src.
func NewEditLog(src ByteSource) *EditLog {
	l := &EditLog{}
	l.Reset(src)
	return l
}

// Reset discards every edit and makes src the new baseline.
func (l *EditLog) Reset(src ByteSource) {
	var pieces []piece
	if n := src.Len(); n > 0 {
		pieces = []piece{{kind: fromSource, off: 0, n: n}}
	}
	l.view = pieceView{src: src}
	l.setPieces(pieces)
	l.done = nil
	l.undone = nil
	l.revision++
}

func (l *EditLog) setPieces(pieces []piece) {
	starts := make([]int64, len(pieces)+1)
	for i, p := range pieces {
		starts[i+1] = starts[i] + p.n
	}
	l.view.pieces = pieces
	l.view.starts = starts
}

func (l *EditLog) Len() int64       { return l.view.length() }
func (l *EditLog) Dirty() bool      { return len(l.done) > 0 }
func (l *EditLog) Revision() uint64 { return l.revision }
func (l *EditLog) CanUndo() bool    { return len(l.done) > 0 }
func (l *EditLog) CanRedo() bool    { return len(l.undone) > 0 }
func (l *EditLog) Source() ByteSource {
	return l.view.src
}

// Ops returns the recorded ops, oldest first.
func (l *EditLog) Ops() []Op {
	ops := make([]Op, len(l.done))
	for i, r := range l.done {
		ops[i] = r.op
	}
	return ops
}

// OnlyOverwrites reports whether every recorded op keeps the file length,
// which allows writing just the changed ranges back in place.
func (l *EditLog) OnlyOverwrites() bool {
	for _, r := range l.done {
		if r.op.Kind != OpOverwrite {
			return false
		}
	}
	return true
}

// ModifiedRanges returns the effective [start, end) ranges whose bytes
// come from edits rather than the source.
func (l *EditLog) ModifiedRanges() [][2]int64 {
	var ranges [][2]int64
	for i, p := range l.view.pieces {
		if p.kind != fromArena {
			continue
		}
		start, end := l.view.starts[i], l.view.starts[i+1]
		if n := len(ranges); n > 0 && ranges[n-1][1] == start {
			ranges[n-1][1] = end
			continue
		}
		ranges = append(ranges, [2]int64{start, end})
	}
	return ranges
}

// Resolve returns the effective bytes in [offset, offset+n), short at the
// end of the file. Bytes the source could not read are zero and marked
// unreadable; the first such failure is returned as a *ReadError.
func (l *EditLog) Resolve(offset int64, n int) (Window, error) {
	return l.view.resolve(offset, n)
}

// Apply clamps op to the current length and records it. It returns the
// op as recorded and false when the op changes nothing.
func (l *EditLog) Apply(op Op) (Op, bool) {
	length := l.Len()
	var a, b int64
	var add []piece

	switch op.Kind {
	case OpInsert:
		if len(op.New) == 0 {
			return op, false
		}
		op.Offset = clamp64(op.Offset, 0, length)
		op.New = append([]byte(nil), op.New...)
		a, b = op.Offset, op.Offset
		add = []piece{l.appendArena(op.New)}

	case OpDelete:
		op.Offset = clamp64(op.Offset, 0, length)
		op.Length = clamp64(op.Length, 0, length-op.Offset)
		if op.Length == 0 {
			return op, false
		}
		a, b = op.Offset, op.Offset+op.Length

	case OpOverwrite:
		op.Offset = clamp64(op.Offset, 0, length)
		n := clamp64(int64(len(op.New)), 0, length-op.Offset)
		if n == 0 {
			return op, false
		}
		op.New = append([]byte(nil), op.New[:n]...)
		old, _ := l.Resolve(op.Offset, int(n))
		op.Old = old.Data
		if bytes.Equal(op.Old, op.New) && !hasMark(old.Marks, MarkUnreadable) {
			return op, false
		}
		a, b = op.Offset, op.Offset+n
		add = []piece{l.appendArena(op.New)}

	default:
		return op, false
	}

	sp := l.splice(a, b, add)
	l.done = append(l.done, record{op: op, sp: sp})
	l.undone = nil
	l.revision++
	logger.DebugTagf("buffer", "apply %v: pieces=%d len=%d", op, len(l.view.pieces), l.Len())
	return op, true
}

// Undo reverts the most recent op. It is a no-op on an empty log.
func (l *EditLog) Undo() (Op, bool) {
	if len(l.done) == 0 {
		return Op{}, false
	}
	r := l.done[len(l.done)-1]
	l.done = l.done[:len(l.done)-1]
	l.replacePieces(r.sp.at, len(r.sp.added), r.sp.removed)
	l.undone = append(l.undone, r)
	l.revision++
	logger.DebugTagf("buffer", "undo %v: len=%d", r.op, l.Len())
	return r.op, true
}

// Redo re-applies the most recently undone op.
func (l *EditLog) Redo() (Op, bool) {
	if len(l.undone) == 0 {
		return Op{}, false
	}
	r := l.undone[len(l.undone)-1]
	l.undone = l.undone[:len(l.undone)-1]
	l.replacePieces(r.sp.at, len(r.sp.removed), r.sp.added)
	l.done = append(l.done, r)
	l.revision++
	return r.op, true
}

func (l *EditLog) appendArena(data []byte) piece {
	p := piece{kind: fromArena, off: int64(len(l.view.arena)), n: int64(len(data))}
	l.view.arena = append(l.view.arena, data...)
	return p
}

// splice replaces the effective range [a, b) with add. Pieces cut by the
// range boundaries are removed whole and re-added as their outer parts.
func (l *EditLog) splice(a, b int64, add []piece) splice {
	v := l.view
	i := v.locate(a)
	var removed, added []piece

	if a == b {
		if i < len(v.pieces) && v.starts[i] < a {
			p := v.pieces[i]
			at := a - v.starts[i]
			removed = []piece{p}
			added = append(added, p.cut(0, at))
			added = append(added, add...)
			added = append(added, p.cut(at, p.n))
		} else {
			added = append(added, add...)
		}
	} else {
		j := v.locate(b - 1)
		removed = append(removed, v.pieces[i:j+1]...)
		if first := v.pieces[i]; a > v.starts[i] {
			added = append(added, first.cut(0, a-v.starts[i]))
		}
		added = append(added, add...)
		if last := v.pieces[j]; b < v.starts[j]+last.n {
			added = append(added, last.cut(b-v.starts[j], last.n))
		}
	}

	sp := splice{at: i, removed: removed, added: added}
	l.replacePieces(sp.at, len(sp.removed), sp.added)
	return sp
}

// replacePieces swaps count pieces at index at for with. It always builds
// a fresh slice so views handed out earlier keep their contents.
func (l *EditLog) replacePieces(at, count int, with []piece) {
	old := l.view.pieces
	next := make([]piece, 0, len(old)-count+len(with))
	next = append(next, old[:at]...)
	next = append(next, with...)
	next = append(next, old[at+count:]...)
	l.setPieces(next)
}

func hasMark(marks []Mark, m Mark) bool {
	for _, x := range marks {
		if x&m != 0 {
			return true
		}
	}
	return false
}

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
