// Package view holds the viewport geometry and the cursor. Neither type
// touches the buffer; callers pass the current length.
package view

// Viewport is the rectangle of rows currently on screen. Base is always a
// multiple of BytesPerRow.
type Viewport struct {
	base        int64
	bytesPerRow int
	rows        int
	gen         uint64
}

// New returns a viewport at offset 0. Non-positive dimensions become 1.
func New(rows, bytesPerRow int) *Viewport {
	return &Viewport{rows: max(rows, 1), bytesPerRow: max(bytesPerRow, 1)}
}

func (v *Viewport) Base() int64        { return v.base }
func (v *Viewport) Rows() int          { return v.rows }
func (v *Viewport) BytesPerRow() int   { return v.bytesPerRow }
func (v *Viewport) Generation() uint64 { return v.gen }

// Span is the number of byte slots on screen.
func (v *Viewport) Span() int {
	return v.rows * v.bytesPerRow
}

// End is one past the last offset on screen.
func (v *Viewport) End() int64 {
	return v.base + int64(v.Span())
}

// Contains reports whether offset falls on screen.
func (v *Viewport) Contains(offset int64) bool {
	return offset >= v.base && offset < v.End()
}

func (v *Viewport) align(offset int64) int64 {
	if offset < 0 {
		return 0
	}
	return offset - offset%int64(v.bytesPerRow)
}

func (v *Viewport) setBase(base int64) {
	if base != v.base {
		v.base = base
		v.gen++
	}
}

// ScrollTo puts the row containing offset at the top.
func (v *Viewport) ScrollTo(offset int64) {
	v.setBase(v.align(offset))
}

// Resize changes the geometry and re-aligns the base so the row that was on
// top stays on top.
func (v *Viewport) Resize(rows, bytesPerRow int) {
	rows, bytesPerRow = max(rows, 1), max(bytesPerRow, 1)
	if rows == v.rows && bytesPerRow == v.bytesPerRow {
		return
	}
	v.rows = rows
	v.bytesPerRow = bytesPerRow
	v.base = v.align(v.base)
	v.gen++
}

// OffsetToCell maps an offset to its on-screen row and column.
func (v *Viewport) OffsetToCell(offset int64) (row, col int, ok bool) {
	if !v.Contains(offset) {
		return 0, 0, false
	}
	rel := offset - v.base
	return int(rel / int64(v.bytesPerRow)), int(rel % int64(v.bytesPerRow)), true
}

// CellToOffset maps an on-screen cell back to an offset in [0, length].
func (v *Viewport) CellToOffset(row, col int, length int64) int64 {
	off := v.base + int64(row)*int64(v.bytesPerRow) + int64(col)
	return min(max(off, 0), max(length, 0))
}

// RowsToShow returns the signed number of rows the viewport must scroll so
// that offset is on screen, without scrolling.
func (v *Viewport) RowsToShow(offset int64) int {
	bpr := int64(v.bytesPerRow)
	switch {
	case offset < v.base:
		return int((v.align(offset) - v.base) / bpr)
	case offset >= v.End():
		top := v.align(offset) - int64(v.rows-1)*bpr
		return int((top - v.base) / bpr)
	}
	return 0
}

// EnsureVisible scrolls the minimal number of rows to bring offset on
// screen and returns how many rows it scrolled (negative is up).
func (v *Viewport) EnsureVisible(offset int64) int {
	n := v.RowsToShow(offset)
	if n != 0 {
		v.setBase(v.base + int64(n)*int64(v.bytesPerRow))
	}
	return n
}

// ScrollRows moves the view by n rows without regard to a cursor. The top
// row never goes above 0 nor past the point where the row holding length
// sits at the bottom. It returns the rows actually scrolled.
func (v *Viewport) ScrollRows(n int, length int64) int {
	bpr := int64(v.bytesPerRow)
	maxBase := max(v.align(max(length, 0))-int64(v.rows-1)*bpr, 0)
	base := min(max(v.base+int64(n)*bpr, 0), maxBase)
	moved := int((base - v.base) / bpr)
	v.setBase(base)
	return moved
}
