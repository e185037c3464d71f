// Package render turns the viewport, cursor and resolved bytes into a grid
// of cells. It knows nothing about terminals or colours; the editor maps
// Style flags to lipgloss styles.
package render

import (
	"fmt"

	"lesbin/internal/buffer"
	"lesbin/internal/view"
)

// Style is a set of flags on a cell. The zero value is a normal cell.
type Style uint8

const (
	Cursor Style = 1 << iota
	Selected
	Modified
	Unreadable
	Zero
	Inspected
)

// Normal is the empty style set.
const Normal Style = 0

func (s Style) Has(f Style) bool { return s&f != 0 }

// Cell is one byte slot.
type Cell struct {
	Offset int64
	Hex    string
	ASCII  string
	Style  Style
	// Empty is set for slots past the end of the file.
	Empty bool
}

// Row is one line of the grid.
type Row struct {
	Offset int64
	Label  string
	Cells  []Cell
	// Past is set when the whole row lies beyond the end of the file.
	Past bool
	// HasCursor marks the row holding the cursor.
	HasCursor bool
}

// Grid is a rendered viewport.
type Grid struct {
	Rows        []Row
	BytesPerRow int
	CursorCol   int
}

// Frame is everything Render needs.
type Frame struct {
	Base        int64
	Rows        int
	BytesPerRow int
	Length      int64
	Cursor      int64
	ShowCursor  bool
	Selection   view.Selection
	// Inspect is the half-open range the value inspector decodes.
	Inspect [2]int64
	Window  buffer.Window
}

// FrameFor fills the geometry fields of a Frame from a viewport.
func FrameFor(vp *view.Viewport, length int64) Frame {
	return Frame{
		Base:        vp.Base(),
		Rows:        vp.Rows(),
		BytesPerRow: vp.BytesPerRow(),
		Length:      length,
	}
}

// OffsetWidth is the number of hex digits in the offset column.
func OffsetWidth(length int64) int {
	return max(8, len(fmt.Sprintf("%X", max(length, 0))))
}

// Render builds the grid for f.
func Render(f Frame) Grid {
	bpr := max(f.BytesPerRow, 1)
	width := OffsetWidth(f.Length)
	g := Grid{
		Rows:        make([]Row, 0, f.Rows),
		BytesPerRow: bpr,
		CursorCol:   -1,
	}
	if f.ShowCursor {
		g.CursorCol = int(f.Cursor % int64(bpr))
	}

	for r := 0; r < f.Rows; r++ {
		start := f.Base + int64(r*bpr)
		row := Row{
			Offset: start,
			Cells:  make([]Cell, bpr),
			Past:   start > f.Length || (start == f.Length && !(f.ShowCursor && f.Cursor == f.Length)),
		}
		if !row.Past || start == 0 {
			row.Label = fmt.Sprintf("%0*X", width, start)
		}
		for c := 0; c < bpr; c++ {
			off := start + int64(c)
			cell := renderCell(f, off)
			if cell.Style.Has(Cursor) {
				row.HasCursor = true
			}
			row.Cells[c] = cell
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

func renderCell(f Frame, off int64) Cell {
	cell := Cell{Offset: off, Hex: "  ", ASCII: " "}
	if f.ShowCursor && off == f.Cursor {
		cell.Style |= Cursor
	}
	if off >= f.Length {
		cell.Empty = true
		return cell
	}

	if f.Selection.Contains(off) {
		cell.Style |= Selected
	}
	if off >= f.Inspect[0] && off < f.Inspect[1] {
		cell.Style |= Inspected
	}

	b, mark, ok := f.Window.At(off)
	if !ok || mark&buffer.MarkUnreadable != 0 {
		cell.Style |= Unreadable
		cell.Hex = "??"
		cell.ASCII = "?"
		return cell
	}
	if mark&buffer.MarkModified != 0 {
		cell.Style |= Modified
	}
	if b == 0 {
		cell.Style |= Zero
	}
	cell.Hex = fmt.Sprintf("%02X", b)
	cell.ASCII = glyph(b)
	return cell
}

func glyph(b byte) string {
	if b >= 0x20 && b < 0x7F {
		return string(rune(b))
	}
	return "."
}

// Gap is the separator printed after column col: one space, two after
// every fourth byte, three after every eighth, none after the last.
func Gap(col, bytesPerRow int) string {
	switch {
	case col >= bytesPerRow-1:
		return ""
	case (col+1)%8 == 0:
		return "   "
	case (col+1)%4 == 0:
		return "  "
	}
	return " "
}

// HeaderLabels returns the column labels, one per byte.
func HeaderLabels(bytesPerRow int) []string {
	labels := make([]string, bytesPerRow)
	for i := range labels {
		labels[i] = fmt.Sprintf("%02X", i%256)
	}
	return labels
}
