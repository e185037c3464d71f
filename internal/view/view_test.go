package view

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClampIdempotent(t *testing.T) {
	for _, tc := range []struct {
		offset, length, want int64
	}{
		{-5, 10, 0},
		{0, 10, 0},
		{7, 10, 7},
		{10, 10, 10},
		{11, 10, 10},
		{3, 0, 0},
		{3, -1, 0},
	} {
		got := Clamp(tc.offset, tc.length)
		if got != tc.want {
			t.Errorf("Clamp(%d, %d) = %d, want %d", tc.offset, tc.length, got, tc.want)
		}
		if again := Clamp(got, tc.length); again != got {
			t.Errorf("Clamp not idempotent for %d, %d: %d then %d", tc.offset, tc.length, got, again)
		}
	}
}

func TestTenByteRows(t *testing.T) {
	vp := New(3, 4)
	var rows [][]int64
	for r := 0; r < vp.Rows(); r++ {
		var row []int64
		for c := 0; c < vp.BytesPerRow(); c++ {
			off := vp.Base() + int64(r*vp.BytesPerRow()+c)
			if off >= 10 {
				break
			}
			row = append(row, off)
		}
		rows = append(rows, row)
	}
	want := [][]int64{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("row layout mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveRightScrollsOnce(t *testing.T) {
	vp := New(1, 4)
	var c Cursor
	scrolls := 0
	for i := 0; i < 5; i++ {
		c.MoveBy(1, 10)
		if n := c.ScrollRequest(vp); n != 0 {
			vp.EnsureVisible(c.Offset())
			scrolls++
		}
	}
	if c.Offset() != 5 {
		t.Errorf("expected cursor at 5, got %d", c.Offset())
	}
	if scrolls != 1 {
		t.Errorf("expected exactly one scroll, got %d", scrolls)
	}
	if vp.Base() != 4 {
		t.Errorf("expected base 4, got %d", vp.Base())
	}
}

func TestMoveByStaysInRange(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	var c Cursor
	const length = 37
	for i := 0; i < 1000; i++ {
		c.MoveBy(r.Int64N(200)-100, length)
		if c.Offset() < 0 || c.Offset() > length {
			t.Fatalf("cursor left range: %d", c.Offset())
		}
	}
	c.MoveTo(5, 0)
	if c.Offset() != 0 {
		t.Errorf("expected 0 in an empty file, got %d", c.Offset())
	}
}

func TestMoveBySaturates(t *testing.T) {
	tests := []struct {
		delta int64
		want  int64
	}{
		{math.MaxInt64, 10},
		{math.MinInt64, 0},
		{5, 10},
		{-5, 0},
		{3, 8},
	}
	for _, tt := range tests {
		var c Cursor
		c.MoveTo(5, 10)
		c.MoveBy(tt.delta, 10)
		if c.Offset() != tt.want {
			t.Errorf("MoveBy(%d) from 5 = %d, want %d", tt.delta, c.Offset(), tt.want)
		}
	}
}

func TestViewportRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	const length = 1000
	vp := New(5, 16)
	for i := 0; i < 200; i++ {
		switch r.IntN(4) {
		case 0:
			vp.ScrollTo(r.Int64N(length + 1))
		case 1:
			vp.Resize(1+r.IntN(10), 1+r.IntN(32))
		case 2:
			vp.ScrollRows(r.IntN(20)-10, length)
		case 3:
			vp.EnsureVisible(r.Int64N(length + 1))
		}
		if vp.Base()%int64(vp.BytesPerRow()) != 0 {
			t.Fatalf("base %d not aligned to %d", vp.Base(), vp.BytesPerRow())
		}
		for off := vp.Base(); off < vp.End() && off <= length; off++ {
			row, col, ok := vp.OffsetToCell(off)
			if !ok {
				t.Fatalf("visible offset %d has no cell", off)
			}
			if got := vp.CellToOffset(row, col, length); got != off {
				t.Fatalf("round trip %d -> (%d,%d) -> %d", off, row, col, got)
			}
		}
	}
}

func TestEnsureVisibleMinimalScroll(t *testing.T) {
	vp := New(4, 16)
	if n := vp.EnsureVisible(63); n != 0 {
		t.Errorf("offset on screen should not scroll, got %d", n)
	}
	if n := vp.EnsureVisible(64); n != 1 {
		t.Errorf("one row below should scroll 1, got %d", n)
	}
	if n := vp.EnsureVisible(200); n != 8 {
		t.Errorf("expected 8 rows down, got %d", n)
	}
	if vp.Base() != 144 {
		t.Errorf("expected base 144, got %d", vp.Base())
	}
	if n := vp.EnsureVisible(0); n != -9 {
		t.Errorf("expected 9 rows up, got %d", n)
	}
}

func TestScrollRowsClamped(t *testing.T) {
	vp := New(4, 16)
	if n := vp.ScrollRows(-3, 100); n != 0 {
		t.Errorf("expected no scroll above 0, got %d", n)
	}
	// Row of the append position (96) sits at the bottom: base 48.
	if n := vp.ScrollRows(100, 100); n != 3 {
		t.Errorf("expected 3 rows, got %d", n)
	}
	if vp.Base() != 48 {
		t.Errorf("expected base 48, got %d", vp.Base())
	}
	if n := vp.ScrollRows(5, 10); n != -3 {
		t.Errorf("shrunk file should pull the view back, got %d", n)
	}
}

func TestGenerationOnChange(t *testing.T) {
	vp := New(2, 8)
	g := vp.Generation()
	vp.ScrollTo(3)
	if vp.Generation() != g {
		t.Error("scrolling within the top row should not bump the generation")
	}
	vp.ScrollTo(8)
	if vp.Generation() == g {
		t.Error("expected generation bump after scroll")
	}
	g = vp.Generation()
	vp.Resize(2, 8)
	if vp.Generation() != g {
		t.Error("same geometry should not bump the generation")
	}
	vp.Resize(3, 8)
	if vp.Generation() == g {
		t.Error("expected generation bump after resize")
	}
}

func TestSelection(t *testing.T) {
	var c Cursor
	c.MoveTo(5, 10)
	c.ExtendSelection(2, 10)
	sel, ok := c.Selection(10)
	if !ok {
		t.Fatal("expected a selection")
	}
	if diff := cmp.Diff(Selection{Start: 2, End: 6}, sel); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}

	c.ExtendSelection(20, 10)
	sel, _ = c.Selection(10)
	if sel.End != 10 || sel.Start != 5 {
		t.Errorf("expected [5, 10), got %+v", sel)
	}

	c.ClearSelection()
	if _, ok := c.Selection(10); ok {
		t.Error("expected no selection after clear")
	}
	if c.Offset() != 10 {
		t.Errorf("clear should not move the cursor, got %d", c.Offset())
	}
}
