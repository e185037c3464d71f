package nav

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"lesbin/internal/buffer"
	"lesbin/internal/fileio"
	"lesbin/internal/search"
)

func newDoc(t *testing.T, data []byte, readOnly bool) *buffer.Buffer {
	t.Helper()
	fsys := fileio.NewMemFS()
	fsys.WriteFile("doc.bin", data)
	b, err := buffer.Open(fsys, "doc.bin", buffer.Options{ReadOnly: readOnly})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func seq(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func TestMoveRightScrollsOnce(t *testing.T) {
	c := New(newDoc(t, seq(10), false), 1, 4)
	scrolls := 0
	for i := 0; i < 5; i++ {
		if r := c.Handle(ActRight); r.Scrolled != 0 {
			scrolls++
		}
	}
	if c.Cursor() != 5 {
		t.Errorf("expected cursor at 5, got %d", c.Cursor())
	}
	if scrolls != 1 {
		t.Errorf("expected one scroll, got %d", scrolls)
	}
}

func TestMovementClamps(t *testing.T) {
	c := New(newDoc(t, seq(10), false), 2, 4)
	c.Handle(ActLeft)
	if c.Cursor() != 0 {
		t.Errorf("expected 0, got %d", c.Cursor())
	}
	c.Handle(ActFileEnd)
	if c.Cursor() != 9 {
		t.Errorf("expected last byte 9, got %d", c.Cursor())
	}
	c.Handle(ActDown)
	if c.Cursor() != 9 {
		t.Errorf("expected down to stay at 9, got %d", c.Cursor())
	}
	c.Handle(ActRowStart)
	if c.Cursor() != 8 {
		t.Errorf("expected row start 8, got %d", c.Cursor())
	}
	c.Handle(ActPageUp)
	if c.Cursor() != 0 {
		t.Errorf("expected page up to 0, got %d", c.Cursor())
	}
	c.Handle(ActRowEnd)
	if c.Cursor() != 3 {
		t.Errorf("expected row end 3, got %d", c.Cursor())
	}
}

func TestReplaceModeTypesBytes(t *testing.T) {
	doc := newDoc(t, seq(4), false)
	c := New(doc, 2, 4)
	c.Handle(ActReplace)
	for _, r := range "41g42" {
		c.HexDigit(r)
	}
	if diff := cmp.Diff([]byte{0x41, 0x42, 2, 3}, doc.GetBytes(0, 4)); diff != "" {
		t.Errorf("bytes mismatch (-want +got):\n%s", diff)
	}
	if c.Cursor() != 2 {
		t.Errorf("expected cursor 2, got %d", c.Cursor())
	}
	if m, ok := c.Mode().(Editing); !ok || m.Insert {
		t.Errorf("expected replace mode, got %v", c.Mode())
	}
}

func TestInsertModeAtEnd(t *testing.T) {
	doc := newDoc(t, seq(2), false)
	c := New(doc, 2, 4)
	c.Handle(ActInsert)
	c.Handle(ActFileEnd)
	if c.Cursor() != 2 {
		t.Fatalf("editing should reach the append position, got %d", c.Cursor())
	}
	c.HexDigit('a')
	if m := c.Mode().(Editing); m.Nibble != 1 {
		t.Errorf("expected half-typed byte, got nibble %d", m.Nibble)
	}
	c.HexDigit('B')
	if diff := cmp.Diff([]byte{0, 1, 0xAB}, doc.GetBytes(0, 10)); diff != "" {
		t.Errorf("bytes mismatch (-want +got):\n%s", diff)
	}

	c.Handle(ActCancel)
	if _, ok := c.Mode().(Viewing); !ok {
		t.Errorf("expected viewing after cancel, got %v", c.Mode())
	}
	if c.Cursor() != 2 {
		t.Errorf("leaving editing should clamp to the last byte, got %d", c.Cursor())
	}
}

func TestSelectCutPaste(t *testing.T) {
	doc := newDoc(t, seq(8), false)
	c := New(doc, 2, 4)
	c.Handle(ActRight)
	c.Handle(ActSelectRight)
	c.Handle(ActSelectRight)

	sel, ok := c.Selection()
	if !ok || sel.Start != 1 || sel.End != 4 {
		t.Fatalf("expected selection [1,4), got %+v %v", sel, ok)
	}

	r := c.Handle(ActCut)
	if diff := cmp.Diff([]byte{1, 2, 3}, r.Copy); diff != "" {
		t.Errorf("cut bytes mismatch (-want +got):\n%s", diff)
	}
	if !r.Changed || doc.Len() != 5 || c.Cursor() != 1 {
		t.Errorf("unexpected state after cut: len %d cursor %d", doc.Len(), c.Cursor())
	}
	if _, ok := c.Selection(); ok {
		t.Error("cut should clear the selection")
	}

	c.Handle(ActInsert)
	c.Handle(ActFileStart)
	c.Handle(ActPaste)
	if diff := cmp.Diff([]byte{1, 2, 3, 0, 4, 5, 6, 7}, doc.GetBytes(0, 10)); diff != "" {
		t.Errorf("after paste (-want +got):\n%s", diff)
	}
	if c.Cursor() != 3 {
		t.Errorf("expected cursor after pasted bytes, got %d", c.Cursor())
	}
}

func TestToggleSelectExtendsWithPlainMoves(t *testing.T) {
	c := New(newDoc(t, seq(8), false), 2, 4)
	c.Handle(ActToggleSelect)
	c.Handle(ActDown)
	sel, ok := c.Selection()
	if !ok || sel.Start != 0 || sel.End != 5 {
		t.Errorf("expected [0,5), got %+v", sel)
	}
	c.Handle(ActToggleSelect)
	if _, ok := c.Selection(); ok {
		t.Error("second toggle should clear the selection")
	}
}

func TestUndoMovesCursor(t *testing.T) {
	doc := newDoc(t, seq(8), false)
	c := New(doc, 2, 4)
	c.Handle(ActFileEnd)
	c.Handle(ActDelete)
	c.Handle(ActFileStart)

	r := c.Handle(ActUndo)
	if !r.Changed || doc.Len() != 8 {
		t.Fatalf("undo did not restore the byte: len %d", doc.Len())
	}
	if c.Cursor() != 7 {
		t.Errorf("expected cursor at the undone op, got %d", c.Cursor())
	}
	if r := c.Handle(ActUndo); r.Status != "nothing to undo" {
		t.Errorf("unexpected status %q", r.Status)
	}
}

func TestReadOnlyRefusesEdits(t *testing.T) {
	doc := newDoc(t, seq(4), true)
	c := New(doc, 2, 4)
	if r := c.Handle(ActInsert); r.Status != buffer.ErrReadOnly.Error() {
		t.Errorf("expected read-only status, got %q", r.Status)
	}
	if _, ok := c.Mode().(Viewing); !ok {
		t.Errorf("expected to stay in viewing, got %v", c.Mode())
	}
	c.Handle(ActDelete)
	if doc.Len() != 4 {
		t.Error("delete changed a read-only buffer")
	}
	if r := c.Handle(ActCopy); len(r.Copy) != 1 {
		t.Error("copy should still work on a read-only buffer")
	}
}

func TestSearchDropsStaleResults(t *testing.T) {
	c := New(newDoc(t, seq(16), false), 2, 4)
	c.Handle(ActFindHex)
	if m, ok := c.Mode().(Searching); !ok || m.Kind != search.Hex {
		t.Fatalf("expected hex search mode, got %v", c.Mode())
	}

	first := c.SubmitSearch([]byte{0x08}, false)
	if first.Start != 1 {
		t.Errorf("expected search to start after the cursor, got %d", first.Start)
	}
	second := c.Handle(ActFindNext).Search
	if second == nil || second.Gen == first.Gen {
		t.Fatalf("expected a newer request, got %+v", second)
	}

	r := c.ApplySearch(SearchResult{Gen: first.Gen, Offset: 3, Found: true})
	if diff := cmp.Diff(Result{}, r); diff != "" {
		t.Errorf("stale result should be dropped (-want +got):\n%s", diff)
	}
	if c.Cursor() != 0 {
		t.Errorf("stale result moved the cursor to %d", c.Cursor())
	}

	c.ApplySearch(SearchResult{Gen: second.Gen, Offset: 8, Found: true})
	if c.Cursor() != 8 {
		t.Errorf("expected cursor at match 8, got %d", c.Cursor())
	}

	prev := c.Handle(ActFindPrev).Search
	if prev == nil || !prev.Backward || prev.Start != 8 {
		t.Errorf("unexpected previous-match request %+v", prev)
	}
	if r := c.ApplySearch(SearchResult{Gen: prev.Gen}); r.Status != "pattern not found" {
		t.Errorf("unexpected status %q", r.Status)
	}
}

func TestSearchMatchJumpsToTop(t *testing.T) {
	c := New(newDoc(t, seq(1000), false), 4, 16)
	req := c.SubmitSearch([]byte{0x20}, false)
	r := c.ApplySearch(SearchResult{Gen: req.Gen, Offset: 800, Found: true})
	if c.Cursor() != 800 {
		t.Errorf("cursor = %d, want 800", c.Cursor())
	}
	if base := c.Viewport().Base(); base != 800 {
		t.Errorf("match row should be at the top, base = %d", base)
	}
	if r.Scrolled != 50 || r.Status != "found at 0x320" {
		t.Errorf("got scrolled=%d status=%q", r.Scrolled, r.Status)
	}

	// A match on a row already on screen still moves that row to the top.
	r = c.ApplySearch(SearchResult{Gen: req.Gen, Offset: 837, Found: true})
	if base := c.Viewport().Base(); base != 832 || r.Scrolled != 2 {
		t.Errorf("got base=%d scrolled=%d, want 832 and 2", base, r.Scrolled)
	}
}

func TestClickMovesCursor(t *testing.T) {
	c := New(newDoc(t, seq(100), false), 2, 16)
	c.Jump(32)
	c.Click(1, 3)
	if c.Cursor() != 51 {
		t.Errorf("cursor = %d, want 51", c.Cursor())
	}
	if c.Viewport().Base() != 32 {
		t.Errorf("a click must not scroll, base = %d", c.Viewport().Base())
	}

	// Past the last byte the cursor stops on it.
	c.Jump(96)
	c.Click(1, 15)
	if c.Cursor() != 99 {
		t.Errorf("cursor = %d, want 99", c.Cursor())
	}
}

func TestGoto(t *testing.T) {
	c := New(newDoc(t, seq(100), false), 2, 16)
	for _, tc := range []struct {
		input string
		want  int64
	}{
		{"0x20", 32},
		{"0X10", 16},
		{"50", 50},
		{"1000", 99},
	} {
		c.Handle(ActGoTo)
		c.SubmitGoto(tc.input)
		if c.Cursor() != tc.want {
			t.Errorf("goto %q: got %d, want %d", tc.input, c.Cursor(), tc.want)
		}
		if c.Viewport().Base() != tc.want-tc.want%16 {
			t.Errorf("goto %q: row not at top, base %d", tc.input, c.Viewport().Base())
		}
	}

	c.Handle(ActGoTo)
	if r := c.SubmitGoto("zz"); r.Status == "" {
		t.Error("expected an error status for bad input")
	}
	if c.Cursor() != 99 {
		t.Errorf("bad input should leave the cursor, got %d", c.Cursor())
	}
}

func TestCancelRestoresOrigin(t *testing.T) {
	c := New(newDoc(t, seq(64), false), 2, 16)
	c.Jump(40)
	c.Handle(ActFind)
	c.Handle(ActRight)
	c.Cancel()
	if c.Cursor() != 40 {
		t.Errorf("expected cursor back at 40, got %d", c.Cursor())
	}
}

func TestPagerScrollsWithoutCursor(t *testing.T) {
	c := New(newDoc(t, seq(10), false), 1, 4)
	c.Handle(ActTogglePager)
	r := c.Handle(ActDown)
	if r.Scrolled != 1 || c.Viewport().Base() != 4 {
		t.Errorf("expected one row scroll, got %d base %d", r.Scrolled, c.Viewport().Base())
	}
	if c.Cursor() != 0 {
		t.Errorf("pager scroll moved the cursor to %d", c.Cursor())
	}
	c.Handle(ActDown)
	if r := c.Handle(ActDown); r.Scrolled != 0 {
		t.Errorf("expected scroll to stop at the last row, got %d", r.Scrolled)
	}
}

func TestResizeKeepsCursorVisible(t *testing.T) {
	c := New(newDoc(t, seq(256), false), 8, 16)
	c.Jump(200)
	c.Resize(2, 8)
	if !c.Viewport().Contains(c.Cursor()) {
		t.Errorf("cursor %d off screen after resize, base %d", c.Cursor(), c.Viewport().Base())
	}
}

func TestActionNames(t *testing.T) {
	for _, name := range ActionNames() {
		a, ok := ActionByName(name)
		if !ok || a.String() != name {
			t.Errorf("round trip failed for %q", name)
		}
	}
	if _, ok := ActionByName("bogus"); ok {
		t.Error("unexpected action for bogus name")
	}
}
