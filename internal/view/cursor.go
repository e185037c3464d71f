package view

// Clamp limits offset to [0, length]. length itself is the append position.
func Clamp(offset, length int64) int64 {
	if length < 0 {
		length = 0
	}
	if offset < 0 {
		return 0
	}
	if offset > length {
		return length
	}
	return offset
}

// Selection is the half-open byte range [Start, End).
type Selection struct {
	Start int64
	End   int64
}

func (s Selection) Len() int64 {
	return s.End - s.Start
}

func (s Selection) Contains(offset int64) bool {
	return offset >= s.Start && offset < s.End
}

// Cursor is the current position plus an optional selection anchor.
type Cursor struct {
	offset    int64
	anchor    int64
	selecting bool
}

func (c *Cursor) Offset() int64 {
	return c.offset
}

// MoveTo sets the offset, clamped to [0, length].
func (c *Cursor) MoveTo(offset, length int64) {
	c.offset = Clamp(offset, length)
}

// MoveBy moves the offset by delta, clamped to [0, length].
func (c *Cursor) MoveBy(delta, length int64) {
	switch {
	case delta > 0 && delta > length-c.offset:
		c.MoveTo(length, length)
	case delta < 0 && delta < -c.offset:
		c.MoveTo(0, length)
	default:
		c.MoveTo(c.offset+delta, length)
	}
}

// ScrollRequest returns the rows vp has to scroll to show the cursor.
func (c *Cursor) ScrollRequest(vp *Viewport) int {
	return vp.RowsToShow(c.offset)
}

// StartSelection anchors a selection at the current offset.
func (c *Cursor) StartSelection() {
	c.anchor = c.offset
	c.selecting = true
}

// ExtendSelection moves the cursor to to, starting a selection first when
// none is active.
func (c *Cursor) ExtendSelection(to, length int64) {
	if !c.selecting {
		c.StartSelection()
	}
	c.MoveTo(to, length)
}

// ClearSelection drops the selection. The cursor does not move.
func (c *Cursor) ClearSelection() {
	c.selecting = false
}

func (c *Cursor) Selecting() bool {
	return c.selecting
}

func (c *Cursor) Anchor() int64 {
	return c.anchor
}

// Selection returns the bytes between the anchor and the cursor, both
// included, limited to length. It is false with no selection or an empty
// file.
func (c *Cursor) Selection(length int64) (Selection, bool) {
	if !c.selecting || length <= 0 {
		return Selection{}, false
	}
	start := min(c.anchor, c.offset)
	end := max(c.anchor, c.offset) + 1
	start = Clamp(start, length)
	end = Clamp(end, length)
	if start >= end {
		return Selection{}, false
	}
	return Selection{Start: start, End: end}, true
}
