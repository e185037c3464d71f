// Package nav turns actions into cursor, viewport and buffer changes. It
// owns no I/O and no terminal; the editor feeds it actions and carries out
// the effects it reports.
package nav

import (
	"fmt"
	"strconv"
	"strings"

	"lesbin/internal/buffer"
	"lesbin/internal/logger"
	"lesbin/internal/search"
	"lesbin/internal/view"
)

// MaxCopy caps how many bytes a single copy or cut takes.
const MaxCopy = 16 * 1024 * 1024

// Document is the buffer as the controller sees it.
type Document interface {
	Len() int64
	ReadOnly() bool
	GetByte(offset int64) (byte, bool)
	GetBytes(offset int64, count int) []byte
	Insert(offset int64, data []byte) error
	Delete(offset, count int64) error
	Replace(offset int64, b byte) error
	ReplaceBytes(offset int64, data []byte) error
	Undo() (buffer.Op, bool)
	Redo() (buffer.Op, bool)
}

// Prompt names an input line the editor should open.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptFind
	PromptGoTo
	PromptSaveAs
)

// Result is what one step did and what the editor should do next.
type Result struct {
	// Scrolled is the signed number of rows the viewport moved.
	Scrolled int
	Status   string
	Changed  bool
	Prompt   Prompt
	Search   *SearchRequest
	Copy     []byte
	Save     bool
	Quit     bool
	Help     bool
}

// SearchRequest asks the editor to run a search in the background.
type SearchRequest struct {
	Gen      uint64
	Kind     search.Kind
	Pattern  []byte
	Start    int64
	Backward bool
}

// SearchResult is the outcome of a SearchRequest.
type SearchResult struct {
	Gen    uint64
	Offset int64
	Found  bool
	Err    error
}

// Controller is the navigation state machine.
type Controller struct {
	doc       Document
	vp        *view.Viewport
	cur       view.Cursor
	mode      Mode
	pager     bool
	clip      []byte
	bigEndian bool
	inspector bool

	searchGen  uint64
	lastSearch *SearchRequest
}

// New returns a controller over doc showing rows rows of bytesPerRow.
func New(doc Document, rows, bytesPerRow int) *Controller {
	return &Controller{
		doc:       doc,
		vp:        view.New(rows, bytesPerRow),
		mode:      Viewing{},
		bigEndian: true,
		inspector: true,
	}
}

func (c *Controller) Mode() Mode                { return c.mode }
func (c *Controller) Viewport() *view.Viewport { return c.vp }
func (c *Controller) Cursor() int64            { return c.cur.Offset() }
func (c *Controller) Pager() bool              { return c.pager }
func (c *Controller) BigEndian() bool          { return c.bigEndian }
func (c *Controller) Inspector() bool          { return c.inspector }
func (c *Controller) Clipboard() []byte        { return c.clip }

// Selection returns the active selection, if any.
func (c *Controller) Selection() (view.Selection, bool) {
	return c.cur.Selection(c.doc.Len())
}

// limit is the highest offset the cursor may take in the current mode.
// Only editing may sit on the append position.
func (c *Controller) limit() int64 {
	n := c.doc.Len()
	if _, ok := c.mode.(Editing); ok {
		return n
	}
	return max(n-1, 0)
}

func (c *Controller) setMode(m Mode) {
	if _, ok := m.(Selecting); !ok {
		c.cur.ClearSelection()
	}
	c.mode = m
	c.cur.MoveTo(c.cur.Offset(), c.limit())
}

// follow scrolls the minimal amount to keep the cursor on screen.
func (c *Controller) follow() Result {
	return Result{Scrolled: c.vp.EnsureVisible(c.cur.Offset())}
}

func (c *Controller) moveTo(offset int64) Result {
	if ed, ok := c.mode.(Editing); ok && ed.Nibble != 0 {
		c.mode = Editing{Insert: ed.Insert}
	}
	if _, ok := c.mode.(Selecting); ok {
		c.cur.ExtendSelection(offset, c.limit())
	} else {
		c.cur.MoveTo(offset, c.limit())
	}
	return c.follow()
}

func (c *Controller) selectTo(offset int64) Result {
	if _, ok := c.mode.(Selecting); !ok {
		c.setMode(Selecting{Anchor: c.cur.Offset()})
		c.cur.StartSelection()
	}
	return c.moveTo(offset)
}

// Handle runs one action.
func (c *Controller) Handle(a Action) Result {
	bpr := int64(c.vp.BytesPerRow())
	page := int64(c.vp.Span())
	off := c.cur.Offset()

	switch a {
	case ActLeft:
		return c.moveTo(off - 1)
	case ActRight:
		return c.moveTo(off + 1)
	case ActUp:
		if c.pager {
			return c.scroll(-1)
		}
		return c.moveTo(off - bpr)
	case ActDown:
		if c.pager {
			return c.scroll(1)
		}
		return c.moveTo(off + bpr)
	case ActPageUp:
		if c.pager {
			return c.scroll(-c.vp.Rows())
		}
		return c.moveTo(off - page)
	case ActPageDown:
		if c.pager {
			return c.scroll(c.vp.Rows())
		}
		return c.moveTo(off + page)
	case ActRowStart:
		return c.moveTo(off - off%bpr)
	case ActRowEnd:
		return c.moveTo(off - off%bpr + bpr - 1)
	case ActFileStart:
		return c.moveTo(0)
	case ActFileEnd:
		return c.moveTo(c.limit())
	case ActScrollUp:
		return c.scroll(-1)
	case ActScrollDown:
		return c.scroll(1)

	case ActSelectLeft:
		return c.selectTo(off - 1)
	case ActSelectRight:
		return c.selectTo(off + 1)
	case ActSelectUp:
		return c.selectTo(off - bpr)
	case ActSelectDown:
		return c.selectTo(off + bpr)
	case ActToggleSelect:
		if _, ok := c.mode.(Selecting); ok {
			c.setMode(Viewing{})
			return Result{Status: "selection cleared"}
		}
		c.setMode(Selecting{Anchor: off})
		c.cur.StartSelection()
		return Result{}
	case ActTogglePager:
		c.pager = !c.pager
		if c.pager {
			return Result{Status: "pager mode"}
		}
		r := c.follow()
		r.Status = "cursor mode"
		return r

	case ActInsert, ActReplace:
		if c.doc.ReadOnly() {
			return Result{Status: buffer.ErrReadOnly.Error()}
		}
		c.setMode(Editing{Insert: a == ActInsert})
		return c.follow()
	case ActDelete:
		return c.delete(false)
	case ActBackspace:
		return c.delete(true)
	case ActCopy:
		return c.copy()
	case ActCut:
		r := c.copy()
		if r.Copy == nil {
			return r
		}
		d := c.delete(false)
		d.Copy = r.Copy
		if d.Status == "" {
			d.Status = fmt.Sprintf("cut %d bytes", len(r.Copy))
		}
		return d
	case ActPaste:
		return c.paste()
	case ActUndo:
		op, ok := c.doc.Undo()
		if !ok {
			return Result{Status: "nothing to undo"}
		}
		return c.afterHistory(op, "undid")
	case ActRedo:
		op, ok := c.doc.Redo()
		if !ok {
			return Result{Status: "nothing to redo"}
		}
		return c.afterHistory(op, "redid")

	case ActFind, ActFindText, ActFindHex:
		kind := search.Text
		if a == ActFindHex {
			kind = search.Hex
		}
		if prev, ok := c.mode.(Searching); ok && a == ActFind {
			kind = prev.Kind
		}
		c.setMode(Searching{Kind: kind, Origin: off})
		return Result{Prompt: PromptFind}
	case ActFindNext, ActFindPrev:
		if c.lastSearch == nil {
			return Result{Status: "no previous search"}
		}
		req := c.newSearch(c.lastSearch.Kind, c.lastSearch.Pattern, a == ActFindPrev)
		return Result{Search: &req, Status: "searching..."}
	case ActGoTo:
		c.setMode(GoingTo{Origin: off})
		return Result{Prompt: PromptGoTo}

	case ActSave:
		return Result{Save: true}
	case ActSaveAs:
		return Result{Prompt: PromptSaveAs}
	case ActQuit:
		return Result{Quit: true}
	case ActHelp:
		return Result{Help: true}
	case ActToggleEndian:
		c.bigEndian = !c.bigEndian
		if c.bigEndian {
			return Result{Status: "big endian"}
		}
		return Result{Status: "little endian"}
	case ActToggleInspector:
		c.inspector = !c.inspector
		return Result{}
	case ActCancel:
		return c.Cancel()
	}
	return Result{}
}

func (c *Controller) scroll(rows int) Result {
	return Result{Scrolled: c.vp.ScrollRows(rows, c.doc.Len())}
}

// Cancel leaves the current mode. A prompt puts the cursor back where it
// was when the prompt opened.
func (c *Controller) Cancel() Result {
	switch m := c.mode.(type) {
	case Searching:
		c.setMode(Viewing{})
		return c.moveTo(m.Origin)
	case GoingTo:
		c.setMode(Viewing{})
		return c.moveTo(m.Origin)
	case Viewing:
		return Result{}
	}
	c.setMode(Viewing{})
	return c.follow()
}

// HexDigit feeds one hex digit to editing mode. It ignores anything else.
func (c *Controller) HexDigit(r rune) Result {
	ed, ok := c.mode.(Editing)
	if !ok {
		return Result{}
	}
	nibble, ok := hexValue(r)
	if !ok {
		return Result{}
	}
	off := c.cur.Offset()
	length := c.doc.Len()

	var err error
	switch {
	case ed.Nibble == 0 && (ed.Insert || off >= length):
		err = c.doc.Insert(off, []byte{nibble << 4})
		ed.Nibble = 1
	case ed.Nibble == 0:
		b, _ := c.doc.GetByte(off)
		err = c.doc.Replace(off, nibble<<4|b&0x0F)
		ed.Nibble = 1
	default:
		b, _ := c.doc.GetByte(off)
		err = c.doc.Replace(off, b&0xF0|nibble)
		ed.Nibble = 0
		off++
	}
	if err != nil {
		return Result{Status: err.Error()}
	}
	c.mode = ed
	c.cur.MoveTo(off, c.limit())
	r2 := c.follow()
	r2.Changed = true
	return r2
}

func (c *Controller) delete(backspace bool) Result {
	if c.doc.ReadOnly() {
		return Result{Status: buffer.ErrReadOnly.Error()}
	}
	off := c.cur.Offset()
	var err error
	if sel, ok := c.Selection(); ok {
		err = c.doc.Delete(sel.Start, sel.Len())
		off = sel.Start
		c.setMode(Viewing{})
	} else if backspace {
		if off == 0 {
			return Result{}
		}
		off--
		err = c.doc.Delete(off, 1)
	} else {
		if off >= c.doc.Len() {
			return Result{}
		}
		err = c.doc.Delete(off, 1)
	}
	if err != nil {
		return Result{Status: err.Error()}
	}
	if ed, ok := c.mode.(Editing); ok {
		c.mode = Editing{Insert: ed.Insert}
	}
	c.cur.MoveTo(off, c.limit())
	r := c.follow()
	r.Changed = true
	return r
}

func (c *Controller) copy() Result {
	var data []byte
	if sel, ok := c.Selection(); ok {
		if sel.Len() > MaxCopy {
			return Result{Status: fmt.Sprintf("selection larger than %d bytes", MaxCopy)}
		}
		data = c.doc.GetBytes(sel.Start, int(sel.Len()))
	} else if b, ok := c.doc.GetByte(c.cur.Offset()); ok {
		data = []byte{b}
	}
	if len(data) == 0 {
		return Result{Status: "nothing to copy"}
	}
	c.clip = data
	return Result{Copy: data, Status: fmt.Sprintf("copied %d bytes", len(data))}
}

func (c *Controller) paste() Result {
	if len(c.clip) == 0 {
		return Result{Status: "clipboard is empty"}
	}
	if c.doc.ReadOnly() {
		return Result{Status: buffer.ErrReadOnly.Error()}
	}
	off := c.cur.Offset()
	var err error
	if ed, ok := c.mode.(Editing); ok && ed.Insert {
		err = c.doc.Insert(off, c.clip)
	} else {
		err = c.doc.ReplaceBytes(off, c.clip)
	}
	if err != nil {
		return Result{Status: err.Error()}
	}
	if _, ok := c.mode.(Selecting); ok {
		c.setMode(Viewing{})
	}
	c.cur.MoveTo(off+int64(len(c.clip)), c.limit())
	r := c.follow()
	r.Changed = true
	r.Status = fmt.Sprintf("pasted %d bytes", len(c.clip))
	return r
}

func (c *Controller) afterHistory(op buffer.Op, verb string) Result {
	if _, ok := c.mode.(Selecting); ok {
		c.setMode(Viewing{})
	}
	if ed, ok := c.mode.(Editing); ok {
		c.mode = Editing{Insert: ed.Insert}
	}
	c.cur.MoveTo(op.Offset, c.limit())
	r := c.follow()
	r.Changed = true
	r.Status = fmt.Sprintf("%s %s", verb, op.Kind)
	return r
}

// Jump moves the cursor to offset and puts its row at the top of the view.
func (c *Controller) Jump(offset int64) Result {
	c.cur.ClearSelection()
	if _, ok := c.mode.(Selecting); ok {
		c.mode = Viewing{}
	}
	c.cur.MoveTo(offset, c.limit())
	before := c.vp.Base()
	c.vp.ScrollTo(c.cur.Offset())
	return Result{Scrolled: int((c.vp.Base() - before) / int64(c.vp.BytesPerRow()))}
}

// Click moves the cursor to the byte shown at row and col of the grid,
// extending the selection while selecting.
func (c *Controller) Click(row, col int) Result {
	r := c.moveTo(c.vp.CellToOffset(row, col, c.doc.Len()))
	if c.pager {
		c.pager = false
		r.Status = "cursor mode"
	}
	return r
}

// Resize changes the geometry and keeps the cursor on screen.
func (c *Controller) Resize(rows, bytesPerRow int) Result {
	c.vp.Resize(rows, bytesPerRow)
	return c.follow()
}

// Sync re-clamps the cursor and view after the buffer changed underneath,
// for example after a save or reload.
func (c *Controller) Sync() Result {
	c.cur.MoveTo(c.cur.Offset(), c.limit())
	c.vp.ScrollRows(0, c.doc.Len())
	return c.follow()
}

func (c *Controller) newSearch(kind search.Kind, pattern []byte, backward bool) SearchRequest {
	c.searchGen++
	start := c.cur.Offset()
	if !backward {
		start++
	}
	req := SearchRequest{
		Gen:      c.searchGen,
		Kind:     kind,
		Pattern:  pattern,
		Start:    start,
		Backward: backward,
	}
	c.lastSearch = &req
	logger.DebugTagf("search", "request %d: % X from 0x%X backward=%v", req.Gen, pattern, start, backward)
	return req
}

// SubmitSearch closes the find prompt and returns the search to run. The
// search starts after the prompt's origin so the same match is not found
// twice.
func (c *Controller) SubmitSearch(pattern []byte, backward bool) SearchRequest {
	kind := search.Text
	if s, ok := c.mode.(Searching); ok {
		kind = s.Kind
		c.cur.MoveTo(s.Origin, c.limit())
	}
	c.setMode(Viewing{})
	return c.newSearch(kind, pattern, backward)
}

// SetSearchKind changes the pattern kind while the find prompt is open.
func (c *Controller) SetSearchKind(kind search.Kind) {
	if s, ok := c.mode.(Searching); ok {
		s.Kind = kind
		c.mode = s
	}
}

// ApplySearch jumps to a search result, putting the match row at the top
// of the view. Results from a search that has since been replaced are
// dropped.
func (c *Controller) ApplySearch(res SearchResult) Result {
	if res.Gen != c.searchGen {
		logger.DebugTagf("search", "dropping stale result %d (current %d)", res.Gen, c.searchGen)
		return Result{}
	}
	if res.Err != nil {
		return Result{Status: fmt.Sprintf("search failed: %v", res.Err)}
	}
	if !res.Found {
		return Result{Status: "pattern not found"}
	}
	r := c.Jump(res.Offset)
	r.Status = fmt.Sprintf("found at 0x%X", res.Offset)
	return r
}

// SubmitGoto parses a decimal or 0x-prefixed hex offset and jumps to it.
func (c *Controller) SubmitGoto(input string) Result {
	offset, err := ParseOffset(input)
	if err != nil {
		if g, ok := c.mode.(GoingTo); ok {
			c.setMode(Viewing{})
			c.cur.MoveTo(g.Origin, c.limit())
		}
		return Result{Status: err.Error()}
	}
	c.setMode(Viewing{})
	r := c.Jump(offset)
	if offset > c.doc.Len() {
		r.Status = fmt.Sprintf("0x%X is past the end", offset)
	}
	return r
}

// ParseOffset accepts decimal or 0x-prefixed hex.
func ParseOffset(input string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	var (
		v   int64
		err error
	)
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		v, err = strconv.ParseInt(rest, 16, 64)
	} else {
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid offset %q", input)
	}
	return v, nil
}

func hexValue(r rune) (byte, bool) {
	switch {
	case r >= '0' && r <= '9':
		return byte(r - '0'), true
	case r >= 'a' && r <= 'f':
		return byte(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return byte(r-'A') + 10, true
	}
	return 0, false
}
