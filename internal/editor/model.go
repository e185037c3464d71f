// Package editor is the bubbletea front end: it maps keys to actions, runs
// searches and prefetches in the background and draws the render grid with
// lipgloss.
package editor

import (
	"context"
	"fmt"
	"unicode"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"lesbin/internal/buffer"
	"lesbin/internal/config"
	"lesbin/internal/logger"
	"lesbin/internal/nav"
	"lesbin/internal/prefetch"
	"lesbin/internal/render"
	"lesbin/internal/search"
)

type View int

const (
	ViewMain View = iota
	ViewHelp
	ViewFind
	ViewGoto
	ViewSaveAs
	ViewConfirmQuit
	ViewFileChangedPrompt
)

// Lines taken by the legend, the column header and the status line.
const chromeLines = 3

// gridTop is the screen line of the first grid row.
const gridTop = 2

// Lines taken by the inspector panel or an open prompt.
const panelLines = 6

// maxBytesPerRow caps the fitted row width.
const maxBytesPerRow = 64

var clipboardWrite = clipboard.WriteAll

type Model struct {
	buf    *buffer.Buffer
	ctl    *nav.Controller
	config *config.Config
	styles *config.Styles
	keys   config.Keymap

	view   View
	width  int
	height int
	input  textinput.Model

	findBackward bool
	searchGen    uint64
	searchCancel context.CancelFunc
	matches      int
	matchGen     uint64

	cache prefetch.Cache

	// saveThenQuit is set when a quit is waiting on a save-as prompt.
	saveThenQuit bool

	statusMsg string
}

// NewModel builds the editor over an open buffer.
func NewModel(buf *buffer.Buffer, cfg *config.Config) *Model {
	ti := textinput.New()
	ti.CharLimit = 4096
	ti.Prompt = "> "
	ti.Cursor.SetMode(cursor.CursorStatic)

	m := &Model{
		buf:     buf,
		config:  cfg,
		styles:  config.NewStyles(&cfg.Theme),
		keys:    cfg.Keymap(),
		input:   ti,
		matches: -1,
	}
	m.ctl = nav.New(buf, 1, max(cfg.Editor.BytesPerRow, 16))
	if !cfg.Editor.BigEndian {
		m.ctl.Handle(nav.ActToggleEndian)
	}
	if !cfg.Editor.ShowInspector {
		m.ctl.Handle(nav.ActToggleInspector)
	}
	for _, w := range cfg.Warnings {
		logger.Warnf("%s", w)
	}
	if buf.ReadOnly() {
		m.statusMsg = "read-only"
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Controller exposes the navigation state, mostly for tests.
func (m *Model) Controller() *nav.Controller {
	return m.ctl
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, m.prefetchCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case searchMsg:
		if msg.Gen == m.searchGen {
			m.searchCancel = nil
		}
		res := m.ctl.ApplySearch(nav.SearchResult(msg))
		return m, m.apply(res)

	case countMsg:
		if msg.gen == m.searchGen && msg.err == nil {
			m.matches = msg.n
			m.matchGen = msg.gen
		}
		return m, nil

	case tea.MouseMsg:
		if m.view != ViewMain || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		row, col, ok := m.cellAt(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		m.statusMsg = ""
		return m, m.apply(m.ctl.Click(row, col))

	case prefetchMsg:
		m.cache.Accept(prefetch.Result(msg))
		return m, nil
	}
	return m, nil
}

// layout recomputes rows and bytes per row from the window size.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	rows := max(m.height-chromeLines-m.panelHeight(), 1)
	bpr := m.config.Editor.BytesPerRow
	if bpr == 0 {
		bpr = fitBytesPerRow(m.width, m.buf.Len())
	}
	vp := m.ctl.Viewport()
	if vp.Rows() != rows || vp.BytesPerRow() != bpr {
		m.ctl.Resize(rows, bpr)
	}
}

func (m *Model) panelHeight() int {
	switch m.view {
	case ViewFind, ViewGoto, ViewSaveAs:
		return panelLines
	}
	if m.ctl.Inspector() {
		return panelLines
	}
	return 0
}

// rowWidth is the printed width of one grid row.
func rowWidth(bytesPerRow int, length int64) int {
	w := render.OffsetWidth(length) + 2
	for i := 0; i < bytesPerRow; i++ {
		w += 2 + len(render.Gap(i, bytesPerRow))
	}
	return w + 2 + bytesPerRow
}

// cellAt maps a screen position to a grid row and column. A click in the
// hex area picks the byte under it (a gap belongs to the byte on its left);
// a click in the ASCII area picks that character.
func (m *Model) cellAt(x, y int) (row, col int, ok bool) {
	vp := m.ctl.Viewport()
	row = y - gridTop
	if row < 0 || row >= vp.Rows() {
		return 0, 0, false
	}
	bpr := vp.BytesPerRow()
	x -= render.OffsetWidth(m.buf.Len()) + 2
	if x < 0 {
		return 0, 0, false
	}
	for col = 0; col < bpr; col++ {
		w := 2 + len(render.Gap(col, bpr))
		if x < w {
			return row, col, true
		}
		x -= w
	}
	x -= 2
	if x < 0 {
		return row, bpr - 1, true
	}
	return row, min(x, bpr-1), true
}

// fitBytesPerRow is the widest multiple of four that fits in width.
func fitBytesPerRow(width int, length int64) int {
	bpr := 4
	for next := 8; next <= maxBytesPerRow && rowWidth(next, length) <= width; next += 4 {
		bpr = next
	}
	return bpr
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""

	switch m.view {
	case ViewHelp:
		return m.handleHelpKey(msg)
	case ViewFind:
		return m.handleFindKey(msg)
	case ViewGoto:
		return m.handleGotoKey(msg)
	case ViewSaveAs:
		return m.handleSaveAsKey(msg)
	case ViewConfirmQuit:
		return m.handleConfirmQuitKey(msg)
	case ViewFileChangedPrompt:
		return m.handleFileChangedPromptKey(msg)
	default:
		return m.handleMainKey(msg)
	}
}

func (m *Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if _, editing := m.ctl.Mode().(nav.Editing); editing && msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		if r := msg.Runes[0]; unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return m, m.apply(m.ctl.HexDigit(r))
		}
	}

	action, ok := m.keys.Lookup(msg.String())
	if !ok {
		logger.DebugTagf("keys", "unbound key %q", msg.String())
		return m, nil
	}
	return m, m.apply(m.ctl.Handle(action))
}

// apply carries out the effects of a controller step.
func (m *Model) apply(res nav.Result) tea.Cmd {
	if res.Status != "" {
		m.statusMsg = res.Status
	}
	var cmds []tea.Cmd

	switch res.Prompt {
	case nav.PromptFind:
		m.openPrompt(ViewFind, "")
	case nav.PromptGoTo:
		m.openPrompt(ViewGoto, "")
	case nav.PromptSaveAs:
		m.openPrompt(ViewSaveAs, m.buf.Filename())
	}

	if res.Search != nil {
		cmds = append(cmds, m.startSearch(*res.Search))
	}
	if res.Copy != nil {
		m.copyToClipboard(res.Copy)
	}
	if res.Help {
		m.view = ViewHelp
	}
	if res.Save {
		cmds = append(cmds, m.trySave())
	}
	if res.Quit {
		cmds = append(cmds, m.tryQuit())
	}

	m.layout()
	if res.Scrolled != 0 || res.Changed {
		cmds = append(cmds, m.prefetchCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) openPrompt(v View, value string) {
	m.view = v
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	switch v {
	case ViewFind:
		m.input.Placeholder = m.findKind().String() + " pattern"
	case ViewGoto:
		m.input.Placeholder = "offset, decimal or 0x hex"
	case ViewSaveAs:
		m.input.Placeholder = "file name"
	}
}

func (m *Model) closePrompt() {
	m.input.Blur()
	m.input.SetValue("")
	m.view = ViewMain
	m.layout()
}

func (m *Model) findKind() search.Kind {
	if s, ok := m.ctl.Mode().(nav.Searching); ok {
		return s.Kind
	}
	return search.Text
}

func (m *Model) copyToClipboard(data []byte) {
	if !m.config.Editor.SystemClipboard {
		return
	}
	if err := clipboardWrite(fmt.Sprintf("% X", data)); err != nil {
		logger.Warnf("system clipboard: %v", err)
		m.statusMsg += " (system clipboard unavailable)"
	}
}

func (m *Model) tryQuit() tea.Cmd {
	if m.buf.IsModified() {
		m.view = ViewConfirmQuit
		return nil
	}
	return m.quit()
}

func (m *Model) quit() tea.Cmd {
	m.cancelSearch()
	return tea.Quit
}

func (m *Model) trySave() tea.Cmd {
	if m.buf.ReadOnly() && !m.buf.IsNew() {
		m.statusMsg = buffer.ErrReadOnly.Error()
		return nil
	}
	if m.buf.IsNew() || m.buf.Filename() == "" {
		m.openPrompt(ViewSaveAs, "")
		return nil
	}

	changed, err := m.buf.HasChangedOnDisk()
	if err != nil {
		logger.Warnf("checking %s on disk: %v", m.buf.Filename(), err)
	}
	if changed {
		m.view = ViewFileChangedPrompt
		return nil
	}
	return m.save()
}

func (m *Model) save() tea.Cmd {
	m.cancelSearch()
	if err := m.buf.Save(); err != nil {
		logger.Errorf("save %s: %v", m.buf.Filename(), err)
		m.statusMsg = fmt.Sprintf("Error saving: %v", err)
		return nil
	}
	m.statusMsg = "File saved"
	return m.afterSave()
}

func (m *Model) afterSave() tea.Cmd {
	m.cache.Invalidate()
	m.ctl.Sync()
	m.layout()
	return m.prefetchCmd()
}

func (m *Model) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, _ := m.keys.Lookup(msg.String())
	switch {
	case msg.Type == tea.KeyEsc, action == nav.ActHelp, action == nav.ActQuit, action == nav.ActCancel:
		m.view = ViewMain
	}
	return m, nil
}

func (m *Model) handleFindKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, m.apply(m.ctl.Cancel())
	case tea.KeyUp, tea.KeyDown:
		kind := m.findKind().Next()
		if msg.Type == tea.KeyUp {
			kind = m.findKind().Prev()
		}
		m.ctl.SetSearchKind(kind)
		m.openPrompt(ViewFind, "")
		return m, nil
	case tea.KeyTab:
		m.findBackward = !m.findBackward
		return m, nil
	case tea.KeyEnter:
		return m, m.submitFind()
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if !m.findKind().Accepts(r) {
				return m, nil
			}
		}
	case tea.KeySpace:
		if !m.findKind().Accepts(' ') {
			return m, nil
		}
	default:
		switch action, _ := m.keys.Lookup(msg.String()); action {
		case nav.ActFindText:
			m.ctl.SetSearchKind(search.Text)
			m.openPrompt(ViewFind, "")
			return m, nil
		case nav.ActFindHex:
			m.ctl.SetSearchKind(search.Hex)
			m.openPrompt(ViewFind, "")
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submitFind() tea.Cmd {
	pattern, err := search.ParsePattern(m.findKind(), m.input.Value(), m.ctl.BigEndian(), m.config.Editor.SearchWidth)
	if err != nil {
		m.statusMsg = err.Error()
		return nil
	}
	req := m.ctl.SubmitSearch(pattern, m.findBackward)
	m.closePrompt()
	m.statusMsg = "searching..."
	return m.startSearch(req)
}

func (m *Model) handleGotoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, m.apply(m.ctl.Cancel())
	case tea.KeyEnter:
		value := m.input.Value()
		m.closePrompt()
		return m, m.apply(m.ctl.SubmitGoto(value))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSaveAsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.saveThenQuit = false
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		name := m.input.Value()
		if name == "" {
			return m, nil
		}
		m.cancelSearch()
		if err := m.buf.SaveAs(name); err != nil {
			logger.Errorf("save as %s: %v", name, err)
			m.statusMsg = fmt.Sprintf("Error: %v", err)
			return m, nil
		}
		m.closePrompt()
		m.statusMsg = "File saved"
		if m.saveThenQuit {
			return m, m.quit()
		}
		return m, m.afterSave()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmQuitKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m, m.quit()
	case "s", "S":
		if m.buf.IsNew() {
			m.saveThenQuit = true
			m.openPrompt(ViewSaveAs, "")
			return m, nil
		}
		m.view = ViewMain
		cmd := m.save()
		if m.buf.IsModified() {
			return m, cmd
		}
		return m, m.quit()
	case "n", "N", "esc":
		m.view = ViewMain
	}
	return m, nil
}

func (m *Model) handleFileChangedPromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.view = ViewMain
		return m, m.save()
	case "n", "N", "esc":
		m.view = ViewMain
		m.statusMsg = "save cancelled"
	}
	return m, nil
}
