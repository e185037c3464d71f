package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lesbin/internal/inspect"
	"lesbin/internal/logger"
	"lesbin/internal/nav"
	"lesbin/internal/render"
	"lesbin/internal/search"
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderLegend())
	b.WriteString("\n")

	switch m.view {
	case ViewHelp:
		b.WriteString(m.renderHelp())
		return b.String()
	case ViewConfirmQuit:
		b.WriteString(m.renderMainView())
		b.WriteString("\n")
		b.WriteString(m.renderConfirmDialog("Unsaved changes. Quit anyway? (Y)es/(N)o/(S)ave and quit"))
	case ViewFileChangedPrompt:
		b.WriteString(m.renderMainView())
		b.WriteString("\n")
		b.WriteString(m.renderConfirmDialog("File changed on disk. Overwrite? (Y/N)"))
	default:
		b.WriteString(m.renderMainView())
		if panel := m.renderPanel(); panel != "" {
			b.WriteString("\n")
			b.WriteString(panel)
		}
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

// frame collects what the render model needs for the current view. A read
// failure is reported on the status line; the cells show placeholders.
func (m *Model) frame() render.Frame {
	vp := m.ctl.Viewport()
	length := m.buf.Len()
	f := render.FrameFor(vp, length)
	f.Cursor = m.ctl.Cursor()
	f.ShowCursor = !m.ctl.Pager()
	if sel, ok := m.ctl.Selection(); ok {
		f.Selection = sel
	}
	if m.ctl.Inspector() {
		f.Inspect = [2]int64{f.Cursor, min(f.Cursor+inspect.Width, length)}
	}

	if w, ok := m.cache.Lookup(m.buf.Revision(), vp.Base(), vp.Span(), length); ok {
		f.Window = w
		return f
	}
	w, err := m.buf.Window(vp.Base(), vp.Span())
	if err != nil {
		logger.Warnf("render window at 0x%X: %v", vp.Base(), err)
		if m.statusMsg == "" {
			m.statusMsg = err.Error()
		}
	}
	f.Window = w
	return f
}

func (m *Model) renderMainView() string {
	grid := render.Render(m.frame())
	var b strings.Builder
	b.WriteString(m.renderColumnHeader(grid))
	for _, row := range grid.Rows {
		b.WriteString("\n")
		b.WriteString(m.renderRow(row, grid.BytesPerRow))
	}
	return b.String()
}

func (m *Model) renderColumnHeader(g render.Grid) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", render.OffsetWidth(m.buf.Len())+2))
	for i, label := range render.HeaderLabels(g.BytesPerRow) {
		if i == g.CursorCol {
			label = m.styles.IndexMarker.Render(label)
		}
		b.WriteString(label)
		b.WriteString(render.Gap(i, g.BytesPerRow))
	}
	return b.String()
}

func (m *Model) renderRow(row render.Row, bytesPerRow int) string {
	if row.Past && row.Label == "" {
		return ""
	}
	label := row.Label + "  "
	if row.HasCursor {
		label = m.styles.IndexMarker.Render(label)
	}

	var hex, ascii strings.Builder
	for col, cell := range row.Cells {
		style := m.cellStyle(cell)
		hex.WriteString(style.Render(cell.Hex))
		hex.WriteString(render.Gap(col, bytesPerRow))
		ascii.WriteString(style.Render(cell.ASCII))
	}
	return label + hex.String() + "  " + ascii.String()
}

func (m *Model) cellStyle(c render.Cell) lipgloss.Style {
	switch {
	case c.Style.Has(render.Cursor):
		if ed, ok := m.ctl.Mode().(nav.Editing); ok {
			if ed.Insert {
				return m.styles.CursorInsert
			}
			return m.styles.CursorReplace
		}
		return m.styles.Cursor
	case c.Style.Has(render.Selected):
		return m.styles.Selection
	case c.Style.Has(render.Unreadable):
		return m.styles.Unreadable
	case c.Style.Has(render.Modified):
		return m.styles.Modified
	case c.Style.Has(render.Inspected):
		return m.styles.Inspected
	case c.Style.Has(render.Zero):
		return m.styles.Disabled
	}
	return m.styles.Normal
}

func (m *Model) renderStatus() string {
	mode := m.ctl.Mode().Name()
	if m.ctl.Pager() {
		mode += " PAGER"
	}
	line := render.Status(render.StatusInfo{
		Filename: m.buf.Filename(),
		Offset:   m.ctl.Cursor(),
		Length:   m.buf.Len(),
		Mode:     mode,
		Dirty:    m.buf.IsModified(),
		ReadOnly: m.buf.ReadOnly(),
		Message:  m.statusMsg,
		Width:    m.width,
	})
	if !m.buf.IsModified() {
		return m.styles.Status.Width(m.width).Render(line)
	}
	// The file name leads the line; draw it in the unsaved colour.
	name, rest, _ := strings.Cut(line, " ")
	if rest != "" {
		rest = " " + rest
	}
	pad := max(m.width-lipgloss.Width(line), 0)
	return m.filenameStyle().Render(name) + m.styles.Status.Render(rest+strings.Repeat(" ", pad))
}

// filenameStyle is the status line style for the file name.
func (m *Model) filenameStyle() lipgloss.Style {
	if m.buf.IsModified() {
		return m.styles.UnsavedFile.Inherit(m.styles.Status)
	}
	return m.styles.Status
}

// keyLabel shortens a bubbletea key name for the legend.
func keyLabel(key string) string {
	if rest, ok := strings.CutPrefix(key, "ctrl+"); ok && len(rest) == 1 {
		return "^" + strings.ToUpper(rest)
	}
	return key
}

var legendActions = []struct {
	action nav.Action
	label  string
}{
	{nav.ActQuit, "Quit"},
	{nav.ActHelp, "Help"},
	{nav.ActSave, "Save"},
	{nav.ActInsert, "Insert"},
	{nav.ActReplace, "Replace"},
	{nav.ActFind, "Find"},
	{nav.ActGoTo, "Goto"},
	{nav.ActToggleEndian, "Endian"},
	{nav.ActUndo, "Undo"},
	{nav.ActRedo, "Redo"},
}

func (m *Model) renderLegend() string {
	var items []string
	switch m.view {
	case ViewMain:
		for _, l := range legendActions {
			keys := m.keys.KeysFor(l.action)
			if len(keys) == 0 {
				continue
			}
			disabled := (l.action == nav.ActUndo && !m.buf.CanUndo()) ||
				(l.action == nav.ActRedo && !m.buf.CanRedo())
			if disabled {
				items = append(items, m.styles.Disabled.Render(keyLabel(keys[0])+" "+l.label))
				continue
			}
			items = append(items, m.styles.LegendHighlight.Render(keyLabel(keys[0]))+m.styles.Legend.Render(" "+l.label))
		}
	case ViewFind:
		items = append(items,
			m.styles.LegendHighlight.Render("Up/Down")+m.styles.Legend.Render(" Kind"),
			m.styles.LegendHighlight.Render("Tab")+m.styles.Legend.Render(" Direction"),
			m.styles.LegendHighlight.Render("ESC")+m.styles.Legend.Render(" Back"))
	default:
		items = append(items, m.styles.LegendHighlight.Render("ESC")+m.styles.Legend.Render(" Back"))
	}
	legend := strings.Join(items, m.styles.Legend.Render(" | "))
	return m.styles.Legend.Width(m.width).Render(legend)
}

// renderPanel draws the open prompt, or the inspector when none is open.
func (m *Model) renderPanel() string {
	switch m.view {
	case ViewFind:
		return m.renderFind()
	case ViewGoto:
		return m.renderPrompt("GOTO OFFSET", "Prefix with 0x for a hex offset")
	case ViewSaveAs:
		return m.renderPrompt("SAVE AS", "Enter to save, ESC to cancel")
	}
	if m.ctl.Inspector() {
		return m.renderDecoder()
	}
	return ""
}

func (m *Model) renderPrompt(title, hint string) string {
	var b strings.Builder
	b.WriteString(m.styles.HelpTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.HelpDesc.Render(hint))
	return b.String()
}

func (m *Model) renderFind() string {
	var b strings.Builder
	b.WriteString(m.styles.HelpTitle.Render("FIND"))
	b.WriteString("\n")
	current := m.findKind()
	for _, kind := range search.Kinds {
		prefix := "  "
		if kind == current {
			prefix = "> "
		}
		b.WriteString(prefix + kind.String())
		if kind == current {
			b.WriteString(": " + m.input.View())
		}
		b.WriteString("\n")
	}
	dir := "forward"
	if m.findBackward {
		dir = "backward"
	}
	b.WriteString(m.styles.HelpDesc.Render(fmt.Sprintf("Direction: %s", dir)))
	if m.matches >= 0 && m.matchGen == m.searchGen {
		b.WriteString(m.styles.HelpDesc.Render(fmt.Sprintf("  Last search: %d matches", m.matches)))
	}
	return b.String()
}

func (m *Model) renderDecoder() string {
	data := m.buf.GetBytes(m.ctl.Cursor(), inspect.Width)
	v := inspect.Decode(data, m.ctl.BigEndian())

	var b strings.Builder
	endian := "Big"
	if !v.BigEndian {
		endian = "Little"
	}
	b.WriteString(m.styles.DecoderLabel.Render("Endianness: "))
	b.WriteString(m.styles.DecoderValue.Render(endian))
	b.WriteString("\n")

	b.WriteString(m.styles.DecoderLabel.Render("Bits (0-63):   "))
	b.WriteString(m.styles.DecoderValue.Render(v.Bits[0]))
	b.WriteString("\n")
	b.WriteString(m.styles.DecoderLabel.Render("Bits (64-127): "))
	b.WriteString(m.styles.DecoderValue.Render(v.Bits[1]))
	b.WriteString("\n")

	b.WriteString(m.renderFields(v.Ints))
	b.WriteString("\n")
	b.WriteString(m.renderFields(v.Wide))
	b.WriteString("\n")
	b.WriteString(m.renderFields(v.Floats))
	if m.matches >= 0 && m.matchGen == m.searchGen {
		b.WriteString(m.styles.DecoderLabel.Render(fmt.Sprintf("  matches: %d", m.matches)))
	}
	return b.String()
}

func (m *Model) renderFields(fields []inspect.Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, m.styles.DecoderLabel.Render(f.Label+": ")+m.styles.DecoderValue.Render(f.Value))
	}
	return strings.Join(parts, "  ")
}

var helpSections = []struct {
	title   string
	actions []nav.Action
}{
	{"NAVIGATION", []nav.Action{
		nav.ActLeft, nav.ActRight, nav.ActUp, nav.ActDown,
		nav.ActPageUp, nav.ActPageDown, nav.ActRowStart, nav.ActRowEnd,
		nav.ActFileStart, nav.ActFileEnd, nav.ActScrollUp, nav.ActScrollDown,
		nav.ActTogglePager, nav.ActGoTo,
	}},
	{"SELECTION", []nav.Action{
		nav.ActToggleSelect, nav.ActSelectLeft, nav.ActSelectRight, nav.ActSelectUp, nav.ActSelectDown,
	}},
	{"EDITING", []nav.Action{
		nav.ActInsert, nav.ActReplace, nav.ActDelete, nav.ActBackspace,
		nav.ActCut, nav.ActCopy, nav.ActPaste, nav.ActUndo, nav.ActRedo,
	}},
	{"SEARCH", []nav.Action{
		nav.ActFind, nav.ActFindText, nav.ActFindHex, nav.ActFindNext, nav.ActFindPrev,
	}},
	{"OTHER", []nav.Action{
		nav.ActSave, nav.ActSaveAs, nav.ActToggleEndian, nav.ActToggleInspector,
		nav.ActHelp, nav.ActCancel, nav.ActQuit,
	}},
}

var helpText = map[nav.Action]string{
	nav.ActLeft:            "Move left one byte",
	nav.ActRight:           "Move right one byte",
	nav.ActUp:              "Move up one row",
	nav.ActDown:            "Move down one row",
	nav.ActPageUp:          "Page up",
	nav.ActPageDown:        "Page down",
	nav.ActRowStart:        "Start of row",
	nav.ActRowEnd:          "End of row",
	nav.ActFileStart:       "Start of file",
	nav.ActFileEnd:         "End of file",
	nav.ActScrollUp:        "Scroll the view up",
	nav.ActScrollDown:      "Scroll the view down",
	nav.ActTogglePager:     "Toggle pager mode (arrows scroll)",
	nav.ActGoTo:            "Go to offset",
	nav.ActToggleSelect:    "Start or clear a selection",
	nav.ActSelectLeft:      "Extend selection left",
	nav.ActSelectRight:     "Extend selection right",
	nav.ActSelectUp:        "Extend selection up",
	nav.ActSelectDown:      "Extend selection down",
	nav.ActInsert:          "Insert mode (type hex digits)",
	nav.ActReplace:         "Replace mode (type hex digits)",
	nav.ActDelete:          "Delete byte or selection",
	nav.ActBackspace:       "Delete byte before cursor",
	nav.ActCut:             "Cut",
	nav.ActCopy:            "Copy",
	nav.ActPaste:           "Paste",
	nav.ActUndo:            "Undo",
	nav.ActRedo:            "Redo",
	nav.ActFind:            "Find",
	nav.ActFindText:        "Find text",
	nav.ActFindHex:         "Find hex bytes",
	nav.ActFindNext:        "Find next",
	nav.ActFindPrev:        "Find previous",
	nav.ActSave:            "Save",
	nav.ActSaveAs:          "Save as",
	nav.ActToggleEndian:    "Toggle endianness",
	nav.ActToggleInspector: "Show or hide the inspector",
	nav.ActHelp:            "Help (this screen)",
	nav.ActCancel:          "Leave the current mode",
	nav.ActQuit:            "Quit",
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.HelpTitle.Render("HELP - lesbin hex viewer"))
	b.WriteString("\n")
	for _, sec := range helpSections {
		b.WriteString("\n")
		b.WriteString(m.styles.HelpTitle.Render(sec.title))
		b.WriteString("\n")
		for _, a := range sec.actions {
			keys := m.keys.KeysFor(a)
			if len(keys) == 0 {
				continue
			}
			labels := make([]string, len(keys))
			for i, k := range keys {
				labels[i] = keyLabel(k)
			}
			b.WriteString("  ")
			b.WriteString(m.styles.HelpKey.Render(fmt.Sprintf("%-18s", strings.Join(labels, " / "))))
			b.WriteString(m.styles.HelpDesc.Render(helpText[a]))
			b.WriteString("\n")
		}
	}
	b.WriteString("\nPress ESC to close this help screen.\n")
	return b.String()
}

func (m *Model) renderConfirmDialog(message string) string {
	return m.styles.Border.Render(message)
}
