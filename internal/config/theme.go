package config

import (
	"regexp"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// validColor accepts #RGB, #RRGGBB and ANSI colour numbers.
func validColor(s string) bool {
	if hexColor.MatchString(s) {
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= 255
}

func (t *Theme) fields() []struct {
	name string
	val  *string
} {
	return []struct {
		name string
		val  *string
	}{
		{"cursor_background", &t.CursorBackground},
		{"cursor_insert_background", &t.CursorInsertBackground},
		{"cursor_replace_background", &t.CursorReplaceBackground},
		{"index_marker_background", &t.IndexMarkerBackground},
		{"legend_background", &t.LegendBackground},
		{"legend_highlight", &t.LegendHighlight},
		{"border_color", &t.BorderColor},
		{"endian_color", &t.EndianColor},
		{"selection_background", &t.SelectionBackground},
		{"modified_color", &t.ModifiedColor},
		{"unreadable_color", &t.UnreadableColor},
		{"unsaved_file_color", &t.UnsavedFileColor},
		{"disabled_color", &t.DisabledColor},
		{"inspected_background", &t.InspectedBackground},
	}
}

func (c *Config) validateTheme(defaults Theme) {
	want := defaults.fields()
	for i, f := range c.Theme.fields() {
		if !validColor(*f.val) {
			c.warnf("theme.%s %q is not a colour, using %s", f.name, *f.val, *want[i].val)
			*f.val = *want[i].val
		}
	}
}

type Styles struct {
	Cursor          lipgloss.Style
	CursorInsert    lipgloss.Style
	CursorReplace   lipgloss.Style
	IndexMarker     lipgloss.Style
	Legend          lipgloss.Style
	LegendHighlight lipgloss.Style
	Border          lipgloss.Style
	Endian          lipgloss.Style
	Selection       lipgloss.Style
	Modified        lipgloss.Style
	Unreadable      lipgloss.Style
	UnsavedFile     lipgloss.Style
	Disabled        lipgloss.Style
	Inspected       lipgloss.Style
	Normal          lipgloss.Style
	Status          lipgloss.Style
	DecoderLabel    lipgloss.Style
	DecoderValue    lipgloss.Style
	HelpTitle       lipgloss.Style
	HelpKey         lipgloss.Style
	HelpDesc        lipgloss.Style
}

func NewStyles(theme *Theme) *Styles {
	return &Styles{
		Cursor: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.CursorBackground)).
			Foreground(lipgloss.Color("#FFFFFF")),
		CursorInsert: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.CursorInsertBackground)).
			Foreground(lipgloss.Color("#FFFFFF")),
		CursorReplace: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.CursorReplaceBackground)).
			Foreground(lipgloss.Color("#000000")),
		IndexMarker: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.IndexMarkerBackground)).
			Foreground(lipgloss.Color("#FFFFFF")),
		Legend: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.LegendBackground)).
			Foreground(lipgloss.Color("#FFFFFF")),
		LegendHighlight: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.LegendBackground)).
			Foreground(lipgloss.Color(theme.LegendHighlight)).
			Bold(true),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.BorderColor)).
			Padding(0, 1),
		Endian: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.EndianColor)),
		Selection: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.SelectionBackground)).
			Foreground(lipgloss.Color("#000000")),
		Modified: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.ModifiedColor)).
			Bold(true),
		Unreadable: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.UnreadableColor)),
		UnsavedFile: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.UnsavedFileColor)),
		Disabled: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.DisabledColor)),
		Inspected: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.InspectedBackground)),
		Normal: lipgloss.NewStyle(),
		Status: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.LegendBackground)).
			Foreground(lipgloss.Color("#FFFFFF")),
		DecoderLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")),
		DecoderValue: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")),
		HelpTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")),
		HelpKey: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.LegendHighlight)).
			Bold(true),
		HelpDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")),
	}
}
