package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// StatusInfo is the data behind the status line.
type StatusInfo struct {
	Filename string
	Offset   int64
	Length   int64
	Mode     string
	Dirty    bool
	ReadOnly bool
	Message  string
	Width    int
}

// Percent is how far offset is through a file of length, 0 for an empty
// file.
func Percent(offset, length int64) int {
	if length <= 0 {
		return 0
	}
	return int(min(offset, length) * 100 / length)
}

// Status formats the status line and truncates it to the width in
// terminal cells.
func Status(s StatusInfo) string {
	name := filepath.Base(s.Filename)
	if s.Filename == "" {
		name = "[new]"
	}
	if s.Dirty {
		name += "*"
	}

	parts := []string{name}
	if s.ReadOnly {
		parts = append(parts, "[RO]")
	}
	if s.Mode != "" {
		parts = append(parts, "["+s.Mode+"]")
	}
	parts = append(parts,
		fmt.Sprintf("%x / %x, %d%%", s.Offset, s.Length, Percent(s.Offset, s.Length)),
		"("+humanize.IBytes(uint64(max(s.Length, 0)))+")",
	)
	line := strings.Join(parts, " ")
	if s.Message != "" {
		line += " | " + s.Message
	}
	if s.Width > 0 {
		line = runewidth.Truncate(line, s.Width, "…")
	}
	return line
}
