package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"lesbin/internal/buffer"
	"lesbin/internal/logger"
)

// Config is everything read from lesbin.toml.
type Config struct {
	Theme  Theme              `toml:"theme"`
	Editor EditorConfig       `toml:"editor"`
	Keys   map[string]KeyList `toml:"keys"`
	Logger LoggerConfig       `toml:"logger"`

	// Warnings collects problems found while loading. The logger is not
	// set up yet at that point, so main reports them afterwards.
	Warnings []string `toml:"-"`
}

// EditorConfig holds buffer and display settings.
type EditorConfig struct {
	// BytesPerRow is fixed when positive and fitted to the terminal when 0.
	BytesPerRow     int    `toml:"bytes_per_row"`
	MemoryThreshold int64  `toml:"memory_threshold"`
	PageSize        int    `toml:"page_size"`
	CachePages      int    `toml:"cache_pages"`
	SaveMode        string `toml:"save_mode"`
	ReadOnly        bool   `toml:"read_only"`
	BigEndian       bool   `toml:"big_endian"`
	ShowInspector   bool   `toml:"show_inspector"`
	Prefetch        bool   `toml:"prefetch"`
	PrefetchRows    int    `toml:"prefetch_rows"`
	SystemClipboard bool   `toml:"system_clipboard"`
	SearchWidth     int    `toml:"search_width"`
}

type LoggerConfig struct {
	LogLevel    string `toml:"log_level"`
	LogFilePath string `toml:"log_file"`
}

type Theme struct {
	CursorBackground        string `toml:"cursor_background"`
	CursorInsertBackground  string `toml:"cursor_insert_background"`
	CursorReplaceBackground string `toml:"cursor_replace_background"`
	IndexMarkerBackground   string `toml:"index_marker_background"`
	LegendBackground        string `toml:"legend_background"`
	LegendHighlight         string `toml:"legend_highlight"`
	BorderColor             string `toml:"border_color"`
	EndianColor             string `toml:"endian_color"`
	SelectionBackground     string `toml:"selection_background"`
	ModifiedColor           string `toml:"modified_color"`
	UnreadableColor         string `toml:"unreadable_color"`
	UnsavedFileColor        string `toml:"unsaved_file_color"`
	DisabledColor           string `toml:"disabled_color"`
	InspectedBackground     string `toml:"inspected_background"`
}

func defaultTheme() Theme {
	return Theme{
		CursorBackground:        "#0000FF",
		CursorInsertBackground:  "#FF0000",
		CursorReplaceBackground: "#FFFF00",
		IndexMarkerBackground:   "#000080",
		LegendBackground:        "#0000FF",
		LegendHighlight:         "#FF0000",
		BorderColor:             "#0000FF",
		EndianColor:             "#333333",
		SelectionBackground:     "#FFAA00",
		ModifiedColor:           "#FF5555",
		UnreadableColor:         "#AA0000",
		UnsavedFileColor:        "#FF0000",
		DisabledColor:           "#666666",
		InspectedBackground:     "#004444",
	}
}

// NewDefaultConfig returns the built-in configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Theme: defaultTheme(),
		Editor: EditorConfig{
			MemoryThreshold: buffer.DefaultMemoryThreshold,
			PageSize:        buffer.DefaultPageSize,
			CachePages:      buffer.DefaultCachePages,
			SaveMode:        SaveModeAtomic,
			BigEndian:       true,
			ShowInspector:   true,
			Prefetch:        true,
			PrefetchRows:    64,
			SystemClipboard: true,
			SearchWidth:     4,
		},
		Keys: DefaultKeys(),
		Logger: LoggerConfig{
			LogLevel: "info",
		},
	}
}

// ConfigPath is the default location of the config file.
func ConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, ConfigDirName, DefaultConfigFileName)
}

// Load reads the config at path over the defaults. An empty path means
// ConfigPath, and a missing default file is not an error. Invalid values
// are reset to their defaults and noted in Warnings.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		cfg.validate()
		return cfg, nil
	case err != nil:
		return cfg, fmt.Errorf("config file %q: %w", path, err)
	}

	if err := cfg.loadFromFile(path); err != nil {
		return cfg, err
	}
	cfg.validate()
	return cfg, nil
}

// loadFromFile decodes path on top of the values already in c. Tables
// present in the file replace individual keys; [keys] entries replace the
// binding of that one action.
func (c *Config) loadFromFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		c.warnf("config file %q: unrecognized keys: %v", path, undecoded)
	}
	return nil
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// validate resets invalid values to their defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()
	e := &c.Editor

	if e.BytesPerRow < 0 || e.BytesPerRow%4 != 0 {
		c.warnf("editor.bytes_per_row %d is not a multiple of 4, fitting to the terminal", e.BytesPerRow)
		e.BytesPerRow = 0
	}
	if e.PageSize < 512 {
		c.warnf("editor.page_size %d is too small, using %d", e.PageSize, defaults.Editor.PageSize)
		e.PageSize = defaults.Editor.PageSize
	}
	if e.CachePages < 1 {
		c.warnf("editor.cache_pages %d is too small, using %d", e.CachePages, defaults.Editor.CachePages)
		e.CachePages = defaults.Editor.CachePages
	}
	if e.SaveMode != SaveModeAtomic && e.SaveMode != SaveModeInPlace {
		c.warnf("editor.save_mode %q is not %q or %q", e.SaveMode, SaveModeAtomic, SaveModeInPlace)
		e.SaveMode = defaults.Editor.SaveMode
	}
	if e.PrefetchRows < 0 {
		e.PrefetchRows = defaults.Editor.PrefetchRows
	}
	if !slices.Contains(searchWidths, e.SearchWidth) {
		c.warnf("editor.search_width must be one of %v", searchWidths)
		e.SearchWidth = defaults.Editor.SearchWidth
	}

	if _, ok := logger.ParseLevel(c.Logger.LogLevel); !ok {
		c.warnf("logger.log_level %q is unknown, using %q", c.Logger.LogLevel, defaults.Logger.LogLevel)
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}

	c.validateTheme(defaults.Theme)
}

// BufferOptions maps the editor table onto buffer.Options.
func (c *Config) BufferOptions() buffer.Options {
	mode := buffer.SaveAtomic
	if c.Editor.SaveMode == SaveModeInPlace {
		mode = buffer.SaveInPlace
	}
	return buffer.Options{
		Source: buffer.SourceOptions{
			PageSize:        c.Editor.PageSize,
			CachePages:      c.Editor.CachePages,
			MemoryThreshold: c.Editor.MemoryThreshold,
		},
		ReadOnly: c.Editor.ReadOnly,
		SaveMode: mode,
	}
}

// Encode writes c as TOML, for -dump-config.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
