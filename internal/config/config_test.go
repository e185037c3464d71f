package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"

	"lesbin/internal/buffer"
	"lesbin/internal/nav"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lesbin.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if diff := cmp.Diff(NewDefaultConfig().Editor, cfg.Editor); diff != "" {
		t.Errorf("editor defaults mismatch (-want +got):\n%s", diff)
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", cfg.Warnings)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected an error for a missing -config file")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[editor]
bytes_per_row = 8
save_mode = "inplace"
prefetch = false

[theme]
cursor_background = "#123456"

[keys]
quit = "^x"
save = ["^s", "W"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Editor.BytesPerRow != 8 || cfg.Editor.SaveMode != SaveModeInPlace || cfg.Editor.Prefetch {
		t.Errorf("editor table not applied: %+v", cfg.Editor)
	}
	if !cfg.Editor.ShowInspector {
		t.Error("keys absent from the file should keep their defaults")
	}
	if cfg.Theme.CursorBackground != "#123456" || cfg.Theme.SelectionBackground != "#FFAA00" {
		t.Errorf("theme merge wrong: %+v", cfg.Theme)
	}
	if diff := cmp.Diff(KeyList{"^x"}, cfg.Keys["quit"]); diff != "" {
		t.Errorf("quit binding (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(KeyList{"^s", "W"}, cfg.Keys["save"]); diff != "" {
		t.Errorf("save binding (-want +got):\n%s", diff)
	}
	if _, ok := cfg.Keys["left"]; !ok {
		t.Error("unlisted actions should keep their default bindings")
	}
	if got := cfg.BufferOptions().SaveMode; got != buffer.SaveInPlace {
		t.Errorf("expected SaveInPlace, got %v", got)
	}
}

func TestLoadResetsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
colour = "blue"

[editor]
bytes_per_row = 6
cache_pages = 0
save_mode = "yolo"
search_width = 3

[logger]
log_level = "loud"

[theme]
modified_color = "reddish"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := NewDefaultConfig()
	if cfg.Editor.BytesPerRow != 0 ||
		cfg.Editor.CachePages != want.Editor.CachePages ||
		cfg.Editor.SaveMode != want.Editor.SaveMode ||
		cfg.Editor.SearchWidth != want.Editor.SearchWidth {
		t.Errorf("invalid editor values were kept: %+v", cfg.Editor)
	}
	if cfg.Logger.LogLevel != "info" {
		t.Errorf("expected log level reset to info, got %q", cfg.Logger.LogLevel)
	}
	if cfg.Theme.ModifiedColor != want.Theme.ModifiedColor {
		t.Errorf("expected colour reset, got %q", cfg.Theme.ModifiedColor)
	}
	// one undecoded key, four editor values, the level and the colour
	if len(cfg.Warnings) != 7 {
		t.Errorf("expected 7 warnings, got %d: %v", len(cfg.Warnings), cfg.Warnings)
	}
	if !strings.Contains(cfg.Warnings[0], "colour") {
		t.Errorf("first warning should name the unknown key: %q", cfg.Warnings[0])
	}
}

func TestLoadParseError(t *testing.T) {
	path := writeConfig(t, "[editor\nbytes_per_row = ")
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
	path = writeConfig(t, "[keys]\nquit = 3\n")
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a numeric key binding")
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"^x", "ctrl+x", false},
		{"^X", "ctrl+x", false},
		{"q", "q", false},
		{"N", "N", false},
		{"Ctrl+S", "ctrl+s", false},
		{"PageDown", "pgdown", false},
		{"space", " ", false},
		{" ", " ", false},
		{"Escape", "esc", false},
		{"", "", true},
		{"^ab", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeKey(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultKeymap(t *testing.T) {
	cfg := NewDefaultConfig()
	km := cfg.Keymap()
	if len(cfg.Warnings) != 0 {
		t.Fatalf("default bindings should be clean: %v", cfg.Warnings)
	}
	for name := range cfg.Keys {
		if _, ok := nav.ActionByName(name); !ok {
			t.Errorf("default binding for unknown action %q", name)
		}
	}
	checks := map[string]nav.Action{
		"ctrl+s":     nav.ActSave,
		"q":          nav.ActQuit,
		"ctrl+t":     nav.ActTogglePager,
		"ctrl+b":     nav.ActFindHex,
		"N":          nav.ActFindPrev,
		"shift+down": nav.ActSelectDown,
		"esc":        nav.ActCancel,
	}
	for key, want := range checks {
		if got, ok := km.Lookup(key); !ok || got != want {
			t.Errorf("%q: got %v, want %v", key, got, want)
		}
	}
	if diff := cmp.Diff([]string{"ctrl+q", "q"}, km.KeysFor(nav.ActQuit)); diff != "" {
		t.Errorf("quit keys (-want +got):\n%s", diff)
	}
}

func TestKeymapArrowsAlwaysMove(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Keys = map[string]KeyList{
		"left":  {"a"},
		"quit":  {"^q", "^Q"},
		"bogus": {"z"},
		"save":  {"^q"},
	}
	km := cfg.Keymap()
	if a, _ := km.Lookup("left"); a != nav.ActLeft {
		t.Error("left arrow should stay bound")
	}
	if a, _ := km.Lookup("a"); a != nav.ActLeft {
		t.Error("custom binding missing")
	}
	if a, _ := km.Lookup("ctrl+q"); a != nav.ActQuit {
		t.Errorf("ctrl+q should stay on quit, got %v", a)
	}
	// unknown action, and save losing ctrl+q to quit
	if len(cfg.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", cfg.Warnings)
	}
}

func TestFlagOverrides(t *testing.T) {
	f := DefineFlags("lesbin", io.Discard)
	rest, err := f.Parse([]string{"-cols", "24", "-readonly", "-loglevel", "debug", "dump.bin"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"dump.bin"}, rest); diff != "" {
		t.Errorf("positional args (-want +got):\n%s", diff)
	}

	cfg := NewDefaultConfig()
	cfg.Logger.LogFilePath = "/tmp/from-file.log"
	f.ApplyOverrides(cfg)
	if cfg.Editor.BytesPerRow != 24 || !cfg.Editor.ReadOnly || cfg.Logger.LogLevel != "debug" {
		t.Errorf("flags not applied: %+v %+v", cfg.Editor, cfg.Logger)
	}
	if cfg.Logger.LogFilePath != "/tmp/from-file.log" {
		t.Error("a flag that was not given must not override the file")
	}
	if !cfg.BufferOptions().ReadOnly {
		t.Error("read-only should reach buffer options")
	}
}

func TestFlagInvalidCols(t *testing.T) {
	f := DefineFlags("lesbin", io.Discard)
	if _, err := f.Parse([]string{"-cols", "7"}); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	f.ApplyOverrides(cfg)
	if cfg.Editor.BytesPerRow != 0 || len(cfg.Warnings) != 1 {
		t.Errorf("expected -cols 7 to be rejected, got %d %v", cfg.Editor.BytesPerRow, cfg.Warnings)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Editor.BytesPerRow = 32
	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	back := NewDefaultConfig()
	if _, err := toml.Decode(buf.String(), back); err != nil {
		t.Fatalf("encoded config does not decode: %v\n%s", err, buf.String())
	}
	if back.Editor.BytesPerRow != 32 {
		t.Errorf("bytes_per_row lost in round trip: %d", back.Editor.BytesPerRow)
	}
	if strings.Contains(buf.String(), "Warnings") {
		t.Error("warnings must not be written out")
	}
}
