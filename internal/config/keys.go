package config

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"lesbin/internal/nav"
)

// KeyList is the keys bound to one action. In TOML it may be a single
// string or an array of strings.
type KeyList []string

// UnmarshalTOML implements toml.Unmarshaler.
func (k *KeyList) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*k = KeyList{v}
	case []any:
		keys := make(KeyList, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("key binding %v is not a string", item)
			}
			keys = append(keys, s)
		}
		*k = keys
	default:
		return fmt.Errorf("key binding must be a string or an array of strings, got %T", v)
	}
	return nil
}

// DefaultKeys is the built-in binding table.
func DefaultKeys() map[string]KeyList {
	return map[string]KeyList{
		"left":             {"left", "h"},
		"right":            {"right", "l"},
		"up":               {"up", "k"},
		"down":             {"down", "j"},
		"page_up":          {"pgup", "ctrl+u"},
		"page_down":        {"pgdown", "ctrl+d"},
		"row_start":        {"home", "0"},
		"row_end":          {"end", "$"},
		"file_start":       {"ctrl+home", "g"},
		"file_end":         {"ctrl+end", "G"},
		"scroll_up":        {"ctrl+up", "^y"},
		"scroll_down":      {"ctrl+down", "^e"},
		"select_left":      {"shift+left"},
		"select_right":     {"shift+right"},
		"select_up":        {"shift+up"},
		"select_down":      {"shift+down"},
		"toggle_select":    {"v"},
		"toggle_cursor":    {"^t"},
		"insert":           {"i", "insert"},
		"replace":          {"r"},
		"delete":           {"delete", "x"},
		"backspace":        {"backspace"},
		"cut":              {"^x"},
		"copy":             {"^c", "y"},
		"paste":            {"^v", "p"},
		"undo":             {"u", "^z"},
		"redo":             {"^r"},
		"find":             {"/", "^f"},
		"find_text":        {"t"},
		"find_binary":      {"^b"},
		"find_next":        {"n"},
		"find_prev":        {"N"},
		"go_to":            {"^g", ":"},
		"save":             {"^s"},
		"save_as":          {"^w"},
		"quit":             {"q", "^q"},
		"help":             {"?", "f1"},
		"toggle_endian":    {"^n"},
		"toggle_inspector": {"tab"},
		"cancel":           {"esc"},
	}
}

var keyAliases = map[string]string{
	"space":    " ",
	"escape":   "esc",
	"return":   "enter",
	"pageup":   "pgup",
	"pagedown": "pgdown",
	"del":      "delete",
	"ins":      "insert",
}

// NormalizeKey turns a configured key into the string bubbletea reports
// for it. "^x" is ctrl+x and matches either case of x. A single character
// keeps its case; named keys are lowercased.
func NormalizeKey(s string) (string, error) {
	if s == " " {
		return s, nil
	}
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", fmt.Errorf("empty key")
	case utf8.RuneCountInString(s) == 1:
		return s, nil
	case strings.HasPrefix(s, "^"):
		rest := s[1:]
		if utf8.RuneCountInString(rest) != 1 {
			return "", fmt.Errorf("key %q: ^ takes exactly one character", s)
		}
		return "ctrl+" + strings.ToLower(rest), nil
	}
	s = strings.ToLower(s)
	if alias, ok := keyAliases[s]; ok {
		return alias, nil
	}
	return s, nil
}

// Keymap maps a bubbletea key string to an action.
type Keymap map[string]nav.Action

// Keymap builds the lookup table from the [keys] table. Unknown actions
// and malformed keys are reported in Warnings and skipped. The arrow keys
// always move unless a binding claims them.
func (c *Config) Keymap() Keymap {
	km := make(Keymap)
	names := make([]string, 0, len(c.Keys))
	for name := range c.Keys {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		action, ok := nav.ActionByName(name)
		if !ok {
			c.warnf("keys.%s: unknown action", name)
			continue
		}
		for _, raw := range c.Keys[name] {
			key, err := NormalizeKey(raw)
			if err != nil {
				c.warnf("keys.%s: %v", name, err)
				continue
			}
			if prev, ok := km[key]; ok && prev != action {
				c.warnf("keys.%s: %q is already bound to %s", name, key, prev)
				continue
			}
			km[key] = action
		}
	}

	for key, action := range map[string]nav.Action{
		"left":  nav.ActLeft,
		"right": nav.ActRight,
		"up":    nav.ActUp,
		"down":  nav.ActDown,
	} {
		if _, ok := km[key]; !ok {
			km[key] = action
		}
	}
	return km
}

// Lookup returns the action bound to key.
func (k Keymap) Lookup(key string) (nav.Action, bool) {
	a, ok := k[key]
	return a, ok
}

// KeysFor lists the keys bound to a, sorted, for the help screen.
func (k Keymap) KeysFor(a nav.Action) []string {
	var keys []string
	for key, action := range k {
		if action == a {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
