package nav

import "sort"

// Action is a named command a key can be bound to.
type Action int

const (
	ActNone Action = iota
	ActLeft
	ActRight
	ActUp
	ActDown
	ActPageUp
	ActPageDown
	ActRowStart
	ActRowEnd
	ActFileStart
	ActFileEnd
	ActScrollUp
	ActScrollDown
	ActSelectLeft
	ActSelectRight
	ActSelectUp
	ActSelectDown
	ActToggleSelect
	ActTogglePager
	ActInsert
	ActReplace
	ActDelete
	ActBackspace
	ActCut
	ActCopy
	ActPaste
	ActUndo
	ActRedo
	ActFind
	ActFindText
	ActFindHex
	ActFindNext
	ActFindPrev
	ActGoTo
	ActSave
	ActSaveAs
	ActQuit
	ActHelp
	ActToggleEndian
	ActToggleInspector
	ActCancel
)

var actionNames = map[Action]string{
	ActLeft:            "left",
	ActRight:           "right",
	ActUp:              "up",
	ActDown:            "down",
	ActPageUp:          "page_up",
	ActPageDown:        "page_down",
	ActRowStart:        "row_start",
	ActRowEnd:          "row_end",
	ActFileStart:       "file_start",
	ActFileEnd:         "file_end",
	ActScrollUp:        "scroll_up",
	ActScrollDown:      "scroll_down",
	ActSelectLeft:      "select_left",
	ActSelectRight:     "select_right",
	ActSelectUp:        "select_up",
	ActSelectDown:      "select_down",
	ActToggleSelect:    "toggle_select",
	ActTogglePager:     "toggle_cursor",
	ActInsert:          "insert",
	ActReplace:         "replace",
	ActDelete:          "delete",
	ActBackspace:       "backspace",
	ActCut:             "cut",
	ActCopy:            "copy",
	ActPaste:           "paste",
	ActUndo:            "undo",
	ActRedo:            "redo",
	ActFind:            "find",
	ActFindText:        "find_text",
	ActFindHex:         "find_binary",
	ActFindNext:        "find_next",
	ActFindPrev:        "find_prev",
	ActGoTo:            "go_to",
	ActSave:            "save",
	ActSaveAs:          "save_as",
	ActQuit:            "quit",
	ActHelp:            "help",
	ActToggleEndian:    "toggle_endian",
	ActToggleInspector: "toggle_inspector",
	ActCancel:          "cancel",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, name := range actionNames {
		m[name] = a
	}
	return m
}()

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "none"
}

// ActionByName looks up an action by its config name.
func ActionByName(name string) (Action, bool) {
	a, ok := actionsByName[name]
	return a, ok
}

// ActionNames returns every bindable action name, sorted.
func ActionNames() []string {
	names := make([]string, 0, len(actionNames))
	for _, name := range actionNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
