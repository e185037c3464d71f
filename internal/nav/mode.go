package nav

import "lesbin/internal/search"

// Mode is what the controller is doing. Exactly one is active.
type Mode interface {
	Name() string
	isMode()
}

// Viewing is plain navigation.
type Viewing struct{}

// Selecting extends a selection from Anchor as the cursor moves.
type Selecting struct {
	Anchor int64
}

// Searching waits for a find pattern. Origin is the cursor when the prompt
// opened, restored on cancel.
type Searching struct {
	Kind     search.Kind
	Backward bool
	Origin   int64
}

// GoingTo waits for an offset.
type GoingTo struct {
	Origin int64
}

// Editing takes hex digits. Nibble is 1 when the high half of the byte
// under the cursor has just been typed.
type Editing struct {
	Insert bool
	Nibble int
}

func (Viewing) Name() string   { return "VIEW" }
func (Selecting) Name() string { return "SELECT" }
func (Searching) Name() string { return "FIND" }
func (GoingTo) Name() string   { return "GOTO" }
func (e Editing) Name() string {
	if e.Insert {
		return "INSERT"
	}
	return "REPLACE"
}

func (Viewing) isMode()   {}
func (Selecting) isMode() {}
func (Searching) isMode() {}
func (GoingTo) isMode()   {}
func (Editing) isMode()   {}
