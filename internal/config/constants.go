package config

// Base application details
const AppName = "lesbin"
const ConfigDirName = "lesbin"
const DefaultConfigFileName = "lesbin.toml"
const Version = "0.3.0"

// Save modes accepted by editor.save_mode.
const (
	SaveModeAtomic  = "atomic"
	SaveModeInPlace = "inplace"
)

// Widths accepted by editor.search_width for decimal find patterns.
var searchWidths = []int{1, 2, 4, 8}
