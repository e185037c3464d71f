package config

import (
	"flag"
	"fmt"
	"io"

	"lesbin/internal/logger"
)

// Flags holds values parsed from the command line. Only flags that were
// actually given override the config file.
type Flags struct {
	ConfigFilePath string
	Version        bool
	DumpConfig     bool
	LogLevel       string
	LogFilePath    string
	Cols           int
	ReadOnly       bool
	SaveMode       string

	fs *flag.FlagSet
}

// DefineFlags registers lesbin's flags on a new FlagSet named name.
func DefineFlags(name string, output io.Writer) *Flags {
	f := &Flags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.SetOutput(output)
	f.fs.Usage = func() {
		fmt.Fprintf(output, "usage: %s [flags] <file>\n", name)
		f.fs.PrintDefaults()
	}
	f.fs.StringVar(&f.ConfigFilePath, "config", "", fmt.Sprintf("path to TOML configuration file (default %s)", ConfigPath()))
	f.fs.BoolVar(&f.Version, "version", false, "show version information and exit")
	f.fs.BoolVar(&f.DumpConfig, "dump-config", false, "print the effective configuration as TOML and exit")
	f.fs.StringVar(&f.LogLevel, "loglevel", "", "log level (debug, info, warn, error), overrides config file")
	f.fs.StringVar(&f.LogFilePath, "logfile", "", "path to write the log file, overrides config file")
	f.fs.IntVar(&f.Cols, "cols", 0, "bytes per row, a multiple of 4 (0 fits the terminal)")
	f.fs.BoolVar(&f.ReadOnly, "readonly", false, "open the file read-only")
	f.fs.StringVar(&f.SaveMode, "save-mode", "", "how to write the file back (atomic, inplace)")
	return f
}

// Parse parses args, which should not include the program name, and
// returns the remaining arguments.
func (f *Flags) Parse(args []string) ([]string, error) {
	if err := f.fs.Parse(args); err != nil {
		return nil, err
	}
	return f.fs.Args(), nil
}

// Usage prints the usage message.
func (f *Flags) Usage() {
	f.fs.Usage()
}

// ApplyOverrides copies every flag that was set onto cfg and revalidates.
func (f *Flags) ApplyOverrides(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "loglevel":
			logger.DebugTagf("config", "setting log level from flag: %s", f.LogLevel)
			cfg.Logger.LogLevel = f.LogLevel
		case "logfile":
			logger.DebugTagf("config", "setting log file from flag: %s", f.LogFilePath)
			cfg.Logger.LogFilePath = f.LogFilePath
		case "cols":
			logger.DebugTagf("config", "setting bytes per row from flag: %d", f.Cols)
			cfg.Editor.BytesPerRow = f.Cols
		case "readonly":
			cfg.Editor.ReadOnly = f.ReadOnly
		case "save-mode":
			cfg.Editor.SaveMode = f.SaveMode
		}
	})
	cfg.validate()
}
