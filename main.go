package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"lesbin/internal/buffer"
	"lesbin/internal/config"
	"lesbin/internal/editor"
	"lesbin/internal/fileio"
	"lesbin/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := config.DefineFlags(config.AppName, stderr)
	rest, err := flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	if flags.Version {
		fmt.Fprintf(stdout, "%s %s\n", config.AppName, config.Version)
		return 0
	}

	cfg, err := config.Load(flags.ConfigFilePath)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
		return 1
	}
	flags.ApplyOverrides(cfg)

	if flags.DumpConfig {
		if err := cfg.Encode(stdout); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
			return 1
		}
		return 0
	}

	if len(rest) != 1 {
		flags.Usage()
		return 2
	}

	closeLog, err := initLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
		return 1
	}
	defer closeLog()

	buf, err := buffer.Open(fileio.OS{}, rest[0], cfg.BufferOptions())
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
		return 1
	}
	defer buf.Close()
	logger.Infof("opened %s (%d bytes, read-only=%v)", rest[0], buf.Len(), buf.ReadOnly())

	p := tea.NewProgram(editor.NewModel(buf, cfg), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		logger.Errorf("program: %v", err)
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
		return 1
	}
	return 0
}

// initLogger points the logger at the configured file. Without one, log
// records are discarded since the terminal belongs to the UI.
func initLogger(c config.LoggerConfig) (func(), error) {
	lvl, _ := logger.ParseLevel(c.LogLevel)
	if c.LogFilePath == "" {
		logger.Init(lvl, nil)
		return func() {}, nil
	}
	f, err := os.OpenFile(c.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	logger.Init(lvl, f)
	return func() { f.Close() }, nil
}
