package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func runArgs(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunWithoutPath(t *testing.T) {
	code, _, stderr := runArgs(t)
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "usage: lesbin") {
		t.Errorf("expected usage on stderr, got %q", stderr)
	}
}

func TestRunMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.bin")
	code, _, stderr := runArgs(t, missing)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr, "lesbin: ") || strings.Count(stderr, "\n") != 1 {
		t.Errorf("expected a one-line lesbin error, got %q", stderr)
	}
	if n := strings.Count(stderr, missing); n != 1 {
		t.Errorf("path should appear once in %q, got %d", stderr, n)
	}
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runArgs(t, "-version")
	if code != 0 || !strings.HasPrefix(stdout, "lesbin ") {
		t.Errorf("got %d %q", code, stdout)
	}
}

func TestRunDumpConfig(t *testing.T) {
	code, stdout, _ := runArgs(t, "-dump-config", "-cols", "32")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "[editor]") || !strings.Contains(stdout, "bytes_per_row = 32") {
		t.Errorf("unexpected config dump:\n%s", stdout)
	}
}

func TestRunBadFlag(t *testing.T) {
	if code, _, _ := runArgs(t, "-nosuchflag"); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}
