package manager

import (
	"path/filepath"
	"testing"
)

func TestSanityCheck_FindsShell(t *testing.T) {
	skipIfNoShell(t)
	m := NewWithConfig(ManagerConfig{Entrypoint: shEntrypoint("true"), GOOS: "linux"})
	r := m.SanityCheck()
	if !r.ExecutableFound || r.ExecutablePath == "" || r.Error != "" {
		t.Fatalf("expected /bin/sh to resolve, got %+v", r)
	}
	if r.CPUModeForced {
		t.Fatalf("linux must not force CPU mode")
	}
}

func TestSanityCheck_MissingEntrypoint(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "python-missing")
	m := NewWithConfig(ManagerConfig{Entrypoint: []string{missing}, GOOS: "darwin"})
	r := m.SanityCheck()
	if r.ExecutableFound || r.Error == "" {
		t.Fatalf("expected missing entrypoint error, got %+v", r)
	}
	if !r.CPUModeForced || r.Platform != "darwin" {
		t.Fatalf("darwin with auto detection must report forced CPU: %+v", r)
	}
}
