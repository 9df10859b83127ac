package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/manager"
)

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "vllm-playground dev") {
		t.Fatalf("out=%q", out)
	}
}

func TestCommandPrintsCPULaunch(t *testing.T) {
	out, err := run(t, "command", "--model", "facebook/opt-350m", "--cpu", "--port", "9000")
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 2 env lines and a command line, got %q", out)
	}
	if lines[0] != manager.EnvCPUKVCacheSpace+"=40" || lines[1] != manager.EnvCPUOMPThreadsBind+"=auto" {
		t.Fatalf("env lines = %q", lines[:2])
	}
	cmdline := lines[2]
	for _, want := range []string{"vllm.entrypoints.openai.api_server", "--model facebook/opt-350m", "--port 9000", "--dtype bfloat16"} {
		if !strings.Contains(cmdline, want) {
			t.Fatalf("missing %q in %q", want, cmdline)
		}
	}
}

func TestCommandReadsConfigFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "entrypoint: [vllm-custom, serve]\nauto_cpu_detect: false\nserver:\n  model: from-file\n  port: 8123\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "command", "-c", p)
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	if !strings.HasPrefix(out, "vllm-custom serve ") || !strings.Contains(out, "--model from-file") || !strings.Contains(out, "--port 8123") {
		t.Fatalf("out=%q", out)
	}
}

func TestDoctorReportsMissingEntrypoint(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(p, []byte(`{"entrypoint":["definitely-not-a-real-binary-xyz"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "doctor", "--config", p)
	if err == nil {
		t.Fatalf("expected error, out=%q", out)
	}
	if !strings.Contains(out, `"executable_found": false`) {
		t.Fatalf("out=%q", out)
	}
}

func TestApplyServeFlags(t *testing.T) {
	cmd := newServeCmd(&rootOptions{})
	if err := cmd.ParseFlags([]string{"--addr", ":9999", "--autostart", "--cors-origins", "http://a, http://b"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd, &rootOptions{})
	if err != nil {
		t.Fatal(err)
	}
	opts := &serveOptions{addr: ":9999", autostart: true, corsOrigins: "http://a, http://b"}
	applyServeFlags(cmd, opts, &cfg)
	if cfg.Addr != ":9999" || !cfg.Autostart || !cfg.CORSEnabled || len(cfg.CORSOrigins) != 2 {
		t.Fatalf("cfg=%+v", cfg)
	}
}
