package manager

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/common/fsutil"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// LastConfig returns the most recently started config, if one is known.
func (m *Manager) LastConfig() (types.ServerConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return types.ServerConfig{}, false
	}
	return *m.last, true
}

func (m *Manager) loadLastConfig() {
	if m.statePath == "" {
		return
	}
	f, err := os.Open(fsutil.MustExpandHome(m.statePath))
	if err != nil {
		return
	}
	defer f.Close()
	var cfg types.ServerConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		m.log.Warn().Err(err).Str("path", m.statePath).Msg("ignoring unreadable last config")
		return
	}
	m.last = &cfg
}

func (m *Manager) saveLastConfig(cfg types.ServerConfig) {
	m.mu.Lock()
	m.last = &cfg
	m.mu.Unlock()
	if m.statePath == "" {
		return
	}
	path := fsutil.MustExpandHome(m.statePath)
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		m.log.Warn().Err(err).Msg("create state dir")
		return
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("save last config")
	}
}
