package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// EnvPort overrides the default listen port when set.
const EnvPort = "WEBUI_PORT"

// Config holds runtime parameters for the playground.
// Fields left out of a config file keep the values from Default.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	StaticDir string `json:"static_dir" yaml:"static_dir" toml:"static_dir"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	Entrypoint []string `json:"entrypoint" yaml:"entrypoint" toml:"entrypoint"`
	Python     string   `json:"python" yaml:"python" toml:"python"`

	StopTimeoutSeconds             int  `json:"stop_timeout_seconds" yaml:"stop_timeout_seconds" toml:"stop_timeout_seconds"`
	ProxyTimeoutSeconds            int  `json:"proxy_timeout_seconds" yaml:"proxy_timeout_seconds" toml:"proxy_timeout_seconds"`
	BenchmarkRequestTimeoutSeconds int  `json:"benchmark_request_timeout_seconds" yaml:"benchmark_request_timeout_seconds" toml:"benchmark_request_timeout_seconds"`
	AutoCPUDetect                  bool `json:"auto_cpu_detect" yaml:"auto_cpu_detect" toml:"auto_cpu_detect"`

	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled  bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	CORSMethods  []string `json:"cors_methods" yaml:"cors_methods" toml:"cors_methods"`
	CORSHeaders  []string `json:"cors_headers" yaml:"cors_headers" toml:"cors_headers"`

	ModelsDir            string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	StatePath            string `json:"state_path" yaml:"state_path" toml:"state_path"`
	BenchmarkResultsFile string `json:"benchmark_results_file" yaml:"benchmark_results_file" toml:"benchmark_results_file"`

	Autostart bool               `json:"autostart" yaml:"autostart" toml:"autostart"`
	Server    types.ServerConfig `json:"server" yaml:"server" toml:"server"`
}

// Default returns the built-in configuration. The listen port honours
// $WEBUI_PORT.
func Default() Config {
	port := strings.TrimSpace(os.Getenv(EnvPort))
	if port == "" {
		port = "7860"
	}
	return Config{
		Addr:                           ":" + port,
		LogLevel:                       "info",
		LogFormat:                      "json",
		Entrypoint:                     []string{"python3", "-m", "vllm.entrypoints.openai.api_server"},
		StopTimeoutSeconds:             10,
		ProxyTimeoutSeconds:            300,
		BenchmarkRequestTimeoutSeconds: 60,
		AutoCPUDetect:                  true,
		MaxBodyBytes:                   1 << 20,
		CORSMethods:                    []string{"GET", "POST", "OPTIONS"},
		CORSHeaders:                    []string{"*"},
		ModelsDir:                      "~/.cache/huggingface/hub",
		StatePath:                      "~/.config/vllm-playground/last_config.json",
		Server:                         types.DefaultServerConfig(),
	}
}

// Load reads a configuration file based on its extension and overlays it on
// Default. Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// EntrypointArgv returns the launcher argv, with Python replacing the
// interpreter when set.
func (c Config) EntrypointArgv() []string {
	argv := append([]string(nil), c.Entrypoint...)
	if c.Python != "" {
		if len(argv) == 0 {
			argv = []string{c.Python, "-m", "vllm.entrypoints.openai.api_server"}
		} else {
			argv[0] = c.Python
		}
	}
	return argv
}

// AutoCPU returns AutoCPUDetect as the pointer form the manager accepts.
func (c Config) AutoCPU() *bool {
	v := c.AutoCPUDetect
	return &v
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// StopTimeout is the SIGTERM grace period before a kill.
func (c Config) StopTimeout() time.Duration { return seconds(c.StopTimeoutSeconds) }

// ProxyTimeout bounds one proxied chat or completion call.
func (c Config) ProxyTimeout() time.Duration { return seconds(c.ProxyTimeoutSeconds) }

// BenchmarkRequestTimeout bounds one benchmark request.
func (c Config) BenchmarkRequestTimeout() time.Duration {
	return seconds(c.BenchmarkRequestTimeoutSeconds)
}
