package manager

import (
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/common/netutil"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultStopTimeout    = 10 * time.Second
	defaultProxyTimeout   = 5 * time.Minute
	defaultConnectTimeout = 5 * time.Second
	defaultDrainTimeout   = 2 * time.Second
	defaultReadRetryDelay = 100 * time.Millisecond
)

// DefaultEntrypoint launches the vLLM OpenAI-compatible API server module.
var DefaultEntrypoint = []string{"python3", "-m", "vllm.entrypoints.openai.api_server"}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Entrypoint is the argv prefix placed before the vLLM flags.
	Entrypoint []string
	// ExtraEnv is appended to the inherited environment of the child.
	ExtraEnv []string
	// StopTimeout bounds the wait after SIGTERM before the child is killed.
	StopTimeout time.Duration
	// ProxyTimeout bounds each Chat/Completion call.
	ProxyTimeout   time.Duration
	ConnectTimeout time.Duration
	// DrainTimeout bounds reading leftover output after the child exits.
	DrainTimeout   time.Duration
	ReadRetryDelay time.Duration
	// AutoCPU enables forcing CPU mode on darwin hosts. nil means enabled.
	AutoCPU *bool
	// GOOS overrides runtime.GOOS for platform detection.
	GOOS string
	// StatePath, when set, stores the last started config as JSON.
	StatePath  string
	Sink       LogSink
	Logger     *zerolog.Logger
	HTTPClient *http.Client
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:      StateStopped,
		entrypoint: append([]string(nil), cfg.Entrypoint...),
		extraEnv:   append([]string(nil), cfg.ExtraEnv...),
		goos:       cfg.GOOS,
		autoCPU:    true,
		statePath:  cfg.StatePath,
		sink:       cfg.Sink,
		client:     cfg.HTTPClient,
		log:        zerolog.Nop(),
	}
	if len(m.entrypoint) == 0 {
		m.entrypoint = append([]string(nil), DefaultEntrypoint...)
	}
	if m.goos == "" {
		m.goos = runtime.GOOS
	}
	if cfg.AutoCPU != nil {
		m.autoCPU = *cfg.AutoCPU
	}
	if m.sink == nil {
		m.sink = nopSink{}
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	}
	m.stopTimeout = orDefault(cfg.StopTimeout, defaultStopTimeout)
	m.proxyTimeout = orDefault(cfg.ProxyTimeout, defaultProxyTimeout)
	m.drainTimeout = orDefault(cfg.DrainTimeout, defaultDrainTimeout)
	m.readRetryDelay = orDefault(cfg.ReadRetryDelay, defaultReadRetryDelay)
	if m.client == nil {
		m.client = netutil.NewClient(orDefault(cfg.ConnectTimeout, defaultConnectTimeout))
	}
	m.loadLastConfig()
	setStateMetric(StateStopped)
	return m
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
