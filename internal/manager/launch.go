package manager

import (
	"strconv"
	"strings"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/common/fsutil"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// Environment variables understood by the vLLM CPU backend.
const (
	EnvCPUKVCacheSpace   = "VLLM_CPU_KVCACHE_SPACE"
	EnvCPUOMPThreadsBind = "VLLM_CPU_OMP_THREADS_BIND"
	cpuRecommendedDtype  = "bfloat16"
)

// Launch is the fully resolved command for one start.
type Launch struct {
	// Config is the effective config after platform resolution.
	Config types.ServerConfig
	// Args is the full argv, entrypoint included.
	Args []string
	// Env holds KEY=VALUE entries added to the inherited environment.
	Env []string
	// Notes are diagnostic lines in emission order, without prefix.
	Notes []string
}

// CommandLine renders Args space separated.
func (l Launch) CommandLine() string { return strings.Join(l.Args, " ") }

// BuildLaunch resolves CPU mode and maps cfg onto vLLM flags. It is pure:
// the same inputs always produce the same Launch.
func BuildLaunch(entrypoint []string, cfg types.ServerConfig, goos string, autoCPU bool) Launch {
	var l Launch
	switch {
	case cfg.UseCPU:
		l.Notes = append(l.Notes, "Using CPU mode (manual selection)")
	case autoCPU && goos == "darwin":
		cfg.UseCPU = true
		l.Notes = append(l.Notes, "Detected macOS - using CPU mode")
	}

	if cfg.UseCPU {
		l.Env = []string{
			EnvCPUKVCacheSpace + "=" + strconv.Itoa(cfg.CPUKVCacheSpace),
			EnvCPUOMPThreadsBind + "=" + cfg.CPUOMPThreadsBind,
		}
		l.Notes = append(l.Notes, "CPU Settings - KV Cache: "+strconv.Itoa(cfg.CPUKVCacheSpace)+"GB, Thread Binding: "+cfg.CPUOMPThreadsBind)
	} else {
		l.Notes = append(l.Notes, "Using GPU mode")
	}

	args := append([]string(nil), entrypoint...)
	args = append(args,
		"--model", cfg.Model,
		"--host", cfg.Host,
		"--port", strconv.Itoa(cfg.Port),
	)
	if !cfg.UseCPU {
		args = append(args,
			"--tensor-parallel-size", strconv.Itoa(cfg.TensorParallelSize),
			"--gpu-memory-utilization", formatFloat(cfg.GPUMemoryUtilization),
		)
	}
	dtype := cfg.Dtype
	if dtype == "" {
		dtype = "auto"
	}
	if cfg.UseCPU && dtype == "auto" {
		dtype = cpuRecommendedDtype
		l.Notes = append(l.Notes, "Using dtype=bfloat16 (recommended for CPU)")
	}
	cfg.Dtype = dtype
	args = append(args, "--dtype", dtype)
	if !cfg.UseCPU {
		lf := cfg.LoadFormat
		if lf == "" {
			lf = "auto"
		}
		args = append(args, "--load-format", lf)
	}
	if cfg.MaxModelLen != nil && *cfg.MaxModelLen > 0 {
		n := strconv.Itoa(*cfg.MaxModelLen)
		// vLLM rejects a max-model-len above its default batched token limit.
		args = append(args, "--max-model-len", n, "--max-num-batched-tokens", n)
		l.Notes = append(l.Notes, "Using user-specified max-model-len: "+n)
	}
	if cfg.TrustRemoteCode {
		args = append(args, "--trust-remote-code")
	}
	if cfg.DownloadDir != "" {
		args = append(args, "--download-dir", fsutil.MustExpandHome(cfg.DownloadDir))
	}
	if cfg.DisableLogStats {
		args = append(args, "--disable-log-stats")
	}
	if cfg.EnablePrefixCaching {
		args = append(args, "--enable-prefix-caching")
	}

	l.Args = args
	l.Config = cfg
	l.Notes = append(l.Notes, "Command: "+l.CommandLine())
	return l
}

// BuildLaunch resolves cfg with this Manager's entrypoint and platform settings.
func (m *Manager) BuildLaunch(cfg types.ServerConfig) Launch {
	return BuildLaunch(m.entrypoint, cfg, m.goos, m.autoCPU)
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
