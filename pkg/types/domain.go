package types

// ServerConfig describes one launch of the vLLM OpenAI-compatible server.
// Once applied by a start call it is not mutated until the process stops.
type ServerConfig struct {
	// Model identifier (HuggingFace repo id or local path).
	// example: facebook/opt-125m
	Model string `json:"model" yaml:"model" toml:"model" example:"facebook/opt-125m"`
	// Bind host for the vLLM server.
	// example: 0.0.0.0
	Host string `json:"host" yaml:"host" toml:"host" example:"0.0.0.0"`
	// Bind port for the vLLM server. 0 picks a free port.
	// example: 8000
	Port int `json:"port" yaml:"port" toml:"port" example:"8000"`
	// Tensor parallel degree (GPU only).
	// example: 1
	TensorParallelSize int `json:"tensor_parallel_size" yaml:"tensor_parallel_size" toml:"tensor_parallel_size" example:"1"`
	// Fraction of GPU memory vLLM may use (GPU only).
	// example: 0.9
	GPUMemoryUtilization float64 `json:"gpu_memory_utilization" yaml:"gpu_memory_utilization" toml:"gpu_memory_utilization" example:"0.9"`
	// Optional maximum sequence length.
	// example: 2048
	MaxModelLen *int `json:"max_model_len" yaml:"max_model_len" toml:"max_model_len,omitempty" example:"2048"`
	// Numeric precision: auto, float16, bfloat16, float32.
	// example: auto
	Dtype           string `json:"dtype" yaml:"dtype" toml:"dtype" example:"auto"`
	TrustRemoteCode bool   `json:"trust_remote_code" yaml:"trust_remote_code" toml:"trust_remote_code"`
	// Optional model download directory.
	// example: ~/.cache/vllm
	DownloadDir string `json:"download_dir,omitempty" yaml:"download_dir" toml:"download_dir" example:"~/.cache/vllm"`
	// Weight loading format (GPU only).
	// example: auto
	LoadFormat          string `json:"load_format" yaml:"load_format" toml:"load_format" example:"auto"`
	DisableLogStats     bool   `json:"disable_log_stats" yaml:"disable_log_stats" toml:"disable_log_stats"`
	EnablePrefixCaching bool   `json:"enable_prefix_caching" yaml:"enable_prefix_caching" toml:"enable_prefix_caching"`
	// Run vLLM on CPU.
	// example: false
	UseCPU bool `json:"use_cpu" yaml:"use_cpu" toml:"use_cpu" example:"false"`
	// KV cache size in GB (CPU only).
	// example: 40
	CPUKVCacheSpace int `json:"cpu_kvcache_space" yaml:"cpu_kvcache_space" toml:"cpu_kvcache_space" example:"40"`
	// OpenMP thread binding policy (CPU only).
	// example: auto
	CPUOMPThreadsBind string `json:"cpu_omp_threads_bind" yaml:"cpu_omp_threads_bind" toml:"cpu_omp_threads_bind" example:"auto"`
}

// DefaultServerConfig returns the launch defaults used when a request omits fields.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Model:                "facebook/opt-125m",
		Host:                 "0.0.0.0",
		Port:                 8000,
		TensorParallelSize:   1,
		GPUMemoryUtilization: 0.9,
		Dtype:                "auto",
		LoadFormat:           "auto",
		CPUKVCacheSpace:      40,
		CPUOMPThreadsBind:    "auto",
	}
}

// Model is a catalog entry returned by GET /api/models.
type Model struct {
	// Model identifier accepted by the start endpoint.
	// example: facebook/opt-125m
	Name string `json:"name" example:"facebook/opt-125m"`
	// Approximate parameter count.
	// example: 125M
	Size string `json:"size,omitempty" example:"125M"`
	// Short description.
	// example: Small test model
	Description string `json:"description,omitempty" example:"Small test model"`
	// Local snapshot path when the model was found in the cache directory.
	Path string `json:"path,omitempty"`
	// Where the entry came from: catalog or cache.
	// example: catalog
	Source string `json:"source,omitempty" example:"catalog"`
}

// BenchmarkSpec configures one synthetic load run.
type BenchmarkSpec struct {
	// Total number of sequential requests.
	// example: 100
	TotalRequests int `json:"total_requests" example:"100"`
	// Requests per second; 0 disables pacing.
	// example: 5
	RequestRate float64 `json:"request_rate" example:"5"`
	// Approximate prompt size in tokens.
	// example: 100
	PromptTokens int `json:"prompt_tokens" example:"100"`
	// Requested completion size in tokens.
	// example: 100
	OutputTokens int `json:"output_tokens" example:"100"`
}

// DefaultBenchmarkSpec returns the defaults used when a request omits fields.
func DefaultBenchmarkSpec() BenchmarkSpec {
	return BenchmarkSpec{TotalRequests: 100, RequestRate: 5.0, PromptTokens: 100, OutputTokens: 100}
}

// BenchmarkResult holds the final statistics of a completed run.
type BenchmarkResult struct {
	// example: 4.87
	Throughput float64 `json:"throughput" example:"4.87"`
	// example: 182.4
	AvgLatency float64 `json:"avg_latency" example:"182.4"`
	// example: 176.2
	P50Latency float64 `json:"p50_latency" example:"176.2"`
	// example: 240.9
	P95Latency float64 `json:"p95_latency" example:"240.9"`
	// example: 301.5
	P99Latency float64 `json:"p99_latency" example:"301.5"`
	// example: 487.3
	TokensPerSecond float64 `json:"tokens_per_second" example:"487.3"`
	// example: 20000
	TotalTokens int `json:"total_tokens" example:"20000"`
	// example: 100
	SuccessRate float64 `json:"success_rate" example:"100"`
	Completed   bool    `json:"completed" example:"true"`
}
