package types

// ChatMessage is one OpenAI-style chat message.
type ChatMessage struct {
	// example: user
	Role string `json:"role" example:"user"`
	// example: Hello!
	Content string `json:"content" example:"Hello!"`
}

// ChatRequest is the payload of POST /api/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	// Sampling temperature.
	// example: 0.7
	Temperature float64 `json:"temperature" example:"0.7"`
	// Maximum number of tokens to generate.
	// example: 512
	MaxTokens int `json:"max_tokens" example:"512"`
	// Stream the upstream response as server-sent events.
	// example: true
	Stream bool `json:"stream" example:"true"`
}

// DefaultChatRequest returns a request carrying the documented defaults.
func DefaultChatRequest() ChatRequest {
	return ChatRequest{Temperature: 0.7, MaxTokens: 512, Stream: true}
}

// CompletionRequest is the payload of POST /api/completion (base models).
type CompletionRequest struct {
	// example: Once upon a time
	Prompt string `json:"prompt" example:"Once upon a time"`
	// example: 0.7
	Temperature float64 `json:"temperature" example:"0.7"`
	// example: 512
	MaxTokens int `json:"max_tokens" example:"512"`
}

// DefaultCompletionRequest returns a request carrying the documented defaults.
func DefaultCompletionRequest() CompletionRequest {
	return CompletionRequest{Temperature: 0.7, MaxTokens: 512}
}

// ModelsResponse wraps the list of models returned by GET /api/models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	// Whether the vLLM process is alive.
	// example: true
	Running bool `json:"running" example:"true"`
	// Elapsed time since start as HH:MM:SS; null when not running.
	// example: 00:12:05
	Uptime *string `json:"uptime" example:"00:12:05"`
	// Active launch configuration; null when not running.
	Config *ServerConfig `json:"config"`
	// Supervisor state: stopped, starting, running, stopping or crashed.
	// example: running
	State string `json:"state" example:"running"`
	// Process id of the child while it is alive.
	// example: 12345
	PID int `json:"pid,omitempty" example:"12345"`
	// Exit code of a child that exited without a stop request.
	// example: 1
	ExitCode *int `json:"exit_code,omitempty" example:"1"`
}

// StartResponse is returned by POST /api/start.
type StartResponse struct {
	// example: started
	Status string `json:"status" example:"started"`
	// example: 12345
	PID int `json:"pid" example:"12345"`
}

// StopResponse is returned by the stop endpoints.
type StopResponse struct {
	// example: stopped
	Status string `json:"status" example:"stopped"`
}

// BenchmarkStartResponse is returned by POST /api/benchmark/start.
type BenchmarkStartResponse struct {
	// example: started
	Status string `json:"status" example:"started"`
	// Run identifier.
	// example: 6f1c3f5e-2f59-4a53-9a3c-6f4f9b6f2c11
	ID string `json:"id" example:"6f1c3f5e-2f59-4a53-9a3c-6f4f9b6f2c11"`
}

// BenchmarkStatus is returned by GET /api/benchmark/status.
type BenchmarkStatus struct {
	// example: false
	Running bool `json:"running" example:"false"`
	// Final result of the last completed run, or null.
	Results *BenchmarkResult `json:"results"`
	// Run state: idle, running, completed, cancelled or failed.
	// example: completed
	State string `json:"state" example:"completed"`
	// Set when the last run failed.
	// example: Benchmark failed
	Error string `json:"error,omitempty" example:"Benchmark failed"`
	// Identifier of the last run.
	ID string `json:"id,omitempty"`
}
