package bench

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/common/fsutil"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// Record is one finished run as written to the results file.
type Record struct {
	ID         string                 `json:"id"`
	Model      string                 `json:"model"`
	State      State                  `json:"state"`
	Spec       types.BenchmarkSpec    `json:"spec"`
	Result     *types.BenchmarkResult `json:"result,omitempty"`
	Successful int                    `json:"successful"`
	Failed     int                    `json:"failed"`
	FinishedAt time.Time              `json:"finished_at"`
}

// Recorder persists finished runs.
type Recorder interface {
	Record(Record) error
}

// JSONLRecorder appends records to a JSON Lines file.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder opens (creating if needed) path for appending.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	path = fsutil.MustExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{file: f, enc: json.NewEncoder(f)}, nil
}

// Record writes r as a single JSON line.
func (j *JSONLRecorder) Record(r Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(r)
}

// Close closes the underlying file.
func (j *JSONLRecorder) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
