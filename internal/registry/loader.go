package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/common/fsutil"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

const cachePrefix = "models--"

// Scanner discovers models that are already present locally.
type Scanner interface {
	Scan(dir string) ([]types.Model, error)
}

// HFCacheScanner reads a HuggingFace hub cache directory, where every model
// lives in a "models--<org>--<name>" folder.
type HFCacheScanner struct{}

// NewHFCacheScanner returns a scanner for the HuggingFace hub cache layout.
func NewHFCacheScanner() *HFCacheScanner { return &HFCacheScanner{} }

// Scan lists cached models in dir sorted by name. A missing directory yields
// no models and no error.
func (HFCacheScanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), cachePrefix) {
			continue
		}
		name := repoID(e.Name())
		if name == "" {
			continue
		}
		models = append(models, types.Model{
			Name:   name,
			Path:   snapshotPath(filepath.Join(abs, e.Name())),
			Source: SourceCache,
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// repoID turns "models--org--name" into "org/name".
func repoID(dir string) string {
	parts := strings.Split(strings.TrimPrefix(dir, cachePrefix), "--")
	for _, p := range parts {
		if p == "" {
			return ""
		}
	}
	return strings.Join(parts, "/")
}

// snapshotPath prefers the first snapshot folder, falling back to the repo dir.
func snapshotPath(repoDir string) string {
	snaps := filepath.Join(repoDir, "snapshots")
	entries, err := os.ReadDir(snaps)
	if err != nil {
		return repoDir
	}
	for _, e := range entries {
		if e.IsDir() {
			return filepath.Join(snaps, e.Name())
		}
	}
	return repoDir
}

// LoadDir scans dir with the HuggingFace cache scanner.
func LoadDir(dir string) ([]types.Model, error) {
	return NewHFCacheScanner().Scan(dir)
}
