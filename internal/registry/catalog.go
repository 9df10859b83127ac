package registry

import "github.com/Rabeel-Ashraf/vllm-playground/pkg/types"

// SourceCatalog and SourceCache tag where a listed model came from.
const (
	SourceCatalog = "catalog"
	SourceCache   = "cache"
)

var common = []types.Model{
	{Name: "facebook/opt-125m", Size: "125M", Description: "Small test model"},
	{Name: "facebook/opt-350m", Size: "350M", Description: "Small test model"},
	{Name: "facebook/opt-1.3b", Size: "1.3B", Description: "Medium model"},
	{Name: "facebook/opt-2.7b", Size: "2.7B", Description: "Medium model"},
	{Name: "meta-llama/Llama-2-7b-chat-hf", Size: "7B", Description: "Llama 2 Chat"},
	{Name: "meta-llama/Llama-2-13b-chat-hf", Size: "13B", Description: "Llama 2 Chat"},
	{Name: "mistralai/Mistral-7B-Instruct-v0.2", Size: "7B", Description: "Mistral Instruct"},
	{Name: "codellama/CodeLlama-7b-Instruct-hf", Size: "7B", Description: "Code Llama"},
}

// Catalog returns the built-in list of commonly used models.
func Catalog() []types.Model {
	out := make([]types.Model, len(common))
	for i, m := range common {
		m.Source = SourceCatalog
		out[i] = m
	}
	return out
}

// List returns the catalog followed by cached models that are not already in
// it. A cached copy of a catalog model fills in the catalog entry's Path.
func List(cached []types.Model) []types.Model {
	out := Catalog()
	idx := make(map[string]int, len(out))
	for i, m := range out {
		idx[m.Name] = i
	}
	for _, m := range cached {
		if i, ok := idx[m.Name]; ok {
			out[i].Path = m.Path
			continue
		}
		idx[m.Name] = len(out)
		out = append(out, m)
	}
	return out
}

// Lister serves the catalog merged with the models found in Dir.
type Lister struct {
	Dir     string
	Scanner Scanner
}

// NewLister returns a Lister over the HuggingFace cache at dir.
func NewLister(dir string) *Lister {
	return &Lister{Dir: dir, Scanner: NewHFCacheScanner()}
}

// ListModels returns the catalog even when the cache cannot be read; the
// scan error is returned alongside.
func (l *Lister) ListModels() ([]types.Model, error) {
	if l.Dir == "" || l.Scanner == nil {
		return Catalog(), nil
	}
	cached, err := l.Scanner.Scan(l.Dir)
	return List(cached), err
}
