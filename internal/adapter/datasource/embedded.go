package datasource

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/eslsoft/lvgames/internal/entity"
)

//go:embed data/*.json
var embeddedData embed.FS

// DefaultDataset is the embedded document used when no other source is reachable.
const DefaultDataset = "latvian_basics.json"

// EmbeddedSource serves a dataset compiled into the binary.
type EmbeddedSource struct {
	fsys fs.FS
	name string
}

// NewEmbeddedSource returns a source for the embedded dataset name
// (DefaultDataset when empty).
func NewEmbeddedSource(name string) *EmbeddedSource {
	if name == "" {
		name = DefaultDataset
	}
	return &EmbeddedSource{fsys: embeddedData, name: name}
}

// EmbeddedDatasets lists the dataset names compiled into the binary.
func EmbeddedDatasets() ([]string, error) {
	entries, err := fs.ReadDir(embeddedData, "data")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *EmbeddedSource) Name() string { return "embedded:" + s.name }

func (s *EmbeddedSource) Load(ctx context.Context) ([]entity.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := fs.ReadFile(s.fsys, path.Join("data", s.name))
	if err != nil {
		return nil, fmt.Errorf("embedded dataset %s: %w", s.name, err)
	}
	result, err := DecodeItems(raw, "")
	if err != nil {
		return nil, fmt.Errorf("embedded dataset %s: %w", s.name, err)
	}
	return result.Items, nil
}
