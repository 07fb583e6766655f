package datasource

import (
	"context"
	"fmt"
	"os"

	"github.com/eslsoft/lvgames/internal/entity"
)

// FileSource reads a vocabulary document from the local filesystem.
type FileSource struct {
	path      string
	itemsPath string
}

func NewFileSource(path, itemsPath string) *FileSource {
	return &FileSource{path: path, itemsPath: itemsPath}
}

func (s *FileSource) Name() string { return "file:" + s.path }

func (s *FileSource) Load(ctx context.Context) ([]entity.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	result, err := DecodeItems(raw, s.itemsPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return result.Items, nil
}
