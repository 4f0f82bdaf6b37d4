package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileKV serves configuration from a single JSON document on disk, keyed at
// the top level. The file is re-read on every Get so each evaluation sees a
// fresh snapshot; edits take effect without a restart.
type FileKV struct {
	path string
}

func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}

	raw, ok := doc[key]
	if !ok {
		return nil, ErrNotFound
	}
	return raw, nil
}
