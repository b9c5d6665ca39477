package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// JSONFile keeps every key in one JSON object on disk. Each write replaces
// the file through a temporary file and a rename.
type JSONFile struct {
	fs   afero.Fs
	path string

	mu   sync.Mutex
	data map[string]json.RawMessage
}

// NewJSONFile loads path from fs, creating its directory if needed. A
// missing or empty file is an empty store; a file that is not a JSON
// object is an error.
func NewJSONFile(fs afero.Fs, path string) (*JSONFile, error) {
	if path == "" {
		return nil, errors.New("empty json store path")
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	j := &JSONFile{fs: fs, path: path, data: make(map[string]json.RawMessage)}
	b, err := afero.ReadFile(fs, path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return j, nil
	case err != nil:
		return nil, err
	case len(b) == 0:
		return j, nil
	}
	if err := json.Unmarshal(b, &j.data); err != nil {
		return nil, fmt.Errorf("json store %s: %w", path, err)
	}
	if j.data == nil {
		j.data = make(map[string]json.RawMessage)
	}
	return j, nil
}

func (j *JSONFile) Get(key string, dest any) (bool, error) {
	j.mu.Lock()
	raw, ok := j.data[key]
	j.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (j *JSONFile) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	prev, had := j.data[key]
	j.data[key] = raw
	if err := j.flush(); err != nil {
		if had {
			j.data[key] = prev
		} else {
			delete(j.data, key)
		}
		return err
	}
	return nil
}

func (j *JSONFile) flush() error {
	b, err := json.MarshalIndent(j.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := j.path + ".tmp"
	if err := afero.WriteFile(j.fs, tmp, b, 0o644); err != nil {
		return err
	}
	return j.fs.Rename(tmp, j.path)
}

func (j *JSONFile) Name() string { return BackendJSON }

func (j *JSONFile) Close() error { return nil }

var _ Store = (*JSONFile)(nil)
