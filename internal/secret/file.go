package secret

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	fileName = "rpc.secret"
	fileMode = 0o600
)

// FileStore keeps the token in a 0600 file, written through a temp file
// and rename.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore stores the token under dir. A nil fs uses the OS
// filesystem.
func NewFileStore(fs afero.Fs, dir string) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileStore{fs: fs, dir: dir}
}

func (f *FileStore) path() string {
	return filepath.Join(f.dir, fileName)
}

func (f *FileStore) Get() (string, error) {
	data, err := afero.ReadFile(f.fs, f.path())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

func (f *FileStore) Set(token string) error {
	if err := f.fs.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := afero.TempFile(f.fs, f.dir, ".rpc.secret.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		f.fs.Remove(name)
		return fmt.Errorf("write secret: %w", err)
	}
	if err := tmp.Close(); err != nil {
		f.fs.Remove(name)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := f.fs.Chmod(name, fileMode); err != nil {
		f.fs.Remove(name)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := f.fs.Rename(name, f.path()); err != nil {
		f.fs.Remove(name)
		return fmt.Errorf("rename secret file: %w", err)
	}
	return nil
}

func (f *FileStore) Delete() error {
	err := f.fs.Remove(f.path())
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
