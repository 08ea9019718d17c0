package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Uploads stores incoming pitch decks on local disk.
type Uploads struct {
	Dir string
}

func NewUploads(dir string) *Uploads {
	return &Uploads{Dir: dir}
}

// Save copies r into Dir/name, replacing an existing file of the same name.
// name must already be a bare file name.
func (u *Uploads) Save(name string, r io.Reader) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid upload name %q", name)
	}
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(u.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path, nil
}
