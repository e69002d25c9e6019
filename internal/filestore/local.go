package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localFileStore struct {
	dir string
}

func createLocalFileStore(args interface{}) (IFileStore, error) {
	c := &localConfig{}
	if err := decodeConfig(args, c); err != nil {
		return nil, err
	}
	if c.Dir == "" {
		return nil, fmt.Errorf("local file store needs a dir")
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, err
	}
	return &localFileStore{dir: c.Dir}, nil
}

func (s *localFileStore) Name() string {
	return "local"
}

// cleanKey flattens the key to a bare file name so a crafted key cannot
// escape the store directory.
func (s *localFileStore) cleanKey(key string) string {
	key = filepath.Base(filepath.Clean(key))
	return strings.TrimPrefix(key, ".")
}

func (s *localFileStore) Save(_ context.Context, key string, r io.Reader) error {
	name := s.cleanKey(key)
	if name == "" {
		return fmt.Errorf("invalid key:%s", key)
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

func (s *localFileStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	name := s.cleanKey(key)
	if name == "" {
		return nil, fmt.Errorf("invalid key:%s", key)
	}
	return os.Open(filepath.Join(s.dir, name))
}

func init() {
	Register("local", createLocalFileStore)
}
