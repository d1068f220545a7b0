package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	appErr "github.com/xxxsen/newsrag/internal/pkg/errors"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localStore struct {
	dir string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	return &localStore{dir: config.Dir}, nil
}

func (s *localStore) Put(ctx context.Context, key string, data []byte) error {
	_ = ctx
	if err := validateKey(key); err != nil {
		return err
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *localStore) Get(ctx context.Context, key string) ([]byte, error) {
	_ = ctx
	if err := validateKey(key); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", appErr.ErrNotFound, key)
		}
		return nil, err
	}
	return data, nil
}
