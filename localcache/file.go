package localcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/models"
)

// File keeps one JSON file per kind under root/namespace.
type File struct {
	dir string
}

func NewFile(root string, namespace string) *File {
	if namespace == "" {
		namespace = "default"
	}
	return &File{dir: filepath.Join(root, namespace)}
}

func (s *File) path(kind models.FormKind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

func (s *File) Load(_ context.Context, kind models.FormKind) (models.DraftRecord, bool) {
	data, err := os.ReadFile(s.path(kind))
	if err != nil {
		if !os.IsNotExist(err) {
			config.LogError(config.GetLogger(), "localcache", "File.Load", "ReadFile", s.path(kind), err)
		}
		return models.DraftRecord{}, false
	}
	return decodeRecord(kind, data)
}

func (s *File) Save(_ context.Context, kind models.FormKind, rec models.DraftRecord) error {
	data, err := encodeRecord(kind, rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, kind, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, kind, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, kind, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, kind, err)
	}
	if err := os.Rename(tmpName, s.path(kind)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, kind, err)
	}
	return nil
}

func (s *File) Delete(_ context.Context, kind models.FormKind) error {
	if err := os.Remove(s.path(kind)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete draft %s: %w", kind, err)
	}
	return nil
}
