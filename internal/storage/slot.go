package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/repository"
	"gorm.io/gorm"
)

// ErrSlotEmpty is returned by Read when nothing has been written under the key.
var ErrSlotEmpty = errors.New("storage slot is empty")

// ErrInvalidKey is returned for keys that cannot name a slot.
var ErrInvalidKey = errors.New("invalid storage key")

// Slot is a named key-value cell holding one serialized task collection.
type Slot interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
}

// DatabaseSlot stores slots as rows of the snapshots table.
type DatabaseSlot struct {
	repo repository.SnapshotRepository
}

func NewDatabaseSlot(repo repository.SnapshotRepository) *DatabaseSlot {
	return &DatabaseSlot{repo: repo}
}

func (s *DatabaseSlot) Read(key string) ([]byte, error) {
	snapshot, err := s.repo.FindByKey(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", key, err)
	}
	return []byte(snapshot.Data), nil
}

func (s *DatabaseSlot) Write(key string, data []byte) error {
	if err := s.repo.Save(&models.Snapshot{Key: key, Data: string(data)}); err != nil {
		return fmt.Errorf("write snapshot %q: %w", key, err)
	}
	return nil
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// FileSlot stores each slot as <dir>/<key>.json.
type FileSlot struct {
	dir string
}

func NewFileSlot(dir string) *FileSlot {
	return &FileSlot{dir: dir}
}

func (s *FileSlot) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileSlot) Read(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read slot file: %w", err)
	}
	return data, nil
}

// Write replaces the slot file atomically. Identical content is left alone.
func (s *FileSlot) Write(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create slot dir: %w", err)
	}

	if existing, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existing, data) {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read slot file: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp slot file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(data)
	if err1 := tmpFile.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp slot file: %w", err)
	}

	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename slot file: %w", err)
	}
	return nil
}
