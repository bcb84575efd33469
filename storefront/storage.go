package storefront

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/exp/maps"
)

// durable key-value storage shared by every storefront instance on the device.
// Read returns (nil, nil) for an absent key. all errors are recovered by the
// stores - a failed read is an empty collection, a failed write is logged and
// the in-memory notification still fires.
type Storage interface {
	Read(key string) ([]byte, error)
	Write(key string, value []byte) error
	Remove(key string) error
}

type MemoryStorage struct {
	stateLock sync.Mutex
	values    map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values: map[string][]byte{},
	}
}

func (self *MemoryStorage) Read(key string) ([]byte, error) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	value, ok := self.values[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (self *MemoryStorage) Write(key string, value []byte) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	next := maps.Clone(self.values)
	stored := make([]byte, len(value))
	copy(stored, value)
	next[key] = stored
	self.values = next
	return nil
}

func (self *MemoryStorage) Remove(key string) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	next := maps.Clone(self.values)
	delete(next, key)
	self.values = next
	return nil
}

// one JSON file per storage key under a local directory,
// the file-system analogue of browser local storage
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileStorage{
		dir: dir,
	}, nil
}

func (self *FileStorage) path(key string) string {
	return filepath.Join(self.dir, key+".json")
}

func (self *FileStorage) Read(key string) ([]byte, error) {
	value, err := os.ReadFile(self.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func (self *FileStorage) Write(key string, value []byte) error {
	// write-rename so a concurrent reader never sees a partial file
	f, err := os.CreateTemp(self.dir, key+".*")
	if err != nil {
		return err
	}
	tempPath := f.Name()
	if _, err := f.Write(value); err != nil {
		f.Close()
		os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, self.path(key))
}

func (self *FileStorage) Remove(key string) error {
	err := os.Remove(self.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
