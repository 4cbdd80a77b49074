package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

type FileStorage interface {
	Save(path string, data io.Reader) error
	SaveNew(path string, data io.Reader) error
	Get(path string) (io.ReadCloser, error)
	ReadFile(path string) ([]byte, error)
	Delete(path string) error
	Exists(path string) bool
	List(dir string) ([]string, error)
	BasePath() string
}

type fileStorage struct {
	basePath string
}

func NewFileStorage(basePath string) FileStorage {
	return &fileStorage{basePath: basePath}
}

func (s *fileStorage) BasePath() string {
	return s.basePath
}

// Save writes through a temporary file so readers never see a partial image.
func (s *fileStorage) Save(path string, data io.Reader) error {
	fullPath := filepath.Join(s.basePath, path)

	tmpName, err := writeTemp(fullPath, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// SaveNew is Save that refuses to replace an existing file. The error then
// matches fs.ErrExist.
func (s *fileStorage) SaveNew(path string, data io.Reader) error {
	fullPath := filepath.Join(s.basePath, path)

	tmpName, err := writeTemp(fullPath, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName)

	// link fails with EEXIST instead of replacing the target
	return os.Link(tmpName, fullPath)
}

func writeTemp(fullPath string, data io.Reader) (string, error) {
	// Создаем директорию если нужно
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}

	file, err := os.CreateTemp(filepath.Dir(fullPath), ".tmp-*")
	if err != nil {
		return "", err
	}
	tmpName := file.Name()

	if _, err = io.Copy(file, data); err != nil {
		file.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err = file.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return tmpName, nil
}

func (s *fileStorage) Get(path string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, path)
	return os.Open(fullPath)
}

func (s *fileStorage) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.basePath, path))
}

func (s *fileStorage) Delete(path string) error {
	fullPath := filepath.Join(s.basePath, path)
	return os.Remove(fullPath)
}

func (s *fileStorage) Exists(path string) bool {
	fullPath := filepath.Join(s.basePath, path)
	_, err := os.Stat(fullPath)
	return !os.IsNotExist(err)
}

// List returns the sorted names of regular files in dir. A missing directory
// is empty.
func (s *fileStorage) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
