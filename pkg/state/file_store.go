package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"io/fs"
	"sync"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// DefaultFilePath is used when NewFileStore receives an empty path.
const DefaultFilePath = "rolestate.toml"

type fileDocument struct {
	Preferences map[string]string `toml:"preferences"`
}

// FileStore keeps preferences in a TOML file:
//
//	[preferences]
//	userRole = "coach"
//
// Every Save rewrites the file through a temp file and rename. A file that
// cannot be decoded is replaced on the next Save.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// FileWithLogger sets the logger that reports discarded files.
func FileWithLogger(logger *zap.Logger) FileOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewFileStore(path string, opts ...FileOption) *FileStore {
	if path == "" {
		path = DefaultFilePath
	}
	s := &FileStore{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Path returns the preferences file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := doc.Preferences[key]
	return value, ok, nil
}

func (s *FileStore) Save(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return err
		}
		s.logger.Warn("discarding undecodable preferences file",
			zap.String("path", s.path), zap.Error(err))
		doc = fileDocument{}
	}
	if doc.Preferences == nil {
		doc.Preferences = map[string]string{}
	}
	doc.Preferences[key] = value
	return s.write(doc)
}

func (s *FileStore) read() (fileDocument, error) {
	var doc fileDocument
	if _, err := toml.DecodeFile(s.path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileDocument{}, nil
		}
		return fileDocument{}, fmt.Errorf("state: decode %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileStore) write(doc fileDocument) (retErr error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("state: create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".rolestate-*.toml")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("state: encode %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("state: replace %s: %w", s.path, err)
	}
	return nil
}
