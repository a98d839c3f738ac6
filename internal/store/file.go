package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/punchamoorthee/orionledger/internal/domain"
)

// FileStore keeps the ledger in one JSON file, replaced atomically on save
// via a temp file and rename.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: filepath.Clean(path), logger: logger}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (*domain.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Save(ctx context.Context, l *domain.Ledger) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() { observeSave("file", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	if current.Revision != l.Revision {
		return fmt.Errorf("%w: have revision %d, stored %d", ErrStale, l.Revision, current.Revision)
	}
	if unchanged(current, l) {
		l.SchemaVersion = domain.SchemaVersion
		return nil
	}

	next := *l
	next.Revision = l.Revision + 1
	data, err := Encode(&next)
	if err != nil {
		return err
	}
	if err := s.writeAtomic(data); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	l.Revision = next.Revision
	l.SchemaVersion = domain.SchemaVersion
	return nil
}

func (s *FileStore) Close() error { return nil }

// read must be called with mu held.
func (s *FileStore) read() (*domain.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	l, err := Decode(data)
	if err != nil {
		s.quarantine(err)
		return domain.NewLedger(), nil
	}
	return l, nil
}

// quarantine moves an undecodable document aside so the next save starts
// fresh without destroying it.
func (s *FileStore) quarantine(cause error) {
	aside := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, aside); err != nil {
		s.logger.Error("ledger document is malformed and could not be moved aside",
			"path", s.path, "decode_error", cause, "error", err)
		return
	}
	s.logger.Warn("ledger document is malformed, starting empty",
		"path", s.path, "moved_to", aside, "decode_error", cause)
}

func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
