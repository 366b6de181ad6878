package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/resultatbasen/ingest/internal/usecase"
)

const fileSuffix = ".checkpoint.json"

// FileStore persists one small JSON checkpoint file per scan stream.
// Writes go through a temp file and rename so an interrupted save
// never leaves a truncated checkpoint behind.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory %s: %w", dir, err)
	}
	if _, err := os.ReadDir(dir); err != nil {
		return nil, fmt.Errorf("checkpoint directory %s is not readable: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Load(_ context.Context, stream string) (usecase.Checkpoint, bool, error) {
	raw, err := os.ReadFile(s.path(stream))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return usecase.Checkpoint{}, false, nil
		}
		return usecase.Checkpoint{}, false, fmt.Errorf("read checkpoint %s: %w", stream, err)
	}

	var cp usecase.Checkpoint
	if err := sonic.Unmarshal(raw, &cp); err != nil {
		return usecase.Checkpoint{}, false, fmt.Errorf("decode checkpoint %s: %w", stream, err)
	}
	return cp, true, nil
}

func (s *FileStore) Save(_ context.Context, stream string, cp usecase.Checkpoint) error {
	raw, err := sonic.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint %s: %w", stream, err)
	}

	target := s.path(stream)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", stream, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("commit checkpoint %s: %w", stream, err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context) (map[string]usecase.Checkpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	out := make(map[string]usecase.Checkpoint)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stream := strings.TrimSuffix(name, fileSuffix)

		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read checkpoint %s: %w", stream, err)
		}
		var cp usecase.Checkpoint
		if err := sonic.Unmarshal(raw, &cp); err != nil {
			return nil, fmt.Errorf("decode checkpoint %s: %w", stream, err)
		}
		out[stream] = cp
	}
	return out, nil
}

// path maps a stream name to a file name, replacing anything that is
// not filename-safe.
func (s *FileStore) path(stream string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, stream)
	return filepath.Join(s.dir, safe+fileSuffix)
}
