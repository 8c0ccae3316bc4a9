// Package cache persists the metrics snapshot that the next run diffs
// against.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/platform-analytics/internal/config"
	"github.com/andresuchdata/platform-analytics/internal/report"
	"github.com/andresuchdata/platform-analytics/internal/repository/postgres"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultSnapshotKey = "analytics:metrics_snapshot"

// SnapshotStore loads and saves the last snapshot. Load returns (nil, nil)
// when there is nothing usable to compare against.
type SnapshotStore interface {
	Load(ctx context.Context) (*report.Snapshot, error)
	Save(ctx context.Context, snap *report.Snapshot) error
}

// NewSnapshotStore selects the backend named by cfg.Backend. db is only
// needed for the postgres backend.
func NewSnapshotStore(cfg config.CacheConfig, db *postgres.DB) (SnapshotStore, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.FilePath), nil
	case "redis":
		return openRedisStore(context.Background(), cfg)
	case "postgres":
		if db == nil {
			return nil, errors.New("postgres snapshot store requires a database connection")
		}
		repo := postgres.NewSnapshotRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
		return repo, nil
	case "none":
		return NoopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// FileStore keeps the snapshot as indented JSON on disk. Concurrent runs are
// not coordinated; the last writer wins.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "metrics_cache.json"
	}
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (*report.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	return decode(data, s.path), nil
}

func (s *FileStore) Save(ctx context.Context, snap *report.Snapshot) error {
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".metrics-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(payload, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", s.path, err)
	}
	return nil
}

// RedisStore keeps the snapshot under a single key without expiry.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultSnapshotKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (*report.Snapshot, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decode(payload, s.key), nil
}

func (s *RedisStore) Save(ctx context.Context, snap *report.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// NoopStore never remembers anything, so every run is a first run.
type NoopStore struct{}

func (NoopStore) Load(ctx context.Context) (*report.Snapshot, error) {
	return nil, nil
}

func (NoopStore) Save(ctx context.Context, snap *report.Snapshot) error {
	return nil
}

// decode treats a corrupt document as no snapshot at all.
func decode(data []byte, source string) *report.Snapshot {
	var snap report.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warn().Err(err).Str("source", source).Msg("corrupt metrics snapshot, ignoring")
		return nil
	}
	return &snap
}
