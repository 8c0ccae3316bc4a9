package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/platform-analytics/internal/config"
	"github.com/andresuchdata/platform-analytics/internal/report"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "metrics_cache.json"))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap, "missing file is a first run")

	require.NoError(t, store.Save(ctx, &report.Snapshot{RunDate: "2025-08-11", MerchantsTotal: 700, PlatformDaily: 11.67}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 700, loaded.MerchantsTotal)
	assert.Equal(t, 11.67, loaded.PlatformDaily)
	assert.True(t, loaded.Has("platform_daily"))

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	snap, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	store := NewRedisStore(client, "")

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	require.NoError(t, store.Save(ctx, &report.Snapshot{CustomersTotal: 42}))
	assert.True(t, mr.Exists(defaultSnapshotKey))
	assert.Zero(t, mr.TTL(defaultSnapshotKey), "snapshot never expires")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 42, loaded.CustomersTotal)

	require.NoError(t, mr.Set(defaultSnapshotKey, "garbage"))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestNewSnapshotStore(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.CacheConfig
		want    interface{}
		wantErr bool
	}{
		{name: "default file", cfg: config.CacheConfig{}, want: &FileStore{}},
		{name: "file", cfg: config.CacheConfig{Backend: "file", FilePath: "x.json"}, want: &FileStore{}},
		{name: "none", cfg: config.CacheConfig{Backend: "none"}, want: NoopStore{}},
		{name: "redis", cfg: config.CacheConfig{Backend: "redis", RedisURL: "redis://" + mr.Addr()}, want: &RedisStore{}},
		{name: "postgres without db", cfg: config.CacheConfig{Backend: "postgres"}, wantErr: true},
		{name: "unknown", cfg: config.CacheConfig{Backend: "memcached"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewSnapshotStore(tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
		})
	}
}

func TestNoopStore(t *testing.T) {
	var store NoopStore
	require.NoError(t, store.Save(context.Background(), &report.Snapshot{}))

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	assert.Equal(t, redisDialTimeout, opts.DialTimeout)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@redis.internal:6379/1", RedisDB: 4})
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 4, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "not-a-url"})
	assert.Error(t, err)
}
