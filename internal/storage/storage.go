// Package storage mirrors export files from S3-compatible buckets and
// publishes CSV exports back.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ObjectInfo is the listing entry for one remote object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage is the bucket surface the sync and publish helpers use.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// SyncPrefix downloads every object under prefix into destDir, keeping the
// key layout below the prefix so category folders survive. It returns the
// local paths written.
func SyncPrefix(ctx context.Context, store ObjectStorage, prefix, destDir string) ([]string, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, obj := range objects {
		rel, ok := relativeKey(obj.Key, prefix)
		if !ok {
			continue
		}
		dest, err := localPath(destDir, rel)
		if err != nil {
			log.Warn().Err(err).Str("key", obj.Key).Msg("skipping object")
			continue
		}
		if err := store.DownloadObject(ctx, obj.Key, dest); err != nil {
			return written, err
		}
		log.Info().Str("key", obj.Key).Str("dest", dest).Int64("size", obj.Size).Time("modified", obj.LastModified).Msg("object downloaded")
		written = append(written, dest)
	}
	return written, nil
}

// PublishExports uploads local files under prefix, keyed by base name.
func PublishExports(ctx context.Context, store ObjectStorage, prefix string, files []string) error {
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		key := path.Join(prefix, filepath.Base(file))
		if err := store.UploadObject(ctx, key, data); err != nil {
			return err
		}
		log.Info().Str("key", key).Int("bytes", len(data)).Msg("export published")
	}
	return nil
}

// relativeKey strips prefix from key. Directory markers yield false.
func relativeKey(key, prefix string) (string, bool) {
	if strings.HasSuffix(key, "/") {
		return "", false
	}
	rel := strings.TrimPrefix(key, prefix)
	rel = strings.TrimLeft(rel, "/")
	if rel == "" {
		return "", false
	}
	return rel, true
}

// localPath joins rel onto destDir and refuses keys that climb out of it.
func localPath(destDir, rel string) (string, error) {
	dest := filepath.Join(destDir, filepath.FromSlash(rel))
	root := filepath.Clean(destDir)
	if dest != root && !strings.HasPrefix(dest, root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes %s", rel, destDir)
	}
	return dest, nil
}
