package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Source is the subset of Service the downloader needs.
type Source interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

var supportedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// Supported reports whether name is an export format the loaders can read.
// Native Google Sheets carry no extension and are skipped.
func Supported(name string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}

// SyncFolder mirrors the files of a Drive folder (and its subfolders) into
// destDir. Workbooks are kept as-is; the tabular readers open them directly.
func SyncFolder(ctx context.Context, src Source, folderPath, destDir string) ([]string, error) {
	if destDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}

	folderID, err := src.FindFolderByPath(ctx, folderPath)
	if err != nil {
		return nil, err
	}

	return syncTree(ctx, src, folderID, destDir)
}

func syncTree(ctx context.Context, src Source, folderID, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := src.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return localPaths, err
		}

		if f.IsFolder() {
			nested, err := syncTree(ctx, src, f.ID, filepath.Join(destDir, filepath.Base(f.Name)))
			localPaths = append(localPaths, nested...)
			if err != nil {
				return localPaths, err
			}
			continue
		}

		if !Supported(f.Name) {
			log.Debug().Str("name", f.Name).Str("mime_type", f.MimeType).Msg("skipping unsupported drive file")
			continue
		}

		localPath := filepath.Join(destDir, filepath.Base(f.Name))
		if err := downloadTo(ctx, src, f, localPath); err != nil {
			return localPaths, err
		}
		log.Info().Str("name", f.Name).Str("dest", localPath).Msg("drive file downloaded")
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

func downloadTo(ctx context.Context, src Source, f *File, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := src.DownloadFile(ctx, f.ID, out); err != nil {
		out.Close()
		_ = os.Remove(localPath)
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return out.Close()
}

var _ Source = (*Service)(nil)
