// Package discovery resolves glob patterns to the input files of a run.
package discovery

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
)

// DefaultPatterns returns the standard layout under dataDir: one folder per
// category, extensions matched case-insensitively.
func DefaultPatterns(dataDir string) map[domain.Category][]string {
	if dataDir == "" {
		dataDir = "data"
	}
	tabular := func(folder string) []string {
		base := filepath.ToSlash(filepath.Join(dataDir, folder))
		return []string{
			base + "/**/*.[cC][sS][vV]",
			base + "/**/*.[xX][lL][sS][xX]",
			base + "/**/*.[xX][lL][sS]",
		}
	}
	return map[domain.Category][]string{
		domain.CategoryMerchants: tabular("merchants"),
		domain.CategoryCustomers: tabular("customers"),
		domain.CategorySales: {
			filepath.ToSlash(filepath.Join(dataDir, "sales")) + "/**/*Revenue Item Sales*.csv",
		},
	}
}

// Discover expands every pattern per category. Each category maps to the
// sorted set of unique absolute paths of regular files; a category without
// matches gets an empty slice and a warning.
func Discover(patterns map[domain.Category][]string) map[domain.Category][]string {
	out := make(map[domain.Category][]string, len(patterns))
	for category, list := range patterns {
		out[category] = Files(category, list)
	}
	return out
}

// Files expands the patterns of a single category.
func Files(category domain.Category, patterns []string) []string {
	seen := make(map[string]struct{})
	files := make([]string, 0)

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			log.Warn().Err(err).Str("category", string(category)).Str("pattern", pattern).Msg("invalid glob pattern, skipping")
			continue
		}
		for _, match := range matches {
			abs, err := filepath.Abs(match)
			if err != nil {
				log.Warn().Err(err).Str("path", match).Msg("cannot resolve absolute path")
				continue
			}
			if _, dup := seen[abs]; dup {
				continue
			}
			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			seen[abs] = struct{}{}
			files = append(files, abs)
		}
	}

	sort.Strings(files)

	if len(files) == 0 {
		log.Warn().Str("category", string(category)).Strs("patterns", patterns).Msg("no files matched")
	}
	return files
}
