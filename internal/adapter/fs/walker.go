package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"docrag/internal/domain"
)

// Walker enumerates corpus files matching include globs and no exclude glob.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

type FileInfo struct {
	Path string
}

// Walk returns matching files under root in lexical order.
func (w *Walker) Walk(root string) ([]FileInfo, error) {
	var files []FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, FileInfo{Path: path})
		}

		return nil
	})

	return files, err
}

// Documents walks root and maps each file to a document whose id is the
// file name without its extension. Two files with the same id are rejected.
func (w *Walker) Documents(root string) ([]domain.Document, error) {
	files, err := w.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	seen := make(map[string]string, len(files))
	docs := make([]domain.Document, 0, len(files))
	for _, f := range files {
		id := DocID(f.Path)
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %q from %s and %s", domain.ErrDuplicateDocID, id, prev, f.Path)
		}
		seen[id] = f.Path
		docs = append(docs, domain.Document{ID: id, Path: f.Path})
	}
	return docs, nil
}

// DocID derives a document id from a file path.
func DocID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
