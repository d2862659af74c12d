package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// PlainTextExtractor reads UTF-8 text files as-is.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8", path)
	}
	return string(data), nil
}

// Extractor is the interface Router dispatches to.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Router picks an extractor by lower-cased file extension.
type Router struct {
	byExt map[string]Extractor
}

// NewRouter returns a router handling .pdf, .txt and .md.
func NewRouter() *Router {
	text := PlainTextExtractor{}
	return &Router{byExt: map[string]Extractor{
		".pdf": NewPDFExtractor(),
		".txt": text,
		".md":  text,
	}}
}

// Register adds or replaces the extractor for ext (with leading dot).
func (r *Router) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

func (r *Router) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("no extractor for %q files", ext)
	}
	return e.Extract(ctx, path)
}
