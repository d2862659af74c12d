package chunker

import (
	"fmt"
	"iter"
	"strings"

	"docrag/internal/domain"
)

// WindowChunker slides a fixed-size character window across text, advancing
// by size-overlap characters so that neighbouring windows share overlap
// characters.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Validate checks that size > overlap > 0.
func Validate(size, overlap int) error {
	if overlap <= 0 || size <= overlap {
		return fmt.Errorf("%w: chunk size %d must be greater than overlap %d, and overlap must be positive",
			domain.ErrInvalidConfiguration, size, overlap)
	}
	return nil
}

func (c *WindowChunker) Size() int    { return c.size }
func (c *WindowChunker) Overlap() int { return c.overlap }

// Windows yields the non-blank windows of text in offset order. Offsets count
// characters (runes), not bytes. The last window is cut at the end of text.
// Windows that are entirely whitespace are skipped.
func (c *WindowChunker) Windows(text string) iter.Seq[domain.Window] {
	return func(yield func(domain.Window) bool) {
		runes := []rune(text)
		step := c.size - c.overlap

		for start := 0; start < len(runes); start += step {
			end := min(start+c.size, len(runes))
			window := string(runes[start:end])
			if strings.TrimSpace(window) == "" {
				continue
			}
			if !yield(domain.Window{Start: start, End: end, Text: window}) {
				return
			}
		}
	}
}

// Chunk returns the window texts of text for the given size and overlap.
func Chunk(text string, size, overlap int) (iter.Seq[string], error) {
	c, err := NewWindowChunker(size, overlap)
	if err != nil {
		return nil, err
	}
	return func(yield func(string) bool) {
		for w := range c.Windows(text) {
			if !yield(w.Text) {
				return
			}
		}
	}, nil
}
