package extract

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFExtractor extracts text with poppler's pdftotext. Pages are separated
// by form feeds in pdftotext output; blank pages are dropped and the rest
// joined with newlines.
type PDFExtractor struct {
	runner CommandRunner
	binary string
}

func NewPDFExtractor() *PDFExtractor {
	return NewPDFExtractorWithRunner(execRunner{})
}

func NewPDFExtractorWithRunner(runner CommandRunner) *PDFExtractor {
	return &PDFExtractor{runner: runner, binary: "pdftotext"}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	out, err := e.runner.Run(ctx, e.binary, "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext %s: %w", path, err)
	}
	return joinPages(string(out)), nil
}

func joinPages(raw string) string {
	pages := strings.Split(raw, "\f")
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p) == "" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "\n")
}

// InstallInstructions explains how to get pdftotext.
func InstallInstructions() string {
	return `PDF extraction requires pdftotext (poppler):
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils`
}
