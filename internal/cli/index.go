package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/extract"
	"docrag/internal/adapter/fs"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index [docs-dir]",
	Short: "Build the chunk index from a document folder",
	Long: `Extract, chunk and embed every matching document and replace the persisted
index. The documents folder defaults to index.docs_dir from the config.

Examples:
  docrag index                 # Index ./docs_raw
  docrag index ./contracts     # Index a specific folder`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()
	log := GetLogger()

	docsDir := config.DocsPath(root, cfg)
	if len(args) > 0 {
		var err error
		docsDir, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(docsDir)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", docsDir)
	}

	if err := config.EnsureRAGDir(root); err != nil {
		return fmt.Errorf("failed to create .rag directory: %w", err)
	}

	var source port.DocumentSource = fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	docs, err := source.Documents(docsDir)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	chk, err := chunker.NewWindowChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if err != nil {
		return err
	}

	embedder, err := embedding.New(cfg.Embedding, log)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	if cfg.Embedding.CacheSize > 0 {
		// Repeated windows such as page headers and footers are embedded once.
		embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}

	st, err := store.Open(root, cfg, false)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	indexUC := usecase.NewIndexUseCase(extract.NewRouter(), chk, embedder, st, log)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexing %d documents from %s (model %s)...\n", len(docs), docsDir, embedder.ModelName())

	result, err := indexUC.Build(cmd.Context(), docs, newProgress(len(docs)))
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(out, "\nIndexing complete:\n")
	fmt.Fprintf(out, "  Documents indexed: %d\n", result.DocsIndexed)
	fmt.Fprintf(out, "  Documents skipped: %d\n", len(result.Skipped))
	fmt.Fprintf(out, "  Chunks created:    %d\n", result.ChunksCreated)
	fmt.Fprintf(out, "  Dimension:         %d\n", result.Manifest.Dimension)
	fmt.Fprintf(out, "  Took:              %s\n", formatDuration(result.Duration))

	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "\nSkipped:\n")
		for _, s := range result.Skipped {
			fmt.Fprintf(out, "  - %s (%s): %s\n", s.DocID, s.Path, s.Reason)
		}
	}
	if missingPDFTool(result.Skipped) {
		fmt.Fprintf(out, "\n%s\n", extract.InstallInstructions())
	}

	fmt.Fprintf(out, "\nIndex stored at: %s\n", config.IndexPath(root, cfg))
	return nil
}

// missingPDFTool reports whether a document was skipped because the
// pdftotext binary could not be found.
func missingPDFTool(skipped []usecase.SkippedDoc) bool {
	for _, s := range skipped {
		if errors.Is(s.Err, exec.ErrNotFound) {
			return true
		}
	}
	return false
}

// newProgress returns a progress callback drawing a bar on terminals and
// nothing otherwise.
func newProgress(total int) usecase.Progress {
	if total == 0 || !(isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) {
		return nil
	}

	start := time.Now()
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	return func(done, total int, doc domain.Document) {
		_ = bar.Set(done)
		elapsed := time.Since(start)
		rate := float64(done) / elapsed.Seconds()
		if rate > 0 {
			eta := time.Duration(float64(total-done)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] %s ETA: %s", doc.ID, formatDuration(eta)))
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
