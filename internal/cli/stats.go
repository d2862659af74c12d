package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/adapter/retriever"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
)

var statsDocs bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the persisted index contains",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsDocs, "docs", false, "list indexed document ids")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	st, err := store.Open(root, cfg, true)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			return fmt.Errorf("no index found. Run 'docrag index' first")
		}
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	engine := retriever.NewEngine(st, GetLogger())
	if err := engine.Load(); err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			return fmt.Errorf("no index found. Run 'docrag index' first")
		}
		return err
	}

	out := cmd.OutOrStdout()
	ix := engine.Index()
	s := ix.Stats()

	fmt.Fprintf(out, "Index:      %s\n", config.IndexPath(root, cfg))
	fmt.Fprintf(out, "Documents:  %d\n", s.TotalDocs)
	fmt.Fprintf(out, "Chunks:     %d\n", s.TotalChunks)
	fmt.Fprintf(out, "Dimension:  %d\n", s.Dimension)

	if m, ok := engine.Manifest(); ok {
		fmt.Fprintf(out, "Model:      %s\n", m.EmbeddingModel)
		fmt.Fprintf(out, "Chunking:   size %d, overlap %d\n", m.ChunkSize, m.ChunkOverlap)
		fmt.Fprintf(out, "Built at:   %s\n", m.BuiltAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Schema:     v%d\n", m.SchemaVersion)
	}

	if statsDocs {
		fmt.Fprintf(out, "\nDocuments:\n  %s\n", strings.Join(ix.DocIDs(), "\n  "))
	}
	return nil
}
