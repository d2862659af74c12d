package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/retriever"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/usecase"
)

var (
	queryText    string
	queryTopK    int
	queryDocs    []string
	queryJSON    bool
	queryContext bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve the chunks most similar to a question",
	Long: `Embed the query and rank indexed chunks by cosine similarity.

Examples:
  docrag query -q "notice period"
  docrag query -q "payment terms" -k 10 --doc contract-a --doc contract-b
  docrag query -q "payment terms" --context   # print the joined context only`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().StringArrayVar(&queryDocs, "doc", nil, "restrict results to a document id (repeatable)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryContext, "context", false, "print the context string instead of ranked chunks")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := GetLogger()

	st, err := store.Open(GetRootDir(), cfg, true)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			return fmt.Errorf("no index found. Run 'docrag index' first")
		}
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	engine := retriever.NewEngine(st, log)
	if err := engine.Load(); err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			return fmt.Errorf("no index found. Run 'docrag index' first")
		}
		return err
	}

	embedder, err := embedding.New(cfg.Embedding, log)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	if cfg.Embedding.CacheSize > 0 {
		embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}

	if m, ok := engine.Manifest(); ok {
		warning, err := store.CheckManifest(m, embedder.ModelName())
		if err != nil {
			return err
		}
		if warning != "" {
			log.Warn(warning)
		}
	}

	topK := cfg.Retrieve.TopK
	if cmd.Flags().Changed("top-k") {
		topK = queryTopK
	}

	retrieveUC := usecase.NewRetrieveUseCase(embedder, engine, string(cfg.Retrieve.Separator), log)
	results, contextText, err := retrieveUC.RetrieveContext(cmd.Context(), queryText, topK, queryDocs)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case queryJSON:
		payload := struct {
			Query   string                      `json:"query"`
			Results []usecase.ScoredChunkResult `json:"results"`
			Context string                      `json:"context,omitempty"`
		}{Query: queryText, Results: usecase.ToResults(results)}
		if queryContext {
			payload.Context = contextText
		}
		output, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(output))
	case queryContext:
		fmt.Fprintln(out, contextText)
	default:
		if len(results) == 0 {
			fmt.Fprintln(out, "No results found.")
			return nil
		}
		fmt.Fprintf(out, "Found %d results for: %s\n\n", len(results), queryText)
		for i, r := range results {
			fmt.Fprintf(out, "--- [%d] %s (doc %s, score: %.4f) ---\n", i+1, r.Chunk.ID, r.Chunk.DocID, r.Score)
			text := []rune(r.Chunk.Text)
			if len(text) > 500 {
				text = append(text[:500], []rune("...")...)
			}
			fmt.Fprintln(out, string(text))
			fmt.Fprintln(out)
		}
	}

	return nil
}
