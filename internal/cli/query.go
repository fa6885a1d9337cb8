package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"groundqa/internal/usecase"
)

var (
	queryText     string
	queryTopK     int
	queryDocLimit int
	queryDocID    string
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Show the evidence retrieved for a question",
	Long: `Retrieve the passages that cover the most question keywords, without
calling the answer generator.

Examples:
  groundqa query -q "retention policy"
  groundqa query -q "retention policy" --doc 3f2a... -k 3 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of passages (default from config)")
	queryCmd.Flags().IntVar(&queryDocLimit, "doc-limit", 0, "number of candidate documents (default from config)")
	queryCmd.Flags().StringVar(&queryDocID, "doc", "", "restrict retrieval to one document ID")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := openStore(GetRootDir(), true)
	if err != nil {
		return err
	}
	defer st.Close()

	retrieveUC, err := newRetriever(cfg, st)
	if err != nil {
		return err
	}
	defer retrieveUC.Release()

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}
	docLimit := cfg.Retrieve.DocLimit
	if queryDocLimit > 0 {
		docLimit = queryDocLimit
	}

	chunks := retrieveUC.RetrieveChunks(cmd.Context(), queryText, docLimit, topK, queryDocID)
	results := usecase.ToResults(chunks)

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No evidence found.")
		return nil
	}
	fmt.Printf("Found %d passages for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s %s chars %d-%d (score: %.2f) ---\n", i+1, r.DocName, r.ChunkID, r.StartChar, r.EndChar, r.Score)
		text := []rune(r.Text)
		if len(text) > 500 {
			text = append(text[:500], []rune("...")...)
		}
		fmt.Println(string(text))
		fmt.Println()
	}
	return nil
}
