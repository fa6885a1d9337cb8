package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"groundqa/internal/usecase"
)

var (
	askText     string
	askTopK     int
	askDocLimit int
	askDocID    string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question with validated citations",
	Long: `Retrieve evidence, ask the configured generator, and print the answer
with citations that point at the retrieved passages.

Examples:
  groundqa ask -q "how long are logs kept?"
  groundqa ask -q "who signs off releases?" --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages (default from config)")
	askCmd.Flags().IntVar(&askDocLimit, "doc-limit", 0, "number of candidate documents (default from config)")
	askCmd.Flags().StringVar(&askDocID, "doc", "", "restrict retrieval to one document ID")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	gen, err := newGenerator(cfg.Generator, logger)
	if err != nil {
		return err
	}

	askUC, err := usecase.NewAskUseCase(retrieveUC, gen, cfg.Retrieve.TopK, cfg.Retrieve.DocLimit,
		usecase.WithLogger(logger),
		usecase.WithRetryPolicy(retryPolicy(cfg.Generator)),
		usecase.WithMaxCitations(cfg.Retrieve.MaxCitations),
	)
	if err != nil {
		return err
	}

	answer := askUC.Ask(cmd.Context(), usecase.AskRequest{
		Question: askText,
		TopK:     askTopK,
		DocLimit: askDocLimit,
		DocID:    askDocID,
	})

	if askJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(answer.Text)
	if answer.Confidence != nil {
		fmt.Printf("\nConfidence: %.2f\n", *answer.Confidence)
	}
	if len(answer.Citations) > 0 {
		fmt.Println("\nSources:")
		for i, c := range answer.Citations {
			fmt.Printf("  [%d] %s (%s, chars %d-%d)\n      %q\n", i+1, c.DocName, c.ChunkID, c.StartChar, c.EndChar, c.Quote)
		}
	}
	if answer.Status != usecase.StatusAnswered {
		fmt.Printf("\nStatus: %s\n", answer.Status)
	}
	return nil
}
