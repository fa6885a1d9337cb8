package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	docsLimit int
	docsJSON  bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List ingested documents, newest first",
	RunE:  runDocs,
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.Flags().IntVarP(&docsLimit, "limit", "n", 50, "maximum number of documents")
	docsCmd.Flags().BoolVar(&docsJSON, "json", false, "output as JSON")
}

type docSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
	Created  string `json:"created_at"`
}

func runDocs(cmd *cobra.Command, args []string) error {
	st, err := openStore(GetRootDir(), true)
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.ListRecent(cmd.Context(), docsLimit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	summaries := make([]docSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, docSummary{
			ID:       d.ID,
			Name:     d.Name,
			Path:     d.Path,
			MimeType: d.MimeType,
			Created:  d.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	if docsJSON {
		output, _ := json.MarshalIndent(summaries, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(summaries) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}
	for _, s := range summaries {
		fmt.Printf("%s  %s  %-16s %s\n", s.ID, s.Created, s.MimeType, s.Name)
	}
	return nil
}
