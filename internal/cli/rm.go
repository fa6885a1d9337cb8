package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Remove documents from the store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	st, err := openStore(GetRootDir(), true)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, id := range args {
		if err := st.DeleteDoc(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to remove %s: %w", id, err)
		}
		fmt.Printf("Removed %s\n", id)
	}
	return nil
}
