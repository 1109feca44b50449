package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry books whose last attempt failed",
	Long: `Process again every book recorded as failed in the history.

Parts downloaded by earlier attempts are kept, so only the missing
ones are fetched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := store.Failed()
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		if len(urls) == 0 {
			fmt.Println("No failed books to retry.")
			return nil
		}

		fmt.Printf("Retrying %d failed books...\n\n", len(urls))
		noLogin, _ := cmd.Flags().GetBool("no-login")
		return processURLs(cmd.Context(), urls, !noLogin)
	},
}

func init() {
	retryCmd.Flags().Bool("no-login", false, "fail instead of opening a browser when the saved session is invalid")
}
