package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billmal071/litdl/internal/db"
	"github.com/billmal071/litdl/internal/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View and manage processed books",
	Long: `View and manage the books litdl has processed.

Examples:
  litdl history               List recent books
  litdl history list --failed List failed books only
  litdl history pick          Pick a book and process it again
  litdl history delete URL    Forget one book
  litdl history clear         Clear all history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory(20, "")
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent books",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		failedOnly, _ := cmd.Flags().GetBool("failed")
		var status db.Status
		if failedOnly {
			status = db.StatusFailed
		}
		return showHistory(limit, status)
	},
}

var historyPickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick a book from history and process it again",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := store.List("", 100)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		rec, err := tui.RunHistorySelector(records)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		return processURLs(cmd.Context(), []string{rec.URL}, true)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:               "delete [url]",
	Short:             "Remove one book from history",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeHistoryURLs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := store.Get(args[0]); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if err := store.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to delete history: %w", err)
		}
		Successf("Removed %s from history.", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all history",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := store.Clear()
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		Successf("History cleared (%d entries).", n)
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	historyListCmd.Flags().Bool("failed", false, "show failed books only")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyPickCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func showHistory(limit int, status db.Status) error {
	records, err := store.List(status, limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No history.")
		fmt.Println("\nBooks are recorded automatically when you download them.")
		return nil
	}

	fmt.Printf("Processed Books (%d):\n\n", len(records))
	for i, r := range records {
		item := tui.HistoryItem{Record: r}
		fmt.Printf("  %d. %s\n", i+1, item.Title())
		fmt.Printf("     %s\n", tui.StatusStyle(string(r.Status)).Render(item.Description()))
		fmt.Printf("     %s\n", tui.DimStyle.Render(r.URL))
		if r.OutputPath != "" {
			fmt.Printf("     → %s\n", r.OutputPath)
		}
		if r.ErrorMessage != "" {
			fmt.Printf("     %s\n", tui.ErrorStyle.Render(r.ErrorMessage))
		}
		fmt.Println()
	}
	return nil
}
