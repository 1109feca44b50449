package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billmal071/litdl/internal/downloader"
	"github.com/billmal071/litdl/internal/render"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [source-dir]",
	Short: "Check a source directory for missing parts",
	Long: `Check that every part of a downloaded book is present.

The expected part count is taken from --parts, or detected from the
highest part number on disk.

Examples:
  litdl verify books-source/Title
  litdl verify books-source/Title --parts 240`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		total, _ := cmd.Flags().GetInt("parts")
		if total <= 0 {
			b, err := render.LocalBook(dir, "")
			if err != nil {
				return err
			}
			total = b.TotalParts()
		}

		err := downloader.VerifyComplete(dir, total)
		var incomplete *downloader.IncompleteError
		if errors.As(err, &incomplete) {
			Errorf("%d of %d parts missing: %v", len(incomplete.Missing), total, incomplete.Missing)
			return fmt.Errorf("incomplete download (run 'litdl retry' or 'litdl get' again)")
		}
		if err != nil {
			return err
		}

		Successf("All %d parts present", total)
		return nil
	},
}

func init() {
	verifyCmd.Flags().IntP("parts", "n", 0, "expected number of parts")
}
