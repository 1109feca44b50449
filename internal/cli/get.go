package cli

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [url...]",
	Short: "Download and assemble books",
	Long: `Download one or more books and assemble each into an output file.

Supported URLs are catalogue book and audiobook pages and the online
reader links. A failed book does not stop the remaining ones.

Examples:
  litdl get https://www.litres.ru/book/author/title-123/
  litdl get --no-login URL1 URL2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noLogin, _ := cmd.Flags().GetBool("no-login")
		return processURLs(cmd.Context(), args, !noLogin)
	},
}

func init() {
	getCmd.Flags().Bool("no-login", false, "fail instead of opening a browser when the saved session is invalid")
}
