package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/downloader"
	"github.com/billmal071/litdl/internal/render"
)

var convertCmd = &cobra.Command{
	Use:   "convert [source-dir]",
	Short: "Assemble an already downloaded book without network access",
	Long: `Assemble the parts of a source directory into an output file.

The book kind is detected from the part files. Missing parts are an
error unless --force is given.

Examples:
  litdl convert books-source/Title
  litdl convert books-source/Title --format fb2 --title "Title"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		title, _ := cmd.Flags().GetString("title")
		output, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")

		dir := args[0]
		b, err := render.LocalBook(dir, title)
		if err != nil {
			return err
		}

		if err := downloader.VerifyComplete(dir, b.TotalParts()); err != nil {
			if !force {
				return fmt.Errorf("%w (use --force to assemble anyway)", err)
			}
			logger.Warnw("Assembling incomplete book", "error", err)
		}

		if output == "" {
			output = cfg.Downloads.BooksDir
		}
		paths := book.Paths{Filename: book.SanitizeFilename(b.Meta.Title), Source: dir, Output: output}
		if paths.Filename == "" {
			paths.Filename = "book"
		}
		if err := paths.MakeDirs(); err != nil {
			return err
		}

		renderer := newRenderer()
		var out string
		if format != "" {
			out, err = renderer.RenderAs(cmd.Context(), b, paths, format)
		} else {
			out, err = renderer.Render(cmd.Context(), b, paths)
		}
		if err != nil {
			return err
		}

		Successf("%s saved to %s", b.Meta.Title, out)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringP("format", "f", "", "output format: pdf, fb2, txt or mp3 (default: first configured format)")
	convertCmd.Flags().StringP("title", "t", "", "book title (default: directory name)")
	convertCmd.Flags().StringP("output", "o", "", "output directory (default: downloads.books_dir)")
	convertCmd.Flags().Bool("force", false, "assemble even when parts are missing")
}
