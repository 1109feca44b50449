package cli

import (
	"context"
	"fmt"

	"github.com/billmal071/litdl/internal/tui"
)

// runInteractive prompts for URLs until the user quits
func runInteractive(ctx context.Context) error {
	proc, notifier, err := newProcessor(ctx, true)
	if err != nil {
		return err
	}
	defer notifier.Wait()

	for ctx.Err() == nil {
		url, ok, err := tui.RunPrompt("Enter a book URL", "https://www.litres.ru/book/...")
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if url == "" {
			continue
		}

		printResult(proc.Process(ctx, url))
		fmt.Println()
	}
	fmt.Println(tui.DimStyle.Render("Bye."))
	return nil
}
