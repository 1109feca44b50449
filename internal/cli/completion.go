package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/billmal071/litdl/internal/config"
	"github.com/billmal071/litdl/internal/db"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for litdl.

Bash:
  $ source <(litdl completion bash)

Zsh:
  $ litdl completion zsh > "${fpath[1]}/_litdl"

Fish:
  $ litdl completion fish > ~/.config/fish/completions/litdl.fish

PowerShell:
  PS> litdl completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

// completeHistoryURLs completes book URLs recorded in history. It runs
// before PersistentPreRunE, so it opens the database itself.
func completeHistoryURLs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	s, err := db.Open(config.GetDBPath())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer s.Close()

	records, err := s.List("", 0)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var completions []string
	for _, r := range records {
		completions = append(completions, fmt.Sprintf("%s\t%s (%s)", r.URL, truncateTitle(r.Title, 40), r.Status))
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// truncateTitle truncates a title to the specified length
func truncateTitle(title string, maxLen int) string {
	r := []rune(title)
	if len(r) <= maxLen {
		return title
	}
	return string(r[:maxLen-3]) + "..."
}
