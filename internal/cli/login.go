package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billmal071/litdl/internal/host"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in through a browser and save the session",
	Long: `Open a browser window on the LitRes login page. Once you have logged
in, the session cookie is saved and reused by later runs.

Use --check to only report whether the saved session is still valid.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		check, _ := cmd.Flags().GetBool("check")
		force, _ := cmd.Flags().GetBool("force")

		session, err := host.NewSession(cfg.Host, cfg.Network, logger)
		if err != nil {
			return err
		}

		if check {
			if err := session.Authenticate(ctx, nil); err != nil {
				return err
			}
			Successf("Saved session is valid")
			return nil
		}

		if force {
			cookies, err := host.BrowserLogin(ctx, session.BaseURL()+"/pages/login/")
			if err != nil {
				return err
			}
			if err := session.SaveCookies(cookies); err != nil {
				return err
			}
		}

		if err := session.Authenticate(ctx, host.BrowserLogin); err != nil {
			return err
		}
		Successf("Logged in")
		fmt.Printf("Session saved to: %s\n", cfg.Host.CookieFile)
		return nil
	},
}

func init() {
	loginCmd.Flags().Bool("check", false, "only verify the saved session")
	loginCmd.Flags().Bool("force", false, "log in again even if the saved session is valid")
}
