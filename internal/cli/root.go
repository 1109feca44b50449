package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/config"
	"github.com/billmal071/litdl/internal/db"
	"github.com/billmal071/litdl/internal/logging"
	"github.com/billmal071/litdl/internal/metrics"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.SugaredLogger
	store  *db.Store
)

var rootCmd = &cobra.Command{
	Use:   "litdl",
	Short: "Download books from LitRes",
	Long: `litdl downloads books you have access to on LitRes and assembles them
into PDF, FB2 or MP3 files.

Downloads are resumable: parts already on disk are never fetched again.
Run without arguments for an interactive prompt.

Examples:
  litdl                                                   Interactive mode
  litdl get https://www.litres.ru/book/author/title-123/  Download a book
  litdl convert books-source/Title --format fb2           Re-assemble offline
  litdl history                                           Show processed books
  litdl retry                                             Retry failed books`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if logger, err = logging.New(verbose); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if store, err = db.Open(config.GetDBPath()); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		metrics.Register()
		if cfg.Metrics.Addr != "" {
			go func() {
				if err := metrics.Serve(cmd.Context(), cfg.Metrics.Addr); err != nil {
					logger.Warnw("Metrics endpoint stopped", "addr", cfg.Metrics.Addr, "error", err)
				}
			}()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		store.Close()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/litdl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}

// Verbose returns whether verbose mode is enabled
func Verbose() bool {
	return verbose
}

// Errorf prints an error message to stderr
func Errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// Successf prints a success message
func Successf(format string, args ...interface{}) {
	fmt.Printf("✓ "+format+"\n", args...)
}
