package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the book metadata cache",
	Long: `Manage the cache of resolved book metadata.

Resolved books are cached for downloads.metadata_ttl so that retries
do not request the metadata again.

Examples:
  litdl cache          Show cache statistics
  litdl cache clean    Remove expired entries
  litdl cache clear    Remove every entry`,
	RunE: func(cmd *cobra.Command, args []string) error {
		total, expired, err := store.CacheStats()
		if err != nil {
			return fmt.Errorf("failed to get cache stats: %w", err)
		}

		fmt.Println("Metadata Cache:")
		fmt.Printf("  Total entries:   %d\n", total)
		fmt.Printf("  Valid entries:   %d\n", total-expired)
		fmt.Printf("  Expired entries: %d\n", expired)
		fmt.Printf("  TTL:             %s\n", cfg.Downloads.MetadataTTL)
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := store.CleanExpiredCache()
		if err != nil {
			return fmt.Errorf("failed to clean cache: %w", err)
		}
		Successf("Removed %d expired entries.", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.ClearCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		Successf("Metadata cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
