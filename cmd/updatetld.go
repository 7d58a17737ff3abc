package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdyhr/httpcheck/internal/tld"
)

var updateCacheDays int

// updateTLDCmd represents the update-tld command
var updateTLDCmd = &cobra.Command{
	Use:   "update-tld",
	Short: "Force a refresh of the TLD list from publicsuffix.org",
	Long: `Fetches the current Public Suffix List and replaces the local cache,
regardless of the cache age.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := tld.New(tld.Options{
			ForceUpdate: true,
			CacheDays:   updateCacheDays,
		})
		if err != nil {
			return err
		}
		if manager.Len() == 0 {
			return fmt.Errorf("TLD list update failed, no suffixes loaded")
		}

		fmt.Printf("TLD list updated: %d suffixes (last updated %s)\n",
			manager.Len(), manager.UpdateTime().Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateTLDCmd)
	updateTLDCmd.Flags().IntVar(&updateCacheDays, "tld-cache-days", tld.DefaultCacheDays,
		"number of days to keep the TLD cache valid")
}
