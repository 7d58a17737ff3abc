package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdyhr/httpcheck/internal/update"
	"github.com/docdyhr/httpcheck/internal/version"
)

var checkLatest bool

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the httpcheck version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("httpcheck %s\n", version.Version)

		if !checkLatest {
			return nil
		}

		latest, newer, err := update.CheckLatest(version.Version)
		if err != nil {
			return fmt.Errorf("could not check for a newer release: %w", err)
		}
		if newer {
			fmt.Printf("A new version %s is available!\n", latest)
		} else {
			fmt.Println("You are on the latest version.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&checkLatest, "check", false, "check for a newer release")
}
