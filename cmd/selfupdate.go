package cmd

import (
	"fmt"
	"runtime"

	selfupdate "github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// repoSlug is the GitHub repository releases are published from.
const repoSlug = "elismaga/wst"

func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selfupdate",
		Short: "Update wst to the latest released version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Checking for updates...")

			latest, found, err := selfupdate.DetectLatest(cmd.Context(), selfupdate.ParseSlug(repoSlug))
			if err != nil {
				return fmt.Errorf("failed to check for updates: %w", err)
			}
			if !found {
				return fmt.Errorf("no release found for %s/%s", runtime.GOOS, runtime.GOARCH)
			}

			if latest.LessOrEqual(rootCmd.Version) {
				fmt.Printf("Already at latest version (%s)\n", rootCmd.Version)
				return nil
			}

			fmt.Printf("New version available: v%s (current: %s)\n", latest.Version(), rootCmd.Version)

			exe, err := selfupdate.ExecutablePath()
			if err != nil {
				return fmt.Errorf("failed to find executable path: %w", err)
			}

			if err := selfupdate.UpdateTo(cmd.Context(), latest.AssetURL, latest.AssetName, exe); err != nil {
				return fmt.Errorf("failed to update: %w", err)
			}

			fmt.Printf("Successfully updated to v%s\n", latest.Version())
			return nil
		},
	}
}
