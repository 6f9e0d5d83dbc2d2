package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"wst/pkg/logging"
)

var debugFlag bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wst",
	Short: "Manage source control, test environments, and publishing for a workspace of products",
	Long: `wst coordinates development across a workspace containing many
independently-versioned products: it keeps per-product test environments in
sync with their dependency declarations, links sibling products in editable
mode, and handles the publish workflow.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. invalid arguments, failed environment builds)
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelInfo
		if debugFlag {
			level = logging.LevelDebug
		}
		logging.Init(level, os.Stderr)
	},
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "wst version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Show debug output")

	rootCmd.AddCommand(newTestCmd())
	rootCmd.AddCommand(newPublishCmd())
	rootCmd.AddCommand(newSetupCmd())
	rootCmd.AddCommand(newWaitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
