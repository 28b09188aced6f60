package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the application
var rootCmd = &cobra.Command{
	Use:   "lazy-email-to-spreadsheet",
	Short: "Turns job application emails into Google Sheets rows",
	Long: `lazy-email-to-spreadsheet reads job application emails from your Gmail
inbox, extracts the company, role, and application status with a local
Ollama model, and records each application as a row in a Google Sheets
tracking spreadsheet.

Runs are resumable: processed emails are checkpointed, so interrupting
and re-running never repeats an LLM call or writes a duplicate row.`,
	SilenceUsage: true,
}

var verbose bool

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "lazy-email-to-spreadsheet version %s\n" .Version}}`)

	// If no subcommand is provided, run the sync command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "sync")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
