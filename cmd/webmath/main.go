// Command webmath runs the exam-preparation service and its operator tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "webmath",
	Short: "Russian exam diagnostics with a teaching assistant",
	Long: `webmath serves the diagnostics API (registration, tests, scoring and
analysis) together with the teacher and methodist assistants, and carries
the operator commands used to prepare its database and retrieval indexes.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "webmath.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with secrets")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
