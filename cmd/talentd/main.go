// Package main provides the talentd command: the recruitment pipeline HTTP API and its
// maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "talentd",
	Short: "Recruitment pipeline API server",
	Long:  "talentd tracks candidate profiles and applications through recruitment stages, converts hires to employees and keeps an audit trail of every change.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
