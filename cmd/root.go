package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fleetdocs/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "fleetdocs",
	Short: "Fleet document analysis CLI - analyze and file maritime fleet documents",
	Long: `Fleet document analysis CLI processes scanned maritime documents
(survey reports, test reports, audit records) through Document AI,
extracts structured fields, validates the ship identity and files the
document with its record.

This application is built with Go and Cobra, making it easy to extend
with additional subcommands as needed.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("fleetdocs CLI executed")

		fmt.Println("Welcome to the fleetdocs CLI!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
