/*
Copyright © 2025 caselens
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "casefile-be",
	Short: "Backend for case document Q&A",
	Long: `casefile-be ingests the documents of a legal case (PDFs, scans,
spreadsheets, message exports, audio), indexes them in a vector store and
answers questions about the case grounded in those documents.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file")
}
