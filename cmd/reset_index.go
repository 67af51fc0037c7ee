/*
Copyright © 2025 caselens
*/
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/config"
	"github.com/caselens/casefile-be/database"
)

// resetIndexCmd represents the reset-index command
var resetIndexCmd = &cobra.Command{
	Use:   "reset-index",
	Short: "Drop and recreate the vector index",
	Long: `Drops the fragment class in Weaviate and recreates it empty. All
indexed fragments are lost; documents must be re-ingested afterwards.`,
	Run: func(cmd *cobra.Command, args []string) {
		zl, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("Failed to init logger: %v", err)
		}
		logger := zl.Sugar()

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		store, err := database.NewFragmentStore(cfg.Weaviate, logger)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate: %v", err)
		}
		if err := store.ReInit(); err != nil {
			log.Fatalf("Failed to reset index: %v", err)
		}
		logger.Info("vector index reset")
	},
}

func init() {
	rootCmd.AddCommand(resetIndexCmd)
}
