/*
Copyright © 2025 caselens
*/
package cmd

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/caselens/casefile-be/types"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest local files into a case",
	Long: `Ingests one or more local files into a case without going through
the HTTP API. Each file is copied into the upload directory, extracted,
chunked, embedded and indexed synchronously.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		caseID, _ := cmd.Flags().GetString("case")
		docType, _ := cmd.Flags().GetString("type")
		userID, _ := cmd.Flags().GetString("user")

		if !types.IsValidDocumentType(docType) {
			log.Fatalf("Unknown document type: %s", docType)
		}

		a, err := buildApp(cfgFile)
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		ctx := context.Background()
		if _, err := a.cases.Get(ctx, caseID); err != nil {
			log.Fatalf("Case %s not found: %v", caseID, err)
		}

		for _, path := range args {
			storagePath, err := a.files.SaveLocal(path)
			if err != nil {
				log.Fatalf("Failed to store %s: %v", path, err)
			}

			now := time.Now().Unix()
			doc := &types.Document{
				ID:          uuid.New().String(),
				CaseID:      caseID,
				UserID:      userID,
				Type:        docType,
				Title:       filepath.Base(path),
				StoragePath: storagePath,
				FileName:    filepath.Base(path),
				Status:      types.DOCUMENT_STATUS_UPLOADED,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := a.documents.Create(ctx, doc); err != nil {
				log.Fatalf("Failed to create document for %s: %v", path, err)
			}

			if err := a.ingestService.Process(ctx, doc); err != nil {
				a.logger.Errorw("ingestion failed", "file", path, "error", err)
				continue
			}
			a.logger.Infow("ingested", "file", path, "document", doc.ID)
		}

		// Financial analysis may still be running detached.
		a.runner.Wait()
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().String("case", "", "case id to ingest into (required)")
	ingestCmd.Flags().String("type", types.DOCUMENT_TYPE_OTHER, "document type")
	ingestCmd.Flags().String("user", "", "user id recorded as uploader")
	ingestCmd.MarkFlagRequired("case")
}
