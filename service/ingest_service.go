package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/repository"
	"github.com/caselens/casefile-be/types"
	"github.com/caselens/casefile-be/worker"
)

// TextExtractor converts a stored file into raw text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename, mimeType, docType string) (string, error)
}

// Chunker splits raw text into token-budgeted chunks.
type Chunker interface {
	Chunk(text string) []types.Chunk
}

// FragmentIndex is the vector store surface the ingestion pipeline needs.
type FragmentIndex interface {
	BatchInsertFragments(ctx context.Context, fragments []types.Fragment, vectors [][]float32) error
	DeleteByDocument(ctx context.Context, documentID string) error
}

// FinancialAnalyzer runs transaction extraction over a processed document.
type FinancialAnalyzer interface {
	Analyze(ctx context.Context, doc *types.Document, fragments []types.Fragment) error
}

// IngestService drives a document through its lifecycle: it persists the
// processing status before any work starts, runs extraction, chunking and
// embedding, replaces the document's fragments atomically, and lands the
// document in processed or error. Terminal states are never left.
type IngestService struct {
	docs      repository.DocumentRepo
	files     *FileService
	extractor TextExtractor
	chunker   Chunker
	embedder  Embedder
	index     FragmentIndex
	financial FinancialAnalyzer
	runner    *worker.Runner
	logger    *zap.SugaredLogger
}

func NewIngestService(
	docs repository.DocumentRepo,
	files *FileService,
	extractor TextExtractor,
	chunker Chunker,
	embedder Embedder,
	index FragmentIndex,
	financial FinancialAnalyzer,
	runner *worker.Runner,
	logger *zap.SugaredLogger,
) *IngestService {
	return &IngestService{
		docs:      docs,
		files:     files,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		financial: financial,
		runner:    runner,
		logger:    logger,
	}
}

// Process runs the full pipeline for one uploaded document. Any pipeline
// failure moves the document to error with the failure message; the error
// is also returned for callers that want to log it.
func (s *IngestService) Process(ctx context.Context, doc *types.Document) error {
	// The processing status must be visible before extraction starts so
	// concurrent readers never see work happening on an "uploaded" document.
	if err := s.docs.SetStatus(ctx, doc.ID, types.DOCUMENT_STATUS_PROCESSING); err != nil {
		return fmt.Errorf("failed to mark document %s processing: %w", doc.ID, err)
	}

	data, err := s.files.Read(doc.StoragePath)
	if err != nil {
		return s.fail(ctx, doc.ID, fmt.Errorf("failed to read stored file: %w", err))
	}

	text, err := s.extractor.Extract(ctx, data, doc.FileName, doc.MimeType, doc.Type)
	if err != nil {
		return s.fail(ctx, doc.ID, fmt.Errorf("extraction failed: %w", err))
	}

	fragments, err := s.indexText(ctx, doc, text)
	if err != nil {
		return s.fail(ctx, doc.ID, err)
	}

	if err := s.docs.SetProcessed(ctx, doc.ID, text); err != nil {
		return fmt.Errorf("failed to mark document %s processed: %w", doc.ID, err)
	}
	s.logger.Infow("document processed", "document", doc.ID, "fragments", len(fragments))

	if types.FinancialDocumentTypes[doc.Type] && len(fragments) > 0 {
		s.TriggerFinancialAnalysis(doc, fragments)
	}
	return nil
}

// indexText chunks and embeds the text and replaces the document's
// fragments. Either every fragment lands or none does: an embedding or
// insert failure leaves the index without fragments for this document.
func (s *IngestService) indexText(ctx context.Context, doc *types.Document, text string) ([]types.Fragment, error) {
	chunks := s.chunker.Chunk(text)

	// A document that yields no chunks (empty OCR, blank file) is still a
	// successfully processed document. Clear any stale fragments.
	if len(chunks) == 0 {
		if err := s.index.DeleteByDocument(ctx, doc.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	texts := make([]string, len(chunks))
	fragments := make([]types.Fragment, len(chunks))
	meta := types.FragmentMetadata{
		DocTitle:      doc.Title,
		DocType:       doc.Type,
		Participants:  doc.Participants,
		ReferenceDate: doc.ReferenceDate,
	}
	for i, chunk := range chunks {
		texts[i] = chunk.Content
		fragments[i] = types.Fragment{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			CaseID:     doc.CaseID,
			Content:    chunk.Content,
			Position:   i,
			TokenCount: chunk.TokenCount,
			Metadata:   meta,
		}
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	if err := s.index.DeleteByDocument(ctx, doc.ID); err != nil {
		return nil, err
	}
	if err := s.index.BatchInsertFragments(ctx, fragments, vectors); err != nil {
		// Remove whatever part of the batch made it in so a failed
		// ingestion never leaves partial fragments behind.
		if cleanupErr := s.index.DeleteByDocument(ctx, doc.ID); cleanupErr != nil {
			s.logger.Errorw("failed to clean up partial fragments", "document", doc.ID, "error", cleanupErr)
		}
		return nil, fmt.Errorf("fragment insert failed: %w", err)
	}
	return fragments, nil
}

// TriggerFinancialAnalysis runs the transaction extractor detached from
// the ingestion request. Analysis failures never affect document status.
func (s *IngestService) TriggerFinancialAnalysis(doc *types.Document, fragments []types.Fragment) {
	s.runner.Go("financial-analysis", func(ctx context.Context) error {
		return s.financial.Analyze(ctx, doc, fragments)
	})
}

func (s *IngestService) fail(ctx context.Context, documentID string, cause error) error {
	s.logger.Errorw("ingestion failed", "document", documentID, "error", cause)
	if err := s.docs.SetError(ctx, documentID, cause.Error()); err != nil {
		s.logger.Errorw("failed to record document error", "document", documentID, "error", err)
	}
	return cause
}
