package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/repository"
	"github.com/caselens/casefile-be/types"
	"github.com/caselens/casefile-be/worker"
)

// FragmentMaintainer covers the index operations document management
// needs: cascade deletes and keeping the denormalized document snapshot
// on fragments in sync.
type FragmentMaintainer interface {
	DeleteByDocument(ctx context.Context, documentID string) error
	FragmentsByDocument(ctx context.Context, documentID string) ([]types.Fragment, error)
	UpdateDocumentSnapshot(ctx context.Context, documentID string, meta types.FragmentMetadata) error
}

// DocumentService owns the document entity around the ingestion pipeline:
// upload, metadata edits with fragment snapshot propagation, and deletion
// with fragment and transaction cascade.
type DocumentService struct {
	docs         repository.DocumentRepo
	cases        repository.CaseRepo
	transactions repository.TransactionRepo
	files        *FileService
	index        FragmentMaintainer
	ingest       *IngestService
	financial    FinancialAnalyzer
	runner       *worker.Runner
	logger       *zap.SugaredLogger
}

func NewDocumentService(
	docs repository.DocumentRepo,
	cases repository.CaseRepo,
	transactions repository.TransactionRepo,
	files *FileService,
	index FragmentMaintainer,
	ingest *IngestService,
	financial FinancialAnalyzer,
	runner *worker.Runner,
	logger *zap.SugaredLogger,
) *DocumentService {
	return &DocumentService{
		docs:         docs,
		cases:        cases,
		transactions: transactions,
		files:        files,
		index:        index,
		ingest:       ingest,
		financial:    financial,
		runner:       runner,
		logger:       logger,
	}
}

// Upload stores the file, creates the document in the uploaded state and
// kicks off ingestion detached from the request.
func (s *DocumentService) Upload(ctx context.Context, userID string, req types.UploadRequest, file *multipart.FileHeader) (*types.Document, error) {
	if !types.IsValidDocumentType(req.Type) {
		return nil, fmt.Errorf("unknown document type: %s", req.Type)
	}
	if _, err := s.cases.Get(ctx, req.CaseID); err != nil {
		return nil, fmt.Errorf("case not found: %w", err)
	}

	storagePath, err := s.files.SaveUpload(file)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = file.Filename
	}
	now := time.Now().Unix()
	doc := &types.Document{
		ID:            uuid.New().String(),
		CaseID:        req.CaseID,
		UserID:        userID,
		Type:          req.Type,
		Title:         title,
		Description:   req.Description,
		Participants:  req.Participants,
		ReferenceDate: req.ReferenceDate,
		StoragePath:   storagePath,
		FileName:      file.Filename,
		MimeType:      file.Header.Get("Content-Type"),
		FileSize:      file.Size,
		Status:        types.DOCUMENT_STATUS_UPLOADED,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if cleanupErr := s.files.Delete(storagePath); cleanupErr != nil {
			s.logger.Errorw("failed to remove orphaned upload", "path", storagePath, "error", cleanupErr)
		}
		return nil, err
	}

	s.runner.Go("ingest-document", func(ctx context.Context) error {
		return s.ingest.Process(ctx, doc)
	})
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*types.Document, error) {
	return s.docs.Get(ctx, id)
}

func (s *DocumentService) List(ctx context.Context, caseID, docType, status string, skip, limit int64) ([]*types.Document, int64, error) {
	return s.docs.List(ctx, caseID, docType, status, skip, limit)
}

// Update patches the document's descriptive fields. When the document is
// processed, the change is propagated to the denormalized snapshot on its
// fragments, and a re-categorization into a financial type triggers
// transaction extraction for the first time.
func (s *DocumentService) Update(ctx context.Context, id string, req types.UpdateDocumentRequest) (*types.Document, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	wasFinancial := types.FinancialDocumentTypes[doc.Type]
	if req.Type != nil {
		if !types.IsValidDocumentType(*req.Type) {
			return nil, fmt.Errorf("unknown document type: %s", *req.Type)
		}
		doc.Type = *req.Type
	}
	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Description != nil {
		doc.Description = *req.Description
	}
	if req.Participants != nil {
		doc.Participants = *req.Participants
	}
	if req.ReferenceDate != nil {
		doc.ReferenceDate = *req.ReferenceDate
	}
	doc.UpdatedAt = time.Now().Unix()

	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}

	if doc.Status == types.DOCUMENT_STATUS_PROCESSED {
		s.propagateSnapshot(doc)
		if !wasFinancial && types.FinancialDocumentTypes[doc.Type] {
			s.analyzeAfterRecategorize(doc)
		}
	}
	return doc, nil
}

// Delete removes the document and cascades into its fragments, extracted
// transactions and stored file.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	if err := s.transactions.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	if err := s.files.Delete(doc.StoragePath); err != nil {
		s.logger.Errorw("failed to delete stored file", "document", id, "error", err)
	}
	return s.docs.Delete(ctx, id)
}

func (s *DocumentService) propagateSnapshot(doc *types.Document) {
	meta := types.FragmentMetadata{
		DocTitle:      doc.Title,
		DocType:       doc.Type,
		Participants:  doc.Participants,
		ReferenceDate: doc.ReferenceDate,
	}
	s.runner.Go("propagate-document-snapshot", func(ctx context.Context) error {
		return s.index.UpdateDocumentSnapshot(ctx, doc.ID, meta)
	})
}

func (s *DocumentService) analyzeAfterRecategorize(doc *types.Document) {
	s.runner.Go("financial-recategorize", func(ctx context.Context) error {
		fragments, err := s.index.FragmentsByDocument(ctx, doc.ID)
		if err != nil {
			return err
		}
		if len(fragments) == 0 {
			return nil
		}
		return s.financial.Analyze(ctx, doc, fragments)
	})
}
