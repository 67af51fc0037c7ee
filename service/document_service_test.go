package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/types"
	"github.com/caselens/casefile-be/worker"
)

type documentFixture struct {
	svc       *DocumentService
	docs      *memDocRepo
	index     *stubIndex
	txs       *memTxRepo
	financial *countingAnalyzer
	runner    *worker.Runner
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	logger := zap.NewNop().Sugar()
	files, err := NewFileService(t.TempDir())
	require.NoError(t, err)

	cases := newMemCaseRepo()
	require.NoError(t, cases.Create(context.Background(), &types.Case{ID: "case-1", Title: "Estate dispute"}))

	f := &documentFixture{
		docs:      newMemDocRepo(),
		index:     &stubIndex{},
		txs:       &memTxRepo{},
		financial: &countingAnalyzer{},
		runner:    worker.NewRunner(logger, 5*time.Second),
	}
	ingest := NewIngestService(
		f.docs, files, &stubExtractor{text: "text."},
		NewChunkService(5, 0, wordCounter{}),
		&stubEmbedder{}, f.index, f.financial, f.runner, logger,
	)
	f.svc = NewDocumentService(f.docs, cases, f.txs, files, f.index, ingest, f.financial, f.runner, logger)
	return f
}

func seedDocument(t *testing.T, f *documentFixture, docType, status string) *types.Document {
	t.Helper()
	doc := &types.Document{
		ID:     "doc-1",
		CaseID: "case-1",
		Type:   docType,
		Title:  "Original title",
		Status: status,
	}
	require.NoError(t, f.docs.Create(context.Background(), doc))
	return doc
}

func TestUpdatePropagatesSnapshotToFragments(t *testing.T) {
	f := newDocumentFixture(t)
	seedDocument(t, f, types.DOCUMENT_TYPE_CONTRACT, types.DOCUMENT_STATUS_PROCESSED)

	title := "Amended purchase agreement"
	date := "2024-03-01"
	_, err := f.svc.Update(context.Background(), "doc-1", types.UpdateDocumentRequest{
		Title:         &title,
		ReferenceDate: &date,
	})
	require.NoError(t, err)
	f.runner.Wait()

	meta, ok := f.index.snapshots["doc-1"]
	require.True(t, ok)
	assert.Equal(t, "Amended purchase agreement", meta.DocTitle)
	assert.Equal(t, types.DOCUMENT_TYPE_CONTRACT, meta.DocType)
	assert.Equal(t, "2024-03-01", meta.ReferenceDate)
}

func TestUpdateOnUnprocessedDocumentSkipsPropagation(t *testing.T) {
	f := newDocumentFixture(t)
	seedDocument(t, f, types.DOCUMENT_TYPE_CONTRACT, types.DOCUMENT_STATUS_PROCESSING)

	title := "New title"
	_, err := f.svc.Update(context.Background(), "doc-1", types.UpdateDocumentRequest{Title: &title})
	require.NoError(t, err)
	f.runner.Wait()

	assert.Empty(t, f.index.snapshots)
}

func TestRecategorizeToFinancialTriggersAnalysisOnce(t *testing.T) {
	f := newDocumentFixture(t)
	seedDocument(t, f, types.DOCUMENT_TYPE_OTHER, types.DOCUMENT_STATUS_PROCESSED)
	f.index.inserted = []types.Fragment{{ID: "f1", DocumentID: "doc-1", CaseID: "case-1", Content: "payment row"}}

	docType := types.DOCUMENT_TYPE_BANK_STATEMENT
	_, err := f.svc.Update(context.Background(), "doc-1", types.UpdateDocumentRequest{Type: &docType})
	require.NoError(t, err)
	f.runner.Wait()
	assert.Equal(t, 1, f.financial.count())

	// Moving between financial types does not re-trigger.
	docType = types.DOCUMENT_TYPE_RECEIPT
	_, err = f.svc.Update(context.Background(), "doc-1", types.UpdateDocumentRequest{Type: &docType})
	require.NoError(t, err)
	f.runner.Wait()
	assert.Equal(t, 1, f.financial.count())
}

func TestUpdateRejectsUnknownType(t *testing.T) {
	f := newDocumentFixture(t)
	seedDocument(t, f, types.DOCUMENT_TYPE_CONTRACT, types.DOCUMENT_STATUS_PROCESSED)

	docType := "memo"
	_, err := f.svc.Update(context.Background(), "doc-1", types.UpdateDocumentRequest{Type: &docType})
	assert.Error(t, err)
}

func TestDeleteCascades(t *testing.T) {
	f := newDocumentFixture(t)
	seedDocument(t, f, types.DOCUMENT_TYPE_BANK_STATEMENT, types.DOCUMENT_STATUS_PROCESSED)

	require.NoError(t, f.svc.Delete(context.Background(), "doc-1"))

	assert.Equal(t, []string{"doc-1"}, f.index.deletes)
	assert.Equal(t, []string{"doc-1"}, f.txs.deletes)
	_, err := f.docs.Get(context.Background(), "doc-1")
	assert.Error(t, err)
}
