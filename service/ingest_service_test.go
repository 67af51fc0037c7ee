package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/types"
	"github.com/caselens/casefile-be/worker"
)

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) Extract(ctx context.Context, data []byte, filename, mimeType, docType string) (string, error) {
	return s.text, s.err
}

type ingestFixture struct {
	svc       *IngestService
	docs      *memDocRepo
	index     *stubIndex
	embedder  *stubEmbedder
	financial *countingAnalyzer
	runner    *worker.Runner
}

func newIngestFixture(t *testing.T, extractor TextExtractor, index *stubIndex, embedder *stubEmbedder) *ingestFixture {
	t.Helper()
	logger := zap.NewNop().Sugar()
	files, err := NewFileService(t.TempDir())
	require.NoError(t, err)

	f := &ingestFixture{
		docs:      newMemDocRepo(),
		index:     index,
		embedder:  embedder,
		financial: &countingAnalyzer{},
		runner:    worker.NewRunner(logger, 5*time.Second),
	}
	f.svc = NewIngestService(
		f.docs,
		files,
		extractor,
		NewChunkService(5, 0, wordCounter{}),
		embedder,
		index,
		f.financial,
		f.runner,
		logger,
	)
	return f
}

func storedDocument(t *testing.T, f *ingestFixture, docType string) *types.Document {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.txt")
	require.NoError(t, os.WriteFile(path, []byte("raw bytes"), 0644))

	doc := &types.Document{
		ID:          "doc-1",
		CaseID:      "case-1",
		Type:        docType,
		Title:       "Evidence A",
		StoragePath: path,
		FileName:    "upload.txt",
		Status:      types.DOCUMENT_STATUS_UPLOADED,
	}
	require.NoError(t, f.docs.Create(context.Background(), doc))
	return doc
}

func TestProcessHappyPath(t *testing.T) {
	extractor := &stubExtractor{text: "one two three. four five six."}
	f := newIngestFixture(t, extractor, &stubIndex{}, &stubEmbedder{})
	doc := storedDocument(t, f, types.DOCUMENT_TYPE_CONTRACT)

	require.NoError(t, f.svc.Process(context.Background(), doc))

	assert.Equal(t,
		[]string{types.DOCUMENT_STATUS_PROCESSING, types.DOCUMENT_STATUS_PROCESSED},
		f.docs.statusHistory["doc-1"])

	stored, err := f.docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "one two three. four five six.", stored.ExtractedText)

	require.Len(t, f.index.inserted, 2)
	assert.Equal(t, 0, f.index.inserted[0].Position)
	assert.Equal(t, 1, f.index.inserted[1].Position)
	for _, fragment := range f.index.inserted {
		assert.Equal(t, "doc-1", fragment.DocumentID)
		assert.Equal(t, "case-1", fragment.CaseID)
		assert.Equal(t, "Evidence A", fragment.Metadata.DocTitle)
		assert.Equal(t, types.DOCUMENT_TYPE_CONTRACT, fragment.Metadata.DocType)
		assert.NotEmpty(t, fragment.ID)
	}
	// Stale fragments are cleared exactly once before the insert.
	assert.Equal(t, []string{"doc-1"}, f.index.deletes)

	f.runner.Wait()
	assert.Equal(t, 0, f.financial.count())
}

func TestProcessTriggersFinancialAnalysis(t *testing.T) {
	extractor := &stubExtractor{text: "payment of 150 to landlord."}
	f := newIngestFixture(t, extractor, &stubIndex{}, &stubEmbedder{})
	doc := storedDocument(t, f, types.DOCUMENT_TYPE_BANK_STATEMENT)

	require.NoError(t, f.svc.Process(context.Background(), doc))
	f.runner.Wait()
	assert.Equal(t, 1, f.financial.count())
}

func TestProcessFinancialFailureDoesNotAffectStatus(t *testing.T) {
	extractor := &stubExtractor{text: "payment of 150 to landlord."}
	f := newIngestFixture(t, extractor, &stubIndex{}, &stubEmbedder{})
	f.financial.err = errors.New("llm unavailable")
	doc := storedDocument(t, f, types.DOCUMENT_TYPE_RECEIPT)

	require.NoError(t, f.svc.Process(context.Background(), doc))
	f.runner.Wait()

	stored, err := f.docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, types.DOCUMENT_STATUS_PROCESSED, stored.Status)
}

func TestProcessZeroChunksStillProcessed(t *testing.T) {
	extractor := &stubExtractor{text: "   "}
	f := newIngestFixture(t, extractor, &stubIndex{}, &stubEmbedder{})
	doc := storedDocument(t, f, types.DOCUMENT_TYPE_PHOTO)

	require.NoError(t, f.svc.Process(context.Background(), doc))

	stored, err := f.docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, types.DOCUMENT_STATUS_PROCESSED, stored.Status)
	assert.Empty(t, f.index.inserted)
	assert.Empty(t, f.embedder.calls)
}

func TestProcessExtractionErrorLandsInError(t *testing.T) {
	extractor := &stubExtractor{err: errors.New("corrupt file")}
	f := newIngestFixture(t, extractor, &stubIndex{}, &stubEmbedder{})
	doc := storedDocument(t, f, types.DOCUMENT_TYPE_CONTRACT)

	err := f.svc.Process(context.Background(), doc)
	require.Error(t, err)

	stored, getErr := f.docs.Get(context.Background(), "doc-1")
	require.NoError(t, getErr)
	assert.Equal(t, types.DOCUMENT_STATUS_ERROR, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "corrupt file")
	assert.Empty(t, f.embedder.calls)
	assert.Empty(t, f.index.inserted)
}

func TestProcessEmbeddingFailureLeavesNoFragments(t *testing.T) {
	extractor := &stubExtractor{text: "one two three. four five six."}
	f := newIngestFixture(t, extractor, &stubIndex{}, &stubEmbedder{err: errors.New("quota exceeded")})
	doc := storedDocument(t, f, types.DOCUMENT_TYPE_CONTRACT)

	require.Error(t, f.svc.Process(context.Background(), doc))

	stored, err := f.docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, types.DOCUMENT_STATUS_ERROR, stored.Status)
	assert.Empty(t, f.index.inserted)
	assert.Empty(t, f.index.deletes)
}

func TestProcessInsertFailureCleansUpPartialWrite(t *testing.T) {
	extractor := &stubExtractor{text: "one two three. four five six."}
	index := &stubIndex{insertErr: errors.New("weaviate down")}
	f := newIngestFixture(t, extractor, index, &stubEmbedder{})
	doc := storedDocument(t, f, types.DOCUMENT_TYPE_CONTRACT)

	require.Error(t, f.svc.Process(context.Background(), doc))

	stored, err := f.docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, types.DOCUMENT_STATUS_ERROR, stored.Status)
	// Once before the insert, once to clean up after the failure.
	assert.Equal(t, []string{"doc-1", "doc-1"}, index.deletes)
}
