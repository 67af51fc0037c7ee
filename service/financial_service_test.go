package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/types"
)

func financialDoc() *types.Document {
	return &types.Document{
		ID:     "doc-1",
		CaseID: "case-1",
		Type:   types.DOCUMENT_TYPE_BANK_STATEMENT,
		Status: types.DOCUMENT_STATUS_PROCESSED,
	}
}

func TestAnalyzeStoresNormalizedTransactions(t *testing.T) {
	gen := &stubGenerator{jsonResponse: `{"transactions": [
		{"description": "Rent payment", "amount": 1200.50, "date": "2024-02-01",
		 "payer": "Ana", "beneficiary": "Landlord", "category": "HOUSING", "confidence": 0.92},
		{"description": "Unknown transfer", "amount": 40, "category": "space travel", "confidence": 0.4},
		{"description": "   ", "amount": 10}
	]}`}
	repo := &memTxRepo{}
	svc := NewFinancialService(gen, repo, zap.NewNop().Sugar())

	fragment := types.Fragment{ID: "f1", DocumentID: "doc-1", CaseID: "case-1", Content: "statement lines"}
	require.NoError(t, svc.Analyze(context.Background(), financialDoc(), []types.Fragment{fragment}))

	// The blank description is dropped; unknown categories collapse to other.
	require.Len(t, repo.transactions, 2)

	rent := repo.transactions[0]
	assert.Equal(t, "Rent payment", rent.Description)
	assert.Equal(t, 1200.50, rent.Amount)
	assert.Equal(t, "housing", rent.Category)
	assert.Equal(t, 0.92, rent.Confidence)
	assert.Equal(t, []string{"f1"}, rent.FragmentIDs)
	assert.Equal(t, []string{"doc-1"}, rent.DocumentIDs)
	assert.Equal(t, "case-1", rent.CaseID)
	assert.Equal(t, "statement lines", rent.Evidence)

	assert.Equal(t, "other", repo.transactions[1].Category)

	// Previous extractions for the document are replaced.
	assert.Equal(t, []string{"doc-1"}, repo.deletes)
}

func TestAnalyzeSkipsMalformedFragmentResponses(t *testing.T) {
	gen := &stubGenerator{jsonResponse: `not json at all`}
	repo := &memTxRepo{}
	svc := NewFinancialService(gen, repo, zap.NewNop().Sugar())

	fragments := []types.Fragment{
		{ID: "f1", Content: "garbled"},
		{ID: "f2", Content: "also garbled"},
	}
	require.NoError(t, svc.Analyze(context.Background(), financialDoc(), fragments))
	assert.Empty(t, repo.transactions)
}

func TestAnalyzePromptsPerFragment(t *testing.T) {
	gen := &stubGenerator{jsonResponse: `{"transactions": []}`}
	repo := &memTxRepo{}
	svc := NewFinancialService(gen, repo, zap.NewNop().Sugar())

	fragments := []types.Fragment{
		{ID: "f1", Content: "page one"},
		{ID: "f2", Content: "page two"},
	}
	require.NoError(t, svc.Analyze(context.Background(), financialDoc(), fragments))
	assert.Equal(t, []string{"page one", "page two"}, gen.jsonPrompts)
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "food", normalizeCategory("Food"))
	assert.Equal(t, "taxes", normalizeCategory(" taxes "))
	assert.Equal(t, "other", normalizeCategory("cryptocurrency"))
	assert.Equal(t, "other", normalizeCategory(""))
}
