package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/repository"
	"github.com/caselens/casefile-be/types"
)

const financialSystemPrompt = `You extract financial transactions from legal case documents (bank statements, receipts).
Return a JSON object of the form {"transactions": [...]}. Each transaction has:
  "description" (string, required),
  "amount" (number, positive),
  "date" (string, YYYY-MM-DD when known, otherwise as written),
  "payer" (string), "beneficiary" (string),
  "category" (one of: %s),
  "confidence" (number 0 to 1).
Only extract transactions actually present in the text. Return {"transactions": []} when there are none.`

type extractedTransaction struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Payer       string  `json:"payer"`
	Beneficiary string  `json:"beneficiary"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
}

type extractionResponse struct {
	Transactions []extractedTransaction `json:"transactions"`
}

// FinancialService extracts transactions from the fragments of financial
// documents with a JSON-mode generation call. It is a best-effort side
// pipeline: failures are logged and never surface into document status.
type FinancialService struct {
	generator    Generator
	transactions repository.TransactionRepo
	logger       *zap.SugaredLogger
}

func NewFinancialService(generator Generator, transactions repository.TransactionRepo, logger *zap.SugaredLogger) *FinancialService {
	return &FinancialService{
		generator:    generator,
		transactions: transactions,
		logger:       logger,
	}
}

// Analyze replaces the document's extracted transactions. Fragments that
// fail extraction or return malformed JSON are skipped.
func (s *FinancialService) Analyze(ctx context.Context, doc *types.Document, fragments []types.Fragment) error {
	system := fmt.Sprintf(financialSystemPrompt, strings.Join(types.TransactionCategories, ", "))

	var results []*types.Transaction
	now := time.Now().Unix()
	for _, fragment := range fragments {
		raw, err := s.generator.GenerateJSON(ctx, system, fragment.Content)
		if err != nil {
			s.logger.Warnw("transaction extraction failed", "document", doc.ID, "fragment", fragment.ID, "error", err)
			continue
		}

		var parsed extractionResponse
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			s.logger.Warnw("malformed extraction response", "document", doc.ID, "fragment", fragment.ID, "error", err)
			continue
		}

		for _, t := range parsed.Transactions {
			if strings.TrimSpace(t.Description) == "" {
				continue
			}
			results = append(results, &types.Transaction{
				ID:          uuid.New().String(),
				CaseID:      doc.CaseID,
				Description: t.Description,
				Amount:      t.Amount,
				Date:        t.Date,
				Payer:       t.Payer,
				Beneficiary: t.Beneficiary,
				Category:    normalizeCategory(t.Category),
				Confidence:  t.Confidence,
				FragmentIDs: []string{fragment.ID},
				DocumentIDs: []string{doc.ID},
				Evidence:    excerpt(fragment.Content, 300),
				CreatedAt:   now,
			})
		}
	}

	// Re-analysis replaces rather than appends.
	if err := s.transactions.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to clear previous transactions: %w", err)
	}
	if err := s.transactions.CreateMany(ctx, results); err != nil {
		return fmt.Errorf("failed to store transactions: %w", err)
	}
	s.logger.Infow("financial analysis finished", "document", doc.ID, "transactions", len(results))
	return nil
}

func (s *FinancialService) ListByCase(ctx context.Context, caseID string) ([]*types.Transaction, error) {
	return s.transactions.ListByCase(ctx, caseID)
}

func normalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	for _, known := range types.TransactionCategories {
		if c == known {
			return c
		}
	}
	return "other"
}

func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
