package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/caselens/casefile-be/types"
)

// wordCounter makes chunking arithmetic readable in tests: one token per
// whitespace-separated word.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

type stubEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (e *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.mu.Lock()
	e.calls = append(e.calls, texts)
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type stubGenerator struct {
	content      string
	tokensIn     int
	tokensOut    int
	deltas       []string
	jsonResponse string
	err          error

	lastMessages []types.PromptMessage
	jsonPrompts  []string
}

func (g *stubGenerator) Generate(ctx context.Context, messages []types.PromptMessage) (*types.Generation, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.lastMessages = messages
	return &types.Generation{Content: g.content, TokensInput: g.tokensIn, TokensOutput: g.tokensOut}, nil
}

func (g *stubGenerator) GenerateStream(ctx context.Context, messages []types.PromptMessage, onDelta types.StreamHandler) (*types.Generation, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.lastMessages = messages
	var b strings.Builder
	for _, d := range g.deltas {
		b.WriteString(d)
		if onDelta != nil {
			onDelta(d)
		}
	}
	return &types.Generation{Content: b.String(), TokensInput: g.tokensIn, TokensOutput: g.tokensOut}, nil
}

func (g *stubGenerator) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.jsonPrompts = append(g.jsonPrompts, prompt)
	return g.jsonResponse, nil
}

// stubIndex fakes the Weaviate store for ingestion and search tests.
type stubIndex struct {
	mu        sync.Mutex
	inserted  []types.Fragment
	vectors   [][]float32
	deletes   []string
	snapshots map[string]types.FragmentMetadata

	insertErr error
	results   []types.ScoredFragment
}

func (s *stubIndex) BatchInsertFragments(ctx context.Context, fragments []types.Fragment, vectors [][]float32) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, fragments...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *stubIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, documentID)
	return nil
}

func (s *stubIndex) FragmentsByDocument(ctx context.Context, documentID string) ([]types.Fragment, error) {
	var out []types.Fragment
	for _, f := range s.inserted {
		if f.DocumentID == documentID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *stubIndex) UpdateDocumentSnapshot(ctx context.Context, documentID string, meta types.FragmentMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshots == nil {
		s.snapshots = make(map[string]types.FragmentMetadata)
	}
	s.snapshots[documentID] = meta
	return nil
}

func (s *stubIndex) SearchNearVector(ctx context.Context, vector []float32, caseID string, limit int, maxDistance float32) ([]types.ScoredFragment, error) {
	return s.results, nil
}

// memDocRepo is an in-memory DocumentRepo that records every status the
// document passes through.
type memDocRepo struct {
	mu            sync.Mutex
	docs          map[string]*types.Document
	statusHistory map[string][]string
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{
		docs:          make(map[string]*types.Document),
		statusHistory: make(map[string][]string),
	}
}

func (r *memDocRepo) Create(ctx context.Context, doc *types.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *memDocRepo) Get(ctx context.Context, id string) (*types.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s not found", id)
	}
	copied := *doc
	return &copied, nil
}

func (r *memDocRepo) List(ctx context.Context, caseID, docType, status string, skip, limit int64) ([]*types.Document, int64, error) {
	var out []*types.Document
	for _, doc := range r.docs {
		if doc.CaseID == caseID {
			out = append(out, doc)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memDocRepo) Update(ctx context.Context, doc *types.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[doc.ID]
	if !ok {
		return fmt.Errorf("document %s not found", doc.ID)
	}
	stored.Type = doc.Type
	stored.Title = doc.Title
	stored.Description = doc.Description
	stored.Participants = doc.Participants
	stored.ReferenceDate = doc.ReferenceDate
	stored.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *memDocRepo) SetStatus(ctx context.Context, id, status string) error {
	return r.setStatus(id, status)
}

func (r *memDocRepo) SetProcessed(ctx context.Context, id, extractedText string) error {
	r.mu.Lock()
	if doc, ok := r.docs[id]; ok {
		doc.ExtractedText = extractedText
	}
	r.mu.Unlock()
	return r.setStatus(id, types.DOCUMENT_STATUS_PROCESSED)
}

func (r *memDocRepo) SetError(ctx context.Context, id, message string) error {
	r.mu.Lock()
	if doc, ok := r.docs[id]; ok {
		doc.ErrorMessage = message
	}
	r.mu.Unlock()
	return r.setStatus(id, types.DOCUMENT_STATUS_ERROR)
}

func (r *memDocRepo) setStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("document %s not found", id)
	}
	doc.Status = status
	r.statusHistory[id] = append(r.statusHistory[id], status)
	return nil
}

func (r *memDocRepo) StatusByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if doc, ok := r.docs[id]; ok {
			out[id] = doc.Status
		}
	}
	return out, nil
}

func (r *memDocRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

type memConvRepo struct {
	mu     sync.Mutex
	convs  map[string]*types.Conversation
	titles map[string]string
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{convs: make(map[string]*types.Conversation), titles: make(map[string]string)}
}

func (r *memConvRepo) Create(ctx context.Context, conv *types.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *conv
	r.convs[conv.ID] = &copied
	return nil
}

func (r *memConvRepo) Get(ctx context.Context, id string) (*types.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	copied := *conv
	return &copied, nil
}

func (r *memConvRepo) ListByUser(ctx context.Context, userID, caseID string, skip, limit int64) ([]*types.Conversation, int64, error) {
	var out []*types.Conversation
	for _, conv := range r.convs {
		if conv.UserID == userID {
			out = append(out, conv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memConvRepo) SetTitle(ctx context.Context, id, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.convs[id]; ok {
		conv.Title = title
	}
	r.titles[id] = title
	return nil
}

func (r *memConvRepo) Touch(ctx context.Context, id string, updatedAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.convs[id]; ok {
		conv.UpdatedAt = updatedAt
	}
	return nil
}

func (r *memConvRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.convs, id)
	return nil
}

type memMsgRepo struct {
	mu       sync.Mutex
	messages []*types.Message
	err      error
}

func (r *memMsgRepo) Create(ctx context.Context, msg *types.Message) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *msg
	r.messages = append(r.messages, &copied)
	return nil
}

func (r *memMsgRepo) ListByConversation(ctx context.Context, conversationID string) ([]*types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMsgRepo) DeleteByConversation(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*types.Message
	for _, m := range r.messages {
		if m.ConversationID != conversationID {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

type memCaseRepo struct {
	mu    sync.Mutex
	cases map[string]*types.Case
}

func newMemCaseRepo() *memCaseRepo {
	return &memCaseRepo{cases: make(map[string]*types.Case)}
}

func (r *memCaseRepo) Create(ctx context.Context, c *types.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.cases[c.ID] = &copied
	return nil
}

func (r *memCaseRepo) Get(ctx context.Context, id string) (*types.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %s not found", id)
	}
	copied := *c
	return &copied, nil
}

func (r *memCaseRepo) ListByOwner(ctx context.Context, ownerID string) ([]*types.Case, error) {
	return nil, nil
}

func (r *memCaseRepo) Update(ctx context.Context, c *types.Case) error { return nil }

func (r *memCaseRepo) Delete(ctx context.Context, id string) error { return nil }

type memTxRepo struct {
	mu           sync.Mutex
	transactions []*types.Transaction
	deletes      []string
}

func (r *memTxRepo) CreateMany(ctx context.Context, transactions []*types.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, transactions...)
	return nil
}

func (r *memTxRepo) ListByCase(ctx context.Context, caseID string) ([]*types.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Transaction
	for _, t := range r.transactions {
		if t.CaseID == caseID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTxRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, documentID)
	return nil
}

// countingAnalyzer counts Analyze calls for financial trigger tests.
type countingAnalyzer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (a *countingAnalyzer) Analyze(ctx context.Context, doc *types.Document, fragments []types.Fragment) error {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return a.err
}

func (a *countingAnalyzer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
