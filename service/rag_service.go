package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/caselens/casefile-be/config"
	"github.com/caselens/casefile-be/repository"
	"github.com/caselens/casefile-be/types"
)

// FragmentSearcher answers nearest-neighbor queries over the fragment index.
type FragmentSearcher interface {
	SearchNearVector(ctx context.Context, vector []float32, caseID string, limit int, maxDistance float32) ([]types.ScoredFragment, error)
}

const systemPrompt = `You are a legal case assistant. You answer questions strictly from the case documents provided below.

Rules:
- Only state facts that appear in the provided document excerpts. Never invent facts, dates, amounts or names.
- Cite the supporting document for every factual claim, in the form [Source: document name, date].
- When the excerpts do not contain the answer, say so plainly instead of guessing.
- When documents conflict, prefer signed or official documents (contracts, court filings, bank statements) over informal messages, and point out the conflict.
- Qualify uncertain conclusions explicitly, for example "the documents suggest" versus "the contract states".`

// RAGService runs the retrieval-augmented answer pipeline: embed the
// question, search the fragment index, assemble a grounded prompt and
// generate the answer, with token and cost accounting on every result.
type RAGService struct {
	embedder          Embedder
	generator         Generator
	searcher          FragmentSearcher
	docs              repository.DocumentRepo
	topK              int
	similarityFloor   float64
	historyLimit      int
	inputCostPerMTok  float64
	outputCostPerMTok float64
	logger            *zap.SugaredLogger
}

func NewRAGService(
	embedder Embedder,
	generator Generator,
	searcher FragmentSearcher,
	docs repository.DocumentRepo,
	ragCfg config.RAGConfig,
	openAICfg config.OpenAIConfig,
	logger *zap.SugaredLogger,
) *RAGService {
	return &RAGService{
		embedder:          embedder,
		generator:         generator,
		searcher:          searcher,
		docs:              docs,
		topK:              ragCfg.TopK,
		similarityFloor:   ragCfg.SimilarityFloor,
		historyLimit:      ragCfg.HistoryLimit,
		inputCostPerMTok:  openAICfg.InputCostPerMTok,
		outputCostPerMTok: openAICfg.OutputCostPerMTok,
		logger:            logger,
	}
}

// SearchFragments embeds the query and returns the nearest fragments of
// the case, closest first. Fragments below the similarity floor and
// fragments whose document is not in the processed state are dropped.
// Non-positive limit and floor fall back to the configured defaults.
func (s *RAGService) SearchFragments(ctx context.Context, caseID, query string, limit int, floor float64) ([]types.ScoredFragment, error) {
	if limit <= 0 {
		limit = s.topK
	}
	if floor <= 0 {
		floor = s.similarityFloor
	}
	vectors, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	maxDistance := float32(1 - floor)
	candidates, err := s.searcher.SearchNearVector(ctx, vectors[0], caseID, limit, maxDistance)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(candidates))
	seen := make(map[string]bool)
	for _, c := range candidates {
		if !seen[c.DocumentID] {
			seen[c.DocumentID] = true
			ids = append(ids, c.DocumentID)
		}
	}
	statuses, err := s.docs.StatusByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check document statuses: %w", err)
	}

	results := make([]types.ScoredFragment, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity < floor {
			continue
		}
		if statuses[c.DocumentID] != types.DOCUMENT_STATUS_PROCESSED {
			continue
		}
		results = append(results, c)
	}
	return results, nil
}

// Chat produces a complete answer in one call.
func (s *RAGService) Chat(ctx context.Context, caseID, caseNotes string, history []types.Message, question string) (*types.RAGResult, error) {
	fragments, err := s.SearchFragments(ctx, caseID, question, s.topK, s.similarityFloor)
	if err != nil {
		return nil, err
	}

	gen, err := s.generator.Generate(ctx, s.buildMessages(fragments, caseNotes, history, question))
	if err != nil {
		return nil, err
	}
	return s.finalize(gen, fragments), nil
}

// ChatStream produces the same result as Chat while emitting protocol
// events: status(searching), status(generating), one token event per
// delta, then sources and done. Nothing is persisted here; the caller
// stores the returned result.
func (s *RAGService) ChatStream(ctx context.Context, caseID, caseNotes string, history []types.Message, question string, emit func(types.StreamEvent)) (*types.RAGResult, error) {
	emit(types.StreamEvent{Type: types.STREAM_EVENT_STATUS, Status: types.STREAM_STATUS_SEARCHING})

	fragments, err := s.SearchFragments(ctx, caseID, question, s.topK, s.similarityFloor)
	if err != nil {
		return nil, err
	}

	emit(types.StreamEvent{Type: types.STREAM_EVENT_STATUS, Status: types.STREAM_STATUS_GENERATING})

	gen, err := s.generator.GenerateStream(ctx, s.buildMessages(fragments, caseNotes, history, question), func(delta string) {
		emit(types.StreamEvent{Type: types.STREAM_EVENT_TOKEN, Token: delta})
	})
	if err != nil {
		return nil, err
	}

	result := s.finalize(gen, fragments)
	emit(types.StreamEvent{Type: types.STREAM_EVENT_SOURCES, Sources: result.Sources})
	emit(types.StreamEvent{Type: types.STREAM_EVENT_DONE, Result: result})
	return result, nil
}

func (s *RAGService) finalize(gen *types.Generation, fragments []types.ScoredFragment) *types.RAGResult {
	fragmentIDs := make([]string, 0, len(fragments))
	for _, f := range fragments {
		fragmentIDs = append(fragmentIDs, f.ID)
	}
	return &types.RAGResult{
		Answer:        gen.Content,
		FragmentsUsed: fragmentIDs,
		Sources:       sourcesFrom(fragments),
		TokensInput:   gen.TokensInput,
		TokensOutput:  gen.TokensOutput,
		EstimatedCost: s.estimateCost(gen.TokensInput, gen.TokensOutput),
	}
}

// estimateCost prices the generation from per-million-token rates, rounded
// to six decimal places.
func (s *RAGService) estimateCost(tokensInput, tokensOutput int) float64 {
	cost := (float64(tokensInput)*s.inputCostPerMTok + float64(tokensOutput)*s.outputCostPerMTok) / 1_000_000
	return math.Round(cost*1e6) / 1e6
}

// buildMessages assembles the provider prompt: system rules plus evidence
// context, optional case notes, the most recent history turns oldest
// first, then the question.
func (s *RAGService) buildMessages(fragments []types.ScoredFragment, caseNotes string, history []types.Message, question string) []types.PromptMessage {
	var system strings.Builder
	system.WriteString(systemPrompt)
	if caseNotes != "" {
		system.WriteString("\n\nCase notes:\n")
		system.WriteString(caseNotes)
	}
	system.WriteString("\n\n")
	system.WriteString(buildContext(fragments))

	messages := []types.PromptMessage{{Role: "system", Content: system.String()}}

	start := 0
	if s.historyLimit > 0 && len(history) > s.historyLimit {
		start = len(history) - s.historyLimit
	}
	for _, m := range history[start:] {
		messages = append(messages, types.PromptMessage{Role: m.Role, Content: m.Content})
	}

	return append(messages, types.PromptMessage{Role: types.MESSAGE_ROLE_USER, Content: question})
}

// buildContext renders the retrieved fragments as an evidence block. With
// no fragments it states that explicitly so the model does not treat an
// empty block as missing input.
func buildContext(fragments []types.ScoredFragment) string {
	if len(fragments) == 0 {
		return "No case documents matched this question. Tell the user that the available documents do not contain this information."
	}

	var b strings.Builder
	b.WriteString("Case document excerpts:\n\n")
	for i, f := range fragments {
		b.WriteString(fmt.Sprintf("--- Source %d (relevance: %.2f): [%s] %s", i+1, f.Similarity, f.Metadata.DocType, f.Metadata.DocTitle))
		if f.Metadata.ReferenceDate != "" {
			b.WriteString(fmt.Sprintf(" (%s)", f.Metadata.ReferenceDate))
		}
		if len(f.Metadata.Participants) > 0 {
			b.WriteString(" - Participants: " + strings.Join(f.Metadata.Participants, ", "))
		}
		b.WriteString(" ---\n")
		b.WriteString(f.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// sourcesFrom collapses fragments to one source per document, keeping the
// best similarity, in retrieval order.
func sourcesFrom(fragments []types.ScoredFragment) []types.Source {
	var sources []types.Source
	index := make(map[string]int)
	for _, f := range fragments {
		if i, ok := index[f.DocumentID]; ok {
			if f.Similarity > sources[i].Similarity {
				sources[i].Similarity = f.Similarity
			}
			continue
		}
		index[f.DocumentID] = len(sources)
		sources = append(sources, types.Source{
			DocTitle:   f.Metadata.DocTitle,
			DocType:    f.Metadata.DocType,
			DocumentID: f.DocumentID,
			Similarity: f.Similarity,
		})
	}
	return sources
}
