package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/caselens/casefile-be/config"
	"github.com/caselens/casefile-be/types"
)

// GeminiService is the alternative generation/embedding provider. It
// rotates across API keys when a call fails, once per call.
type GeminiService struct {
	apiKeys         []string
	currentKey      int
	client          *genai.Client
	chatModel       string
	embedModel      string
	embedDimensions int
	mu              sync.Mutex
}

func NewGeminiService(cfg config.GeminiConfig) (*GeminiService, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}
	s := &GeminiService{
		apiKeys:         cfg.APIKeys,
		chatModel:       cfg.ChatModel,
		embedModel:      cfg.EmbeddingModel,
		embedDimensions: cfg.EmbeddingDimensions,
	}
	if err := s.initClient(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *GeminiService) initClient() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	return nil
}

func (s *GeminiService) rotateAPIKey() error {
	s.mu.Lock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.initClient()
}

func (s *GeminiService) Generate(ctx context.Context, messages []types.PromptMessage) (*types.Generation, error) {
	model := s.client.GenerativeModel(s.chatModel)
	history, prompt := toGeminiHistory(messages)

	chat := model.StartChat()
	chat.History = history
	resp, err := chat.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		if err := s.rotateAPIKey(); err != nil {
			return nil, err
		}
		model = s.client.GenerativeModel(s.chatModel)
		chat = model.StartChat()
		chat.History = history
		resp, err = chat.SendMessage(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("no response generated")
	}

	gen := &types.Generation{Content: geminiText(resp)}
	if resp.UsageMetadata != nil {
		gen.TokensInput = int(resp.UsageMetadata.PromptTokenCount)
		gen.TokensOutput = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return gen, nil
}

func (s *GeminiService) GenerateStream(ctx context.Context, messages []types.PromptMessage, onDelta types.StreamHandler) (*types.Generation, error) {
	model := s.client.GenerativeModel(s.chatModel)
	history, prompt := toGeminiHistory(messages)

	chat := model.StartChat()
	chat.History = history
	iter := chat.SendMessageStream(ctx, genai.Text(prompt))

	var answer strings.Builder
	gen := &types.Generation{}
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if resp.UsageMetadata != nil {
			gen.TokensInput = int(resp.UsageMetadata.PromptTokenCount)
			gen.TokensOutput = int(resp.UsageMetadata.CandidatesTokenCount)
		}
		delta := geminiText(resp)
		if delta != "" {
			answer.WriteString(delta)
			if onDelta != nil {
				onDelta(delta)
			}
		}
	}
	gen.Content = answer.String()
	return gen, nil
}

func (s *GeminiService) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.chatModel)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no response generated")
	}
	return geminiText(resp), nil
}

func (s *GeminiService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	em := s.client.EmbeddingModel(s.embedModel)
	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += EMBED_BATCH_SIZE {
		end := i + EMBED_BATCH_SIZE
		if end > len(texts) {
			end = len(texts)
		}
		batch := em.NewBatch()
		for _, text := range texts[i:end] {
			batch = batch.AddContent(genai.Text(text))
		}
		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d failed: %w", i, end, err)
		}
		if len(resp.Embeddings) != end-i {
			return nil, fmt.Errorf("embedding batch %d-%d returned %d vectors for %d inputs", i, end, len(resp.Embeddings), end-i)
		}
		batchVectors := make([][]float32, 0, len(resp.Embeddings))
		for _, emb := range resp.Embeddings {
			batchVectors = append(batchVectors, emb.Values)
		}
		if err := ensureVectorDims(batchVectors, s.embedDimensions); err != nil {
			return nil, err
		}
		vectors = append(vectors, batchVectors...)
	}
	return vectors, nil
}

// toGeminiHistory splits prompt messages into a chat history plus the
// live message. The system instruction is folded into the first user turn
// because the chat API has no separate system role.
func toGeminiHistory(messages []types.PromptMessage) ([]*genai.Content, string) {
	if len(messages) == 0 {
		return nil, ""
	}
	var system string
	turns := make([]types.PromptMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == "system" {
			system = msg.Content
			continue
		}
		turns = append(turns, msg)
	}
	if len(turns) == 0 {
		return nil, system
	}

	last := turns[len(turns)-1]
	prompt := last.Content
	if system != "" {
		prompt = system + "\n\n" + prompt
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, msg := range turns[:len(turns)-1] {
		role := "user"
		if msg.Role == types.MESSAGE_ROLE_ASSISTANT {
			role = "model"
		}
		history = append(history, &genai.Content{
			Parts: []genai.Part{genai.Text(msg.Content)},
			Role:  role,
		})
	}
	return history, prompt
}

func geminiText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}
