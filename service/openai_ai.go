package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/caselens/casefile-be/config"
	"github.com/caselens/casefile-be/types"
)

const EMBED_BATCH_SIZE = 100

// OpenAIService backs generation, embeddings and audio transcription with
// the OpenAI API (or any compatible endpoint via base_url).
type OpenAIService struct {
	client             *openai.Client
	chatModel          string
	embedModel         string
	embedDimensions    int
	embedBatchSize     int
	transcriptionModel string
}

func NewOpenAIService(cfg config.OpenAIConfig) *OpenAIService {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIService{
		client:             openai.NewClientWithConfig(clientConfig),
		chatModel:          cfg.ChatModel,
		embedModel:         cfg.EmbeddingModel,
		embedDimensions:    cfg.EmbeddingDimensions,
		embedBatchSize:     EMBED_BATCH_SIZE,
		transcriptionModel: cfg.TranscriptionModel,
	}
}

func (s *OpenAIService) Generate(ctx context.Context, messages []types.PromptMessage) (*types.Generation, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.chatModel,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response generated")
	}
	return &types.Generation{
		Content:      NormalizeContent(resp.Choices[0].Message),
		TokensInput:  resp.Usage.PromptTokens,
		TokensOutput: resp.Usage.CompletionTokens,
	}, nil
}

func (s *OpenAIService) GenerateStream(ctx context.Context, messages []types.PromptMessage, onDelta types.StreamHandler) (*types.Generation, error) {
	stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    s.chatModel,
		Messages: toOpenAIMessages(messages),
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var answer strings.Builder
	gen := &types.Generation{}
	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		// Usage rides on the final chunk; capture it without holding
		// back any delta already received.
		if resp.Usage != nil {
			gen.TokensInput = resp.Usage.PromptTokens
			gen.TokensOutput = resp.Usage.CompletionTokens
		}
		if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
			delta := resp.Choices[0].Delta.Content
			answer.WriteString(delta)
			if onDelta != nil {
				onDelta(delta)
			}
		}
	}
	gen.Content = answer.String()
	return gen, nil
}

func (s *OpenAIService) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response generated")
	}
	return NormalizeContent(resp.Choices[0].Message), nil
}

// EmbedTexts embeds texts in sequential batches. Any batch failure fails
// the whole call; callers must not persist partial results.
func (s *OpenAIService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += s.embedBatchSize {
		end := i + s.embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model:      openai.EmbeddingModel(s.embedModel),
			Input:      texts[i:end],
			Dimensions: s.embedDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d failed: %w", i, end, err)
		}
		if len(resp.Data) != end-i {
			return nil, fmt.Errorf("embedding batch %d-%d returned %d vectors for %d inputs", i, end, len(resp.Data), end-i)
		}
		batch := make([][]float32, 0, len(resp.Data))
		for _, item := range resp.Data {
			batch = append(batch, item.Embedding)
		}
		if err := ensureVectorDims(batch, s.embedDimensions); err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (s *OpenAIService) Transcribe(ctx context.Context, filename string, data []byte, language string) (string, error) {
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.transcriptionModel,
		FilePath: filename,
		Reader:   bytes.NewReader(data),
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return resp.Text, nil
}

// NormalizeContent flattens the response content union (plain string,
// typed parts, or nothing) into plain text. Unknown part types are
// skipped, never raised.
func NormalizeContent(msg openai.ChatCompletionMessage) string {
	if msg.Content != "" {
		return msg.Content
	}
	if len(msg.MultiContent) > 0 {
		var b strings.Builder
		for _, part := range msg.MultiContent {
			if part.Type == openai.ChatMessagePartTypeText {
				b.WriteString(part.Text)
			}
		}
		return b.String()
	}
	return ""
}

func toOpenAIMessages(messages []types.PromptMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case types.MESSAGE_ROLE_ASSISTANT:
			role = openai.ChatMessageRoleAssistant
		case "system":
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return out
}
