package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caselens/casefile-be/config"
	"github.com/caselens/casefile-be/types"
)

// embedServer fakes the embeddings endpoint. Each response vector encodes
// (request number, input index) so input order is checkable across batches.
func embedServer(t *testing.T, failOnCall int, dims int) (*httptest.Server, *[][]string) {
	t.Helper()
	var requests [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req.Input)

		if failOnCall > 0 && len(requests) == failOnCall {
			http.Error(w, `{"error":{"message":"backend unavailable"}}`, http.StatusInternalServerError)
			return
		}

		data := make([]map[string]interface{}, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dims)
			vec[0] = float32(len(requests))
			if dims > 1 {
				vec[1] = float32(i)
			}
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": vec,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  "text-embedding-3-large",
		})
	}))
	return srv, &requests
}

func newEmbedService(baseURL string, batchSize int) *OpenAIService {
	svc := NewOpenAIService(config.OpenAIConfig{
		APIKey:              "test-key",
		BaseURL:             baseURL,
		EmbeddingModel:      "text-embedding-3-large",
		EmbeddingDimensions: 3,
	})
	svc.embedBatchSize = batchSize
	return svc
}

func TestEmbedTextsBatchesPreserveInputOrder(t *testing.T) {
	srv, requests := embedServer(t, 0, 3)
	defer srv.Close()
	svc := newEmbedService(srv.URL, 2)

	vectors, err := svc.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	// Batch size 2 with 3 inputs means two calls: [a b] then [c].
	require.Equal(t, [][]string{{"a", "b"}, {"c"}}, *requests)

	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 0, 0}, vectors[0])
	assert.Equal(t, []float32{1, 1, 0}, vectors[1])
	assert.Equal(t, []float32{2, 0, 0}, vectors[2])
}

func TestEmbedTextsSecondBatchFailureFailsWholeCall(t *testing.T) {
	srv, requests := embedServer(t, 2, 3)
	defer srv.Close()
	svc := newEmbedService(srv.URL, 2)

	vectors, err := svc.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Nil(t, vectors)
	assert.Len(t, *requests, 2)
}

func TestEmbedTextsRejectsDimensionMismatch(t *testing.T) {
	srv, _ := embedServer(t, 0, 2)
	defer srv.Close()
	svc := newEmbedService(srv.URL, 2)

	_, err := svc.EmbedTexts(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestEnsureVectorDims(t *testing.T) {
	ok := [][]float32{{1, 2, 3}, {4, 5, 6}}
	assert.NoError(t, ensureVectorDims(ok, 3))
	assert.NoError(t, ensureVectorDims(ok, 0))

	// A 768-wide vector against a 1536-wide index must fail loudly.
	narrow := [][]float32{make([]float32, 768)}
	err := ensureVectorDims(narrow, 1536)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 768, want 1536")
}

func TestNormalizeContentPlainString(t *testing.T) {
	msg := openai.ChatCompletionMessage{Content: "plain answer"}
	assert.Equal(t, "plain answer", NormalizeContent(msg))
}

func TestNormalizeContentTypedParts(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: "first "},
			{Type: openai.ChatMessagePartTypeImageURL},
			{Type: openai.ChatMessagePartTypeText, Text: "second"},
		},
	}
	assert.Equal(t, "first second", NormalizeContent(msg))
}

func TestNormalizeContentEmpty(t *testing.T) {
	assert.Equal(t, "", NormalizeContent(openai.ChatCompletionMessage{}))
}

func TestToOpenAIMessagesRoleMapping(t *testing.T) {
	out := toOpenAIMessages([]types.PromptMessage{
		{Role: "system", Content: "rules"},
		{Role: types.MESSAGE_ROLE_USER, Content: "question"},
		{Role: types.MESSAGE_ROLE_ASSISTANT, Content: "answer"},
		{Role: "something-else", Content: "fallback"},
	})
	assert.Equal(t, openai.ChatMessageRoleSystem, out[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, out[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, out[2].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, out[3].Role)
}
