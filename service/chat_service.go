package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/repository"
	"github.com/caselens/casefile-be/types"
	"github.com/caselens/casefile-be/worker"
)

const conversationTitleLimit = 100

// Answerer abstracts the retrieval-augmented generation engine for the
// conversation layer.
type Answerer interface {
	Chat(ctx context.Context, caseID, caseNotes string, history []types.Message, question string) (*types.RAGResult, error)
	ChatStream(ctx context.Context, caseID, caseNotes string, history []types.Message, question string, emit func(types.StreamEvent)) (*types.RAGResult, error)
}

// ChatService owns conversation persistence around the RAG engine. The
// user message is stored before generation starts; the assistant message
// is stored at most once, and only from a finalized result.
type ChatService struct {
	conversations repository.ConversationRepo
	messages      repository.MessageRepo
	cases         repository.CaseRepo
	rag           Answerer
	runner        *worker.Runner
	logger        *zap.SugaredLogger
}

func NewChatService(
	conversations repository.ConversationRepo,
	messages repository.MessageRepo,
	cases repository.CaseRepo,
	rag Answerer,
	runner *worker.Runner,
	logger *zap.SugaredLogger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		cases:         cases,
		rag:           rag,
		runner:        runner,
		logger:        logger,
	}
}

func (s *ChatService) CreateConversation(ctx context.Context, userID string, req types.CreateConversationRequest) (*types.Conversation, error) {
	if _, err := s.cases.Get(ctx, req.CaseID); err != nil {
		return nil, fmt.Errorf("case not found: %w", err)
	}
	now := time.Now().Unix()
	conv := &types.Conversation{
		ID:        uuid.New().String(),
		CaseID:    req.CaseID,
		UserID:    userID,
		Channel:   types.CONVERSATION_CHANNEL_WEB,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID, caseID string, skip, limit int64) ([]*types.Conversation, int64, error) {
	return s.conversations.ListByUser(ctx, userID, caseID, skip, limit)
}

func (s *ChatService) History(ctx context.Context, userID, conversationID string) ([]*types.Message, error) {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(ctx, conversationID)
}

func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.messages.DeleteByConversation(ctx, conversationID); err != nil {
		return err
	}
	return s.conversations.Delete(ctx, conversationID)
}

// SendMessage answers one user message in blocking mode and returns the
// stored assistant message.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID, content string) (*types.Message, error) {
	conv, history, caseNotes, err := s.prepareTurn(ctx, userID, conversationID, content)
	if err != nil {
		return nil, err
	}

	result, err := s.rag.Chat(ctx, conv.CaseID, caseNotes, history, content)
	if err != nil {
		return nil, err
	}
	return s.storeResult(ctx, conv, result)
}

// StreamMessage answers one user message while emitting protocol events.
// If generation fails or the client goes away before the result is
// finalized, no assistant message is stored; the user message already is.
func (s *ChatService) StreamMessage(ctx context.Context, userID, conversationID, content string, emit func(types.StreamEvent)) (*types.Message, error) {
	conv, history, caseNotes, err := s.prepareTurn(ctx, userID, conversationID, content)
	if err != nil {
		return nil, err
	}

	result, err := s.rag.ChatStream(ctx, conv.CaseID, caseNotes, history, content, emit)
	if err != nil {
		return nil, err
	}
	return s.storeResult(ctx, conv, result)
}

// prepareTurn loads the conversation state and stores the user message.
// History is captured before the new message so the question is not
// duplicated inside the prompt.
func (s *ChatService) prepareTurn(ctx context.Context, userID, conversationID, content string) (*types.Conversation, []types.Message, string, error) {
	conv, err := s.ownedConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, nil, "", err
	}

	caseNotes := ""
	if c, err := s.cases.Get(ctx, conv.CaseID); err == nil {
		caseNotes = c.Notes
	}

	stored, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, nil, "", err
	}
	history := make([]types.Message, 0, len(stored))
	for _, m := range stored {
		history = append(history, *m)
	}

	userMsg := &types.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           types.MESSAGE_ROLE_USER,
		Content:        content,
		CreatedAt:      time.Now().UnixNano(),
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, nil, "", fmt.Errorf("failed to store user message: %w", err)
	}

	if conv.Title == "" && len(history) == 0 {
		s.setTitleFrom(conv.ID, content)
	}
	return conv, history, caseNotes, nil
}

func (s *ChatService) storeResult(ctx context.Context, conv *types.Conversation, result *types.RAGResult) (*types.Message, error) {
	now := time.Now()
	msg := &types.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           types.MESSAGE_ROLE_ASSISTANT,
		Content:        result.Answer,
		FragmentsUsed:  result.FragmentsUsed,
		TokensInput:    result.TokensInput,
		TokensOutput:   result.TokensOutput,
		EstimatedCost:  result.EstimatedCost,
		Sources:        result.Sources,
		CreatedAt:      now.UnixNano(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}
	if err := s.conversations.Touch(ctx, conv.ID, now.Unix()); err != nil {
		s.logger.Errorw("failed to touch conversation", "conversation", conv.ID, "error", err)
	}
	return msg, nil
}

// setTitleFrom titles the conversation with the start of its first user
// message, detached from the request.
func (s *ChatService) setTitleFrom(conversationID, content string) {
	title := content
	if runes := []rune(title); len(runes) > conversationTitleLimit {
		title = string(runes[:conversationTitleLimit])
	}
	s.runner.Go("conversation-title", func(ctx context.Context) error {
		return s.conversations.SetTitle(ctx, conversationID, title)
	})
}

func (s *ChatService) ownedConversation(ctx context.Context, userID, conversationID string) (*types.Conversation, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversation not found: %w", err)
	}
	if conv.UserID != userID {
		return nil, fmt.Errorf("conversation %s does not belong to user", conversationID)
	}
	return conv, nil
}
