package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/caselens/casefile-be/service"
	"github.com/caselens/casefile-be/types"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) HandleCreateConversation(c *gin.Context) {
	var req types.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CaseID == "" {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	conv, err := h.chat.CreateConversation(c.Request.Context(), userClaims(c).ID, req)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(c, http.StatusCreated, conv)
}

func (h *ChatHandler) HandleListConversations(c *gin.Context) {
	skip, _ := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	convs, total, err := h.chat.ListConversations(c.Request.Context(), userClaims(c).ID, c.Query("case_id"), skip, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(c, http.StatusOK, gin.H{"conversations": convs, "total": total})
}

func (h *ChatHandler) HandleHistory(c *gin.Context) {
	messages, err := h.chat.History(c.Request.Context(), userClaims(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	respondOK(c, http.StatusOK, messages)
}

func (h *ChatHandler) HandleDeleteConversation(c *gin.Context) {
	if err := h.chat.DeleteConversation(c.Request.Context(), userClaims(c).ID, c.Param("id")); err != nil {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	respondOK(c, http.StatusOK, nil)
}

// HandleSendMessage answers in blocking mode: the full assistant message
// arrives in one response.
func (h *ChatHandler) HandleSendMessage(c *gin.Context) {
	var req types.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.chat.SendMessage(c.Request.Context(), userClaims(c).ID, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(c, http.StatusOK, msg)
}

// HandleStreamMessage answers over SSE, one protocol event per SSE
// message. A client disconnect cancels generation and drops the partial
// answer.
func (h *ChatHandler) HandleStreamMessage(c *gin.Context) {
	var req types.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := make(chan types.StreamEvent, 16)
	errChan := make(chan error, 1)
	go func() {
		_, err := h.chat.StreamMessage(ctx, userClaims(c).ID, c.Param("id"), req.Content, func(event types.StreamEvent) {
			select {
			case events <- event:
			case <-ctx.Done():
			}
		})
		errChan <- err
	}()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			cancel()
			<-errChan
			return
		case event := <-events:
			h.writeEvent(c, event)
		case err := <-errChan:
			// Drain events emitted before the terminal result.
			for {
				select {
				case event := <-events:
					h.writeEvent(c, event)
					continue
				default:
				}
				break
			}
			if err != nil {
				h.writeEvent(c, types.StreamEvent{Type: types.STREAM_EVENT_ERROR, Error: err.Error()})
			}
			return
		}
	}
}

func (h *ChatHandler) writeEvent(c *gin.Context, event types.StreamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.SSEvent("message", string(payload))
	c.Writer.Flush()
}
