package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caselens/casefile-be/service"
	"github.com/caselens/casefile-be/types"
)

// SearchHandler exposes raw fragment similarity search, mainly for
// debugging retrieval quality without running a generation.
type SearchHandler struct {
	rag *service.RAGService
}

func NewSearchHandler(rag *service.RAGService) *SearchHandler {
	return &SearchHandler{rag: rag}
}

func (h *SearchHandler) HandleSearch(c *gin.Context) {
	var req types.SearchFragmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	fragments, err := h.rag.SearchFragments(c.Request.Context(), req.CaseID, req.Query, req.TopK, req.Floor)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if fragments == nil {
		fragments = []types.ScoredFragment{}
	}
	respondOK(c, http.StatusOK, types.SearchFragmentsResponse{Fragments: fragments})
}
