package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/caselens/casefile-be/service"
	"github.com/caselens/casefile-be/types"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) HandleList(c *gin.Context) {
	caseID := c.Query("case_id")
	if caseID == "" {
		respondError(c, http.StatusBadRequest, "case_id is required")
		return
	}
	skip, _ := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	docs, total, err := h.documents.List(c.Request.Context(), caseID, c.Query("type"), c.Query("status"), skip, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(c, http.StatusOK, types.DocumentListResponse{
		Documents: docs,
		Total:     total,
	})
}

func (h *DocumentHandler) HandleGet(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "Document not found")
		return
	}
	respondOK(c, http.StatusOK, doc)
}

func (h *DocumentHandler) HandleUpdate(c *gin.Context) {
	var req types.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.documents.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(c, http.StatusOK, doc)
}

func (h *DocumentHandler) HandleDelete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(c, http.StatusOK, nil)
}
