package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caselens/casefile-be/service"
	"github.com/caselens/casefile-be/types"
)

const maxUploadSize = 50 << 20

// UploadHandler accepts a multipart upload with a "file" part and a
// "metadata" part carrying the document form as JSON. The document is
// returned immediately in the uploaded state; ingestion continues in the
// background.
type UploadHandler struct {
	documents *service.DocumentService
}

func NewUploadHandler(documents *service.DocumentService) *UploadHandler {
	return &UploadHandler{documents: documents}
}

func (h *UploadHandler) HandleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid file")
		return
	}
	if file.Size > maxUploadSize {
		respondError(c, http.StatusBadRequest, "File too large")
		return
	}

	var req types.UploadRequest
	if err := json.Unmarshal([]byte(c.PostForm("metadata")), &req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid metadata")
		return
	}
	if req.CaseID == "" {
		respondError(c, http.StatusBadRequest, "case_id is required")
		return
	}

	doc, err := h.documents.Upload(c.Request.Context(), userClaims(c).ID, req, file)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(c, http.StatusCreated, doc)
}
