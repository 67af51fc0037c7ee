package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/caselens/casefile-be/repository"
	"github.com/caselens/casefile-be/service"
	"github.com/caselens/casefile-be/types"
)

type CaseHandler struct {
	cases     repository.CaseRepo
	financial *service.FinancialService
}

func NewCaseHandler(cases repository.CaseRepo, financial *service.FinancialService) *CaseHandler {
	return &CaseHandler{cases: cases, financial: financial}
}

func (h *CaseHandler) HandleCreate(c *gin.Context) {
	var req types.CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	now := time.Now().Unix()
	kase := &types.Case{
		ID:          uuid.New().String(),
		OwnerID:     userClaims(c).ID,
		Number:      req.Number,
		Title:       req.Title,
		Description: req.Description,
		Notes:       req.Notes,
		Status:      types.CASE_STATUS_ACTIVE,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.cases.Create(c.Request.Context(), kase); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(c, http.StatusCreated, kase)
}

func (h *CaseHandler) HandleList(c *gin.Context) {
	cases, err := h.cases.ListByOwner(c.Request.Context(), userClaims(c).ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(c, http.StatusOK, cases)
}

func (h *CaseHandler) HandleGet(c *gin.Context) {
	kase, err := h.cases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "Case not found")
		return
	}
	respondOK(c, http.StatusOK, kase)
}

func (h *CaseHandler) HandleUpdate(c *gin.Context) {
	var req types.CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	kase, err := h.cases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "Case not found")
		return
	}
	kase.Number = req.Number
	kase.Title = req.Title
	kase.Description = req.Description
	kase.Notes = req.Notes
	if req.Status != "" {
		kase.Status = req.Status
	}
	kase.UpdatedAt = time.Now().Unix()

	if err := h.cases.Update(c.Request.Context(), kase); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(c, http.StatusOK, kase)
}

// HandleTransactions lists the transactions extracted from the case's
// financial documents, oldest first.
func (h *CaseHandler) HandleTransactions(c *gin.Context) {
	transactions, err := h.financial.ListByCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(c, http.StatusOK, transactions)
}
