package handlers

import (
	"errors"
	"net/http"

	reconciliationRepo "magicweekends/database/repository/reconciliation"
	"magicweekends/models"
	"magicweekends/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReconciliationHandler lets operators work through payments that could not be verified.
type ReconciliationHandler struct {
	Repo reconciliationRepo.ReconciliationRepository
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(repo reconciliationRepo.ReconciliationRepository) *ReconciliationHandler {
	return &ReconciliationHandler{Repo: repo}
}

type resolveRequest struct {
	Note string `json:"note" binding:"required"`
}

// ListOpenHandler returns every open case, oldest first.
func (rh *ReconciliationHandler) ListOpenHandler(c *gin.Context) {
	cases, err := rh.Repo.ListOpen(c.Request.Context())
	if err != nil {
		getLogger(c).Error("Failed to fetch reconciliation cases", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reconciliation cases"})
		return
	}
	if cases == nil {
		cases = []models.ReconciliationCase{}
	}
	c.JSON(http.StatusOK, cases)
}

// ResolveHandler closes a case with the operator's note.
func (rh *ReconciliationHandler) ResolveHandler(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "A resolution note is required", err.Error())
		return
	}
	id := c.Param("id")
	if err := rh.Repo.Resolve(c.Request.Context(), id, req.Note); err != nil {
		if errors.Is(err, reconciliationRepo.ErrCaseNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Reconciliation case not found", id)
			return
		}
		getLogger(c).Error("Failed to resolve reconciliation case", zap.String("caseID", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve reconciliation case"})
		return
	}
	getLogger(c).Info("Reconciliation case resolved", zap.String("caseID", id))
	c.JSON(http.StatusOK, gin.H{"message": "Case resolved", "id": id})
}
