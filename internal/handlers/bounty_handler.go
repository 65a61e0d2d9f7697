package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"learnhub/internal/auth"
	"learnhub/internal/models"
	"learnhub/internal/services"
)

// BountyHandler handles bounty listing and submission endpoints
type BountyHandler struct {
	bountyService *services.BountyService
}

// NewBountyHandler creates a new BountyHandler
func NewBountyHandler(bountyService *services.BountyService) *BountyHandler {
	return &BountyHandler{bountyService: bountyService}
}

// ListBounties returns bounties, optionally filtered by status
// GET /api/bounties?status=OPEN
func (h *BountyHandler) ListBounties(c *gin.Context) {
	status := models.BountyStatus(c.Query("status"))
	if status != "" && status != models.BountyStatusOpen && status != models.BountyStatusClosed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	bounties, err := h.bountyService.ListBounties(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bounties"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bounties": bounties})
}

// Submit creates a pending submission for an open bounty
// POST /api/bounties/:id/submissions
func (h *BountyHandler) Submit(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bounty id"})
		return
	}

	var req struct {
		SubmissionURL string `json:"submission_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := h.bountyService.Submit(c.Request.Context(), wallet, id, req.SubmissionURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": submission})
}

// GetSubmissions lists submissions for a bounty
// GET /api/bounties/:id/submissions
func (h *BountyHandler) GetSubmissions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bounty id"})
		return
	}

	submissions, err := h.bountyService.Submissions(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}
