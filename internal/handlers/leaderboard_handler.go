package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"learnhub/internal/services"
)

// LeaderboardHandler handles public standings endpoints
type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetLeaderboard returns a ranked page of accounts.
// Query params: offset, limit, squad, timeframe (all|weekly|monthly).
// GET /api/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	timeframe, err := services.ParseTimeframe(c.DefaultQuery("timeframe", "all"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scope := services.LeaderboardScope{
		Squad:     c.Query("squad"),
		Timeframe: timeframe,
	}

	page, err := h.leaderboardService.Rank(c.Request.Context(), scope, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetRank returns one wallet's rank with its surrounding neighbors.
// Query params: window, squad, timeframe.
// GET /api/leaderboard/rank/:wallet
func (h *LeaderboardHandler) GetRank(c *gin.Context) {
	wallet := c.Param("wallet")
	window, _ := strconv.Atoi(c.DefaultQuery("window", "5"))

	timeframe, err := services.ParseTimeframe(c.DefaultQuery("timeframe", "all"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scope := services.LeaderboardScope{
		Squad:     c.Query("squad"),
		Timeframe: timeframe,
	}

	detail, err := h.leaderboardService.RankOf(c.Request.Context(), wallet, scope, window)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, detail)
}
