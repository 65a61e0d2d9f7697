package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"learnhub/internal/auth"
	"learnhub/internal/services"
	"learnhub/internal/xp"
)

// UserHandler handles account profile and XP activity endpoints
type UserHandler struct {
	authService *services.AuthService
	xpService   *services.XPService
	dailyLogin  int
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(authService *services.AuthService, xpService *services.XPService, dailyLoginXP int) *UserHandler {
	return &UserHandler{
		authService: authService,
		xpService:   xpService,
		dailyLogin:  dailyLoginXP,
	}
}

// GetProfile returns the authenticated account with level progress
// GET /api/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.authService.GetByWallet(wallet)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	earnedToday, err := h.xpService.EarnedToday(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load daily XP"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":          account,
		"xp_into_level":    xp.IntoLevel(account.TotalXP),
		"xp_to_next_level": xp.ToNextLevel(account.TotalXP),
		"level_progress":   xp.ProgressPercent(account.TotalXP),
		"earned_today":     earnedToday,
	})
}

// UpdateProfile changes display name and squad
// PUT /api/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
		Squad       string `json:"squad"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.authService.UpdateProfile(wallet, req.DisplayName, req.Squad)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// GetActivities returns the wallet's recent XP activity
// GET /api/activities
func (h *UserHandler) GetActivities(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	activities, err := h.xpService.RecentActivities(c.Request.Context(), wallet, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activities"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// DailyClaim grants the daily login XP. Claiming twice in the same UTC
// day returns the original claim.
// POST /api/daily-claim
func (h *UserHandler) DailyClaim(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.xpService.DailyClaim(c.Request.Context(), wallet, h.dailyLogin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim daily XP"})
		return
	}

	status := http.StatusOK
	if !result.AlreadyAwarded {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"result": result})
}
