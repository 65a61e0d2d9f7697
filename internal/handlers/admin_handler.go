package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"learnhub/internal/auth"
	"learnhub/internal/models"
	"learnhub/internal/services"
)

// AdminHandler handles staff-only endpoints
type AdminHandler struct {
	adminService  *services.AdminService
	courseService *services.CourseService
	bountyService *services.BountyService
	socialService *services.SocialService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService *services.AdminService, courseService *services.CourseService, bountyService *services.BountyService, socialService *services.SocialService) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		courseService: courseService,
		bountyService: bountyService,
		socialService: socialService,
	}
}

// AdminMiddleware checks if the authenticated wallet is staff
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, exists := auth.GetWalletAddress(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		admin, err := h.adminService.GetAdminByWallet(c.Request.Context(), wallet)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
			c.Abort()
			return
		}

		c.Set("admin", admin)
		c.Set("admin_role", admin.Role)
		c.Next()
	}
}

// SuperAdminMiddleware checks if the caller is a super admin
func (h *AdminHandler) SuperAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("admin_role")
		if !exists || role != "SUPER_ADMIN" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Super admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentAdmin(c *gin.Context) (*models.AdminUser, bool) {
	value, exists := c.Get("admin")
	if !exists {
		return nil, false
	}
	admin, ok := value.(*models.AdminUser)
	return admin, ok
}

// GrantXP manually awards XP to a wallet
// POST /api/admin/xp/grant
func (h *AdminHandler) GrantXP(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
		return
	}

	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		SourceRef     string `json:"source_ref" binding:"required"`
		Amount        int    `json:"amount" binding:"required"`
		Reason        string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.adminService.Grant(c.Request.Context(), admin, req.WalletAddress, req.SourceRef, req.Amount, req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"result": result})
}

// GetStats returns aggregate platform counters
// GET /api/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetLogs returns the recent audit trail
// GET /api/admin/logs
func (h *AdminHandler) GetLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.adminService.Logs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// CreateCourse publishes a new course
// POST /api/admin/courses
func (h *AdminHandler) CreateCourse(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		Tags        string `json:"tags"`
		XPReward    int    `json:"xp_reward" binding:"required"`
		Published   bool   `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.courseService.CreateCourse(c.Request.Context(), req.Title, req.Description, req.Tags, req.XPReward, req.Published)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.adminService.LogAction(c.Request.Context(), admin.ID, "COURSE_CREATE", "", course.Title)

	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// CreateBounty opens a new bounty
// POST /api/admin/bounties
func (h *AdminHandler) CreateBounty(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		XPReward    int    `json:"xp_reward" binding:"required"`
		TokenReward string `json:"token_reward"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokenReward := decimal.Zero
	if req.TokenReward != "" {
		var err error
		tokenReward, err = decimal.NewFromString(req.TokenReward)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token reward"})
			return
		}
	}

	bounty, err := h.bountyService.CreateBounty(c.Request.Context(), req.Title, req.Description, req.XPReward, tokenReward)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.adminService.LogAction(c.Request.Context(), admin.ID, "BOUNTY_CREATE", "", bounty.Title)

	c.JSON(http.StatusCreated, gin.H{"bounty": bounty})
}

// CloseBounty stops further submissions on a bounty
// POST /api/admin/bounties/:id/close
func (h *AdminHandler) CloseBounty(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bounty id"})
		return
	}

	if err := h.bountyService.CloseBounty(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.adminService.LogAction(c.Request.Context(), admin.ID, "BOUNTY_CLOSE", "", id.String())

	c.JSON(http.StatusOK, gin.H{"message": "bounty closed"})
}

// ReviewSubmission approves or rejects a bounty submission. Approval
// pays the bounty XP to the submitter.
// POST /api/admin/submissions/:id/review
func (h *AdminHandler) ReviewSubmission(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.bountyService.ReviewSubmission(c.Request.Context(), admin.WalletAddress, id, req.Approve)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action := "SUBMISSION_REJECT"
	if req.Approve {
		action = "SUBMISSION_APPROVE"
	}
	h.adminService.LogAction(c.Request.Context(), admin.ID, action, "", id.String())

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// HidePost removes a post from the feed
// DELETE /api/admin/posts/:id
func (h *AdminHandler) HidePost(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	if err := h.socialService.HidePost(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.adminService.LogAction(c.Request.Context(), admin.ID, "POST_HIDE", "", id.String())

	c.JSON(http.StatusOK, gin.H{"message": "post hidden"})
}
