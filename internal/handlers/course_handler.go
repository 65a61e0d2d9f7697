package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"learnhub/internal/auth"
	"learnhub/internal/services"
)

// CourseHandler handles course listing and completion endpoints
type CourseHandler struct {
	courseService *services.CourseService
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// ListCourses returns all published courses
// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseService.ListPublished(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load courses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// GetCourse returns a single course by id
// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}

	course, err := h.courseService.GetCourse(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

// CompleteCourse marks the course finished for the caller and awards
// its XP. Repeating the completion returns the original award.
// POST /api/courses/:id/complete
func (h *CourseHandler) CompleteCourse(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}

	result, err := h.courseService.CompleteCourse(c.Request.Context(), wallet, id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if !result.AlreadyAwarded {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"result": result})
}

// GetCompletions lists the caller's finished courses
// GET /api/courses/completions
func (h *CourseHandler) GetCompletions(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	completions, err := h.courseService.Completions(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load completions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"completions": completions})
}
