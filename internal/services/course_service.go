package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnhub/internal/models"
)

// CourseService handles course management and completion rewards
type CourseService struct {
	db        *gorm.DB
	xpService *XPService
}

// NewCourseService creates a new CourseService
func NewCourseService(db *gorm.DB, xpService *XPService) *CourseService {
	return &CourseService{db: db, xpService: xpService}
}

// CreateCourse creates a new course with a slug derived from the title
func (s *CourseService) CreateCourse(ctx context.Context, title, description, tags string, xpReward int, published bool) (*models.Course, error) {
	if title == "" {
		return nil, fmt.Errorf("course title is required")
	}
	if xpReward <= 0 {
		return nil, fmt.Errorf("course XP reward must be positive")
	}

	course := models.Course{
		ID:          uuid.New(),
		Title:       title,
		Slug:        slug.Make(title),
		Description: description,
		Tags:        tags,
		XPReward:    xpReward,
		Published:   published,
	}

	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	return &course, nil
}

// ListPublished returns published courses
func (s *CourseService) ListPublished(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

// GetCourse retrieves a course by id
func (s *CourseService) GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("course not found")
		}
		return nil, err
	}
	return &course, nil
}

// CompleteCourse records a completion and awards the course XP. The XP
// service deduplicates by (wallet, COURSE, courseID), so finishing the
// same course twice reports the original grant.
func (s *CourseService) CompleteCourse(ctx context.Context, walletAddress string, courseID uuid.UUID) (*AwardResult, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		return nil, fmt.Errorf("course is not published")
	}

	completion := models.CourseCompletion{
		CourseID:      courseID,
		WalletAddress: walletAddress,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&completion).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	return s.xpService.Award(ctx, AwardInput{
		WalletAddress: walletAddress,
		SourceType:    models.XPSourceCourse,
		SourceRef:     courseID.String(),
		Amount:        course.XPReward,
		Reason:        "completed course: " + course.Title,
	})
}

// Completions lists a wallet's completed courses
func (s *CourseService) Completions(ctx context.Context, walletAddress string) ([]models.CourseCompletion, error) {
	var completions []models.CourseCompletion
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		Preload("Course").
		Order("completed_at DESC").
		Find(&completions).Error
	return completions, err
}
