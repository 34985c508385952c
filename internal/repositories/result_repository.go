package repositories

import (
	"context"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"gorm.io/gorm"
)

// ResultRepository interface for attempt result operations
type ResultRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, result *models.Result) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error)
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error)
	Update(ctx context.Context, tx *gorm.DB, result *models.Result) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Attempt lookups
	GetActive(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.Result, error)

	// Only completed results consume attempt slots
	CountCompleted(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (int, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters ResultFilters) ([]*models.Result, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters ResultFilters) ([]*models.Result, int64, error)
	GetCompletedByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Result, error)
	GetCompletionDates(ctx context.Context, tx *gorm.DB, studentID string) ([]time.Time, error)
	GetRecentByStudent(ctx context.Context, tx *gorm.DB, studentID string, limit int) ([]*models.Result, error)

	// Maintenance
	DeleteIncompleteByStudent(ctx context.Context, tx *gorm.DB, studentID string) (int64, error)
	DeleteByAssessmentSlug(ctx context.Context, tx *gorm.DB, slug string) (int64, error)
}

// AnswerRepository interface for per-question answer operations
type AnswerRepository interface {
	// Upsert keyed by (result_id, question_id)
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.ResultAnswer) error
	GetByResult(ctx context.Context, tx *gorm.DB, resultID uint) ([]*models.ResultAnswer, error)
	GetByResultAndQuestion(ctx context.Context, tx *gorm.DB, resultID, questionID uint) (*models.ResultAnswer, error)
	CountByResult(ctx context.Context, tx *gorm.DB, resultID uint) (int, error)
	DeleteByResult(ctx context.Context, tx *gorm.DB, resultID uint) error
}
