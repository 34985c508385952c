package repositories

import (
	"context"

	"github.com/devpath-io/devpath-service/internal/models"
	"gorm.io/gorm"
)

// AssessmentRepository interface for assessment catalog operations
type AssessmentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Assessment, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	GetActive(ctx context.Context, tx *gorm.DB) ([]*models.Assessment, error)
	GetActiveByCategory(ctx context.Context, tx *gorm.DB, category models.AssessmentCategory) ([]*models.Assessment, error)

	// Catalog totals, keyed by category, derived from active assessments only
	CountActiveByCategory(ctx context.Context, tx *gorm.DB) (map[models.AssessmentCategory]int, error)

	// Status management
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AssessmentStatus) error

	// Import support: create or update by slug
	UpsertBySlug(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) (created bool, err error)

	// Validation and checks
	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error)
	HasResults(ctx context.Context, tx *gorm.DB, id uint) (bool, error)

	// Statistics
	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*AssessmentStats, error)
}

// QuestionRepository interface for question operations within an assessment
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	DeleteByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) error

	// Query operations
	GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error)
	CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int, error)
	TotalPoints(ctx context.Context, tx *gorm.DB, assessmentID uint) (int, error)
}
