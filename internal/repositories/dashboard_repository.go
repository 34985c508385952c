package repositories

import (
	"context"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"gorm.io/gorm"
)

// DashboardRepository interface for per-student dashboard queries
type DashboardRepository interface {
	// Completed counts and score averages grouped by category
	GetCategoryCompletion(ctx context.Context, tx *gorm.DB, studentID string) ([]CategoryCompletion, error)

	// Distinct completion dates, newest first, for streak computation
	GetCompletionDates(ctx context.Context, tx *gorm.DB, studentID string) ([]time.Time, error)

	// Recent activities
	GetRecentActivities(ctx context.Context, tx *gorm.DB, studentID string, limit int) ([]RecentActivityData, error)
}

type RecentActivityData struct {
	ResultID       uint                      `json:"result_id"`
	AssessmentSlug string                    `json:"assessment_slug"`
	Title          string                    `json:"title"`
	Category       models.AssessmentCategory `json:"category"`
	Score          float64                   `json:"score"`
	ScoreScale     models.ScoreScale         `json:"score_scale"`
	CompletedAt    time.Time                 `json:"completed_at"`
}
