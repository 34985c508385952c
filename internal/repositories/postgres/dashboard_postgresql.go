package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"gorm.io/gorm"
)

type DashboardPostgreSQL struct {
	db *gorm.DB
}

func NewDashboardPostgreSQL(db *gorm.DB) repositories.DashboardRepository {
	return &DashboardPostgreSQL{db: db}
}

// GetCategoryCompletion returns distinct completed assessment counts and
// score averages grouped by category. Ordinal 1-9 scores are mapped to
// the 0-100 band before averaging so mixed-scale categories stay
// comparable. Categories without completions are absent from the slice,
// callers fill zeros from the catalog.
func (d *DashboardPostgreSQL) GetCategoryCompletion(ctx context.Context, tx *gorm.DB, studentID string) ([]repositories.CategoryCompletion, error) {
	db := d.getDB(tx)

	var rows []repositories.CategoryCompletion
	if err := db.WithContext(ctx).
		Model(&models.Result{}).
		Select(`category,
			COUNT(DISTINCT assessment_id) as completed,
			COALESCE(AVG(CASE WHEN score_scale = ?
				THEN LEAST(GREATEST((score - 1) / 8.0 * 100, 0), 100)
				ELSE score END), 0) as average_score`, models.ScaleOrdinal9).
		Where("student_id = ? AND status = ?", studentID, models.ResultCompleted).
		Group("category").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get category completion: %w", err)
	}

	return rows, nil
}

func (d *DashboardPostgreSQL) GetCompletionDates(ctx context.Context, tx *gorm.DB, studentID string) ([]time.Time, error) {
	db := d.getDB(tx)
	var dates []time.Time
	if err := db.WithContext(ctx).
		Model(&models.Result{}).
		Where("student_id = ? AND status = ? AND completed_at IS NOT NULL", studentID, models.ResultCompleted).
		Order("completed_at DESC").
		Pluck("completed_at", &dates).Error; err != nil {
		return nil, fmt.Errorf("failed to get completion dates: %w", err)
	}
	return dates, nil
}

func (d *DashboardPostgreSQL) GetRecentActivities(ctx context.Context, tx *gorm.DB, studentID string, limit int) ([]repositories.RecentActivityData, error) {
	db := d.getDB(tx)

	var activities []repositories.RecentActivityData
	if err := db.WithContext(ctx).
		Table("results r").
		Joins("JOIN assessments a ON a.id = r.assessment_id").
		Select("r.id as result_id, r.assessment_slug, a.title, r.category, r.score, r.score_scale, r.completed_at").
		Where("r.student_id = ? AND r.status = ?", studentID, models.ResultCompleted).
		Order("r.completed_at DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent activities: %w", err)
	}

	return activities, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (d *DashboardPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}
