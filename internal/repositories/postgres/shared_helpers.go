package postgres

import (
	"context"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// CountCompletedResults counts completed results by student for an assessment.
// Abandoned and in-progress rows do not count toward attempt limits.
func (h *SharedHelpers) CountCompletedResults(ctx context.Context, db *gorm.DB, assessmentID uint, studentID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Result{}).
		Where("assessment_id = ? AND student_id = ? AND status = ?", assessmentID, studentID, models.ResultCompleted).
		Count(&count).Error
	return count, err
}

// GetAssessmentBasicInfo gets the columns attempt validation needs
func (h *SharedHelpers) GetAssessmentBasicInfo(ctx context.Context, db *gorm.DB, assessmentID uint) (*models.Assessment, error) {
	var assessment models.Assessment
	err := db.WithContext(ctx).
		Select("id, slug, category, mode, score_scale, status, max_attempts, model_question_id").
		First(&assessment, assessmentID).Error
	return &assessment, err
}

// ApplyAssessmentFilters applies common filters to assessment queries
func (h *SharedHelpers) ApplyAssessmentFilters(query *gorm.DB, filters repositories.AssessmentFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filters.Search+"%")
	}
	return query
}

// ApplyResultFilters applies common filters to result queries
func (h *SharedHelpers) ApplyResultFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.AssessmentID != nil {
		query = query.Where("assessment_id = ?", *filters.AssessmentID)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"completed_at": true,
		"id":           true,
		"title":        true,
		"slug":         true,
		"status":       true,
		"category":     true,
		"score":        true,
	}

	// Validate and set sort column
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	// Validate and set sort order
	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
