package repositories

import (
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	Status    *models.AssessmentStatus   `json:"status"`
	Category  *models.AssessmentCategory `json:"category"`
	CreatedBy *string                    `json:"created_by"`
	Search    string                     `json:"search"`
	Limit     int                        `json:"limit"`
	Offset    int                        `json:"offset"`
	SortBy    string                     `json:"sort_by"`    // "created_at", "title", "category"
	SortOrder string                     `json:"sort_order"` // "asc", "desc"
}

type ResultFilters struct {
	Status       *models.ResultStatus       `json:"status"`
	StudentID    *string                    `json:"student_id"`
	AssessmentID *uint                      `json:"assessment_id"`
	Category     *models.AssessmentCategory `json:"category"`
	DateFrom     *time.Time                 `json:"date_from"`
	DateTo       *time.Time                 `json:"date_to"`
	Limit        int                        `json:"limit"`
	Offset       int                        `json:"offset"`
	SortBy       string                     `json:"sort_by"`
	SortOrder    string                     `json:"sort_order"`
}

type NotificationFilters struct {
	UnreadOnly bool `json:"unread_only"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
}

type UserFilters struct {
	Query  string // Search query for name or email
	Limit  int    // Page size
	Offset int    // Offset for pagination
}

// ===== SHARED STATISTICS STRUCTS =====

type AssessmentStats struct {
	TotalResults     int     `json:"total_results"`
	CompletedResults int     `json:"completed_results"`
	AverageScore     float64 `json:"average_score"`
	QuestionCount    int     `json:"question_count"`
	TotalPoints      int     `json:"total_points"`
}

type CategoryCompletion struct {
	Category     models.AssessmentCategory `json:"category"`
	Completed    int                       `json:"completed"`
	AverageScore float64                   `json:"average_score"`
}
