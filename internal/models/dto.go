package models

import (
	"encoding/json"
	"time"
)

type AssessmentCreateRequest struct {
	Slug            string             `json:"slug" validate:"required,min=1,max=100,slug"`
	Title           string             `json:"title" validate:"required,min=1,max=200"`
	Description     *string            `json:"description" validate:"omitempty,max=1000"`
	Category        AssessmentCategory `json:"category" validate:"required,assessment_category"`
	Mode            AssessmentMode     `json:"mode" validate:"omitempty,assessment_mode"`
	ScoreScale      ScoreScale         `json:"score_scale" validate:"omitempty,score_scale"`
	MaxAttempts     int                `json:"max_attempts" validate:"min=1,max=10"`
	ModelQuestionID *uint              `json:"model_question_id"`
}

type AssessmentUpdateRequest struct {
	Title           *string             `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string             `json:"description" validate:"omitempty,max=1000"`
	Category        *AssessmentCategory `json:"category" validate:"omitempty,assessment_category"`
	Mode            *AssessmentMode     `json:"mode" validate:"omitempty,assessment_mode"`
	ScoreScale      *ScoreScale         `json:"score_scale" validate:"omitempty,score_scale"`
	MaxAttempts     *int                `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	ModelQuestionID *uint               `json:"model_question_id"`
}

type QuestionCreateRequest struct {
	Type    QuestionType    `json:"type" validate:"required,oneof=single_choice multi_choice free_text"`
	Prompt  string          `json:"prompt" validate:"required"`
	Order   int             `json:"order" validate:"min=0"`
	Points  int             `json:"points" validate:"min=1,max=100"`
	Content json.RawMessage `json:"content"`
}

type QuestionUpdateRequest struct {
	Prompt  *string         `json:"prompt" validate:"omitempty,min=1"`
	Order   *int            `json:"order" validate:"omitempty,min=0"`
	Points  *int            `json:"points" validate:"omitempty,min=1,max=100"`
	Content json.RawMessage `json:"content"`
}

// ===== PAGINATION & FILTERING =====

type ListAssessmentsParams struct {
	Page     int                `json:"page" validate:"min=0"`
	Size     int                `json:"size" validate:"min=1,max=100"`
	Status   AssessmentStatus   `json:"status"`
	Category AssessmentCategory `json:"category"`
	Search   string             `json:"search"`
	SortBy   string             `json:"sort_by"`
	SortDir  string             `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type ListResultsParams struct {
	Page         int          `json:"page" validate:"min=0"`
	Size         int          `json:"size" validate:"min=1,max=100"`
	AssessmentID *uint        `json:"assessment_id"`
	StudentID    *string      `json:"student_id"`
	Status       ResultStatus `json:"status"`
	DateFrom     *time.Time   `json:"date_from"`
	DateTo       *time.Time   `json:"date_to"`
	SortBy       string       `json:"sort_by"`
	SortDir      string       `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// ===== ASSESSMENT STATUS MANAGEMENT =====

type ChangeStatusRequest struct {
	Status AssessmentStatus `json:"status" validate:"required,oneof=Draft Active Archived"`
	Reason *string          `json:"reason" validate:"omitempty,max=500"`
}

type StatusChangeResponse struct {
	OldStatus AssessmentStatus `json:"old_status"`
	NewStatus AssessmentStatus `json:"new_status"`
	ChangedAt time.Time        `json:"changed_at"`
	ChangedBy string           `json:"changed_by"`
	Reason    *string          `json:"reason"`
}

// ===== IMPORT/EXPORT DTOs =====

type ImportAssessmentsRequest struct {
	Overwrite    bool `json:"overwrite"`
	ValidateOnly bool `json:"validate_only"`
}

type ImportAssessmentsResult struct {
	Imported   int                     `json:"imported"`
	Updated    int                     `json:"updated"`
	Skipped    int                     `json:"skipped"`
	Errors     []ImportValidationError `json:"errors"`
	FinishedAt time.Time               `json:"finished_at"`
}

type ImportValidationError struct {
	Slug    string `json:"slug"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ExportResultsParams struct {
	AssessmentSlug string     `json:"assessment_slug"`
	Category       string     `json:"category"`
	DateFrom       *time.Time `json:"date_from"`
	DateTo         *time.Time `json:"date_to"`
}

// ===== VALIDATION RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

// ===== SUMMARY DTOs =====

type AssessmentSummary struct {
	ID             uint               `json:"id"`
	Slug           string             `json:"slug"`
	Title          string             `json:"title"`
	Category       AssessmentCategory `json:"category"`
	Mode           AssessmentMode     `json:"mode"`
	Status         AssessmentStatus   `json:"status"`
	MaxAttempts    int                `json:"max_attempts"`
	QuestionsCount int                `json:"questions_count"`
	CreatedBy      string             `json:"created_by"`
	CreatedAt      time.Time          `json:"created_at"`
}

// ===== ERROR RESPONSES =====

type ErrorResponseBody struct {
	Error            string                    `json:"error"`
	Message          string                    `json:"message"`
	Code             string                    `json:"code"`
	Details          interface{}               `json:"details,omitempty"`
	Timestamp        time.Time                 `json:"timestamp"`
	Path             string                    `json:"path"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}
