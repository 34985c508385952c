package models

import (
	"time"

	"gorm.io/gorm"
)

type AssessmentStatus string

const (
	StatusDraft    AssessmentStatus = "Draft"
	StatusActive   AssessmentStatus = "Active"
	StatusArchived AssessmentStatus = "Archived"
)

// AssessmentCategory is a first-class enum on every definition and result.
// Category membership is never derived from id prefixes or naming conventions.
type AssessmentCategory string

const (
	CategoryAcademic  AssessmentCategory = "academic"
	CategoryTechnical AssessmentCategory = "technical"
	CategoryPersonal  AssessmentCategory = "personal"
)

// Categories lists all known categories in display order.
var Categories = []AssessmentCategory{CategoryAcademic, CategoryTechnical, CategoryPersonal}

func (c AssessmentCategory) Valid() bool {
	switch c {
	case CategoryAcademic, CategoryTechnical, CategoryPersonal:
		return true
	}
	return false
}

type AssessmentMode string

const (
	// ModeScored grades answers against correct options into a 0-100 score.
	ModeScored AssessmentMode = "scored"
	// ModeSurvey records responses without right answers; one designated
	// question feeds the career prediction model.
	ModeSurvey AssessmentMode = "survey"
)

type ScoreScale string

const (
	// ScalePercent stores scores as 0-100.
	ScalePercent ScoreScale = "percent"
	// ScaleOrdinal9 stores raw 1-9 self-rating values.
	ScaleOrdinal9 ScoreScale = "ordinal9"
)

type Assessment struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Slug        string  `json:"slug" gorm:"uniqueIndex;not null;size:100" validate:"required,min=1,max=100"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`

	Category    AssessmentCategory `json:"category" gorm:"not null;index;size:20" validate:"required,oneof=academic technical personal"`
	Mode        AssessmentMode     `json:"mode" gorm:"default:scored;size:20" validate:"omitempty,oneof=scored survey"`
	ScoreScale  ScoreScale         `json:"score_scale" gorm:"default:percent;size:20" validate:"omitempty,oneof=percent ordinal9"`
	Status      AssessmentStatus   `json:"status" gorm:"default:Draft;index" validate:"omitempty,oneof=Draft Active Archived"`
	MaxAttempts int                `json:"max_attempts" gorm:"default:2" validate:"min=1,max=10"`

	// ModelQuestionID designates the survey question whose selected option
	// value becomes the result's model value. Nil for scored assessments.
	ModelQuestionID *uint `json:"model_question_id"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Version control
	Version int `json:"version" gorm:"default:1"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:AssessmentID"`
	Results   []Result   `json:"results,omitempty" gorm:"foreignKey:AssessmentID"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
}

func (Assessment) TableName() string {
	return "assessments"
}
