package models

import (
	"time"

	"gorm.io/datatypes"
)

type ResultStatus string

const (
	ResultInProgress ResultStatus = "in_progress"
	ResultCompleted  ResultStatus = "completed"
	ResultAbandoned  ResultStatus = "abandoned"
)

// Result is one attempt at an assessment. Completed results are immutable;
// a student holds at most Assessment.MaxAttempts completed results per
// assessment, numbered densely from 1.
type Result struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	AssessmentID  uint   `json:"assessment_id" gorm:"not null;index"`
	StudentID     string `json:"student_id" gorm:"not null;index;size:255"`
	AttemptNumber int    `json:"attempt_number" gorm:"not null"`

	// Denormalized from the definition so aggregation never needs a join
	// or id parsing.
	AssessmentSlug string             `json:"assessment_slug" gorm:"not null;index;size:100"`
	Category       AssessmentCategory `json:"category" gorm:"not null;index;size:20"`

	Status ResultStatus `json:"status" gorm:"default:in_progress;index"`

	// Scoring. Percent scale stores 0-100; ordinal9 stores the raw 1-9
	// self-rating. Normalization happens at read time.
	Score      float64    `json:"score"`
	ScoreScale ScoreScale `json:"score_scale" gorm:"default:percent;size:20"`

	// ModelValue is extracted from the designated survey question at
	// submission. Nil when the assessment has no model question or the
	// selected option carries no machine value.
	ModelValue *string `json:"model_value" gorm:"size:100"`

	// Timing
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment Assessment     `json:"assessment" gorm:"foreignKey:AssessmentID"`
	Student    User           `json:"student" gorm:"foreignKey:StudentID"`
	Answers    []ResultAnswer `json:"answers" gorm:"foreignKey:ResultID"`
}

func (Result) TableName() string {
	return "results"
}

type ResultAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ResultID   uint `json:"result_id" gorm:"not null;index"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`

	// Selected option ids for choice questions ([]string as JSONB).
	Selected datatypes.JSON `json:"selected" gorm:"type:jsonb"`
	// Display label of the chosen option(s).
	Label string `json:"label" gorm:"type:text"`
	// Machine value of the chosen option, when it carries one.
	Value *string `json:"value" gorm:"size:100"`
	// Free text response.
	Text *string `json:"text" gorm:"type:text"`

	// Grading
	Score   float64 `json:"score"`
	Correct *bool   `json:"correct"` // nil for ungradable answers

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Result   Result   `json:"-" gorm:"foreignKey:ResultID"`
	Question Question `json:"-" gorm:"foreignKey:QuestionID"`
}

func (ResultAnswer) TableName() string {
	return "result_answers"
}
