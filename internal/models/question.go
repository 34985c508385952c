package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	FreeText     QuestionType = "free_text"
)

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	AssessmentID uint         `json:"assessment_id" gorm:"not null;index"`
	Type         QuestionType `json:"type" gorm:"not null;index"`
	Prompt       string       `json:"prompt" gorm:"type:text;not null" validate:"required"`
	Order        int          `json:"order" gorm:"not null;default:0"`
	Points       int          `json:"points" gorm:"default:10" validate:"min=0,max=100"`

	// Content stored as JSONB. Choice questions carry their options here;
	// free text questions have no content.
	Content datatypes.JSON `json:"content" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment Assessment `json:"-" gorm:"foreignKey:AssessmentID"`
}

func (Question) TableName() string {
	return "questions"
}

// ===== QUESTION CONTENT SCHEMAS =====

type ChoiceContent struct {
	Options []ChoiceOption `json:"options" validate:"min=2,max=10"`
}

type ChoiceOption struct {
	ID    string `json:"id"`
	Label string `json:"label" validate:"required"`
	// Value is the machine value fed to the prediction model when this
	// option is selected. Optional; display label is used otherwise.
	Value   *string `json:"value"`
	Correct bool    `json:"correct"`
	Order   int     `json:"order"`
}

// ChoiceOptions unmarshals the JSONB content of a choice question.
// Returns an empty slice for free text questions.
func (q *Question) ChoiceOptions() ([]ChoiceOption, error) {
	if q.Type == FreeText || len(q.Content) == 0 {
		return nil, nil
	}

	var content ChoiceContent
	if err := json.Unmarshal(q.Content, &content); err != nil {
		return nil, err
	}
	return content.Options, nil
}
