package models

import "time"

// CareerSelection is the one-time permanent career choice of a student.
// The unique index on StudentID enforces at most one row per student;
// the service layer rejects re-selection before any write happens.
type CareerSelection struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	StudentID  string    `json:"student_id" gorm:"uniqueIndex;not null;size:255"`
	JobRole    string    `json:"job_role" gorm:"not null;size:200" validate:"required,max=200"`
	Category   string    `json:"category" gorm:"not null;size:100" validate:"required,max=100"`
	MatchScore float64   `json:"match_score" validate:"min=0,max=100"`
	SelectedAt time.Time `json:"selected_at"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Student User `json:"-" gorm:"foreignKey:StudentID"`
}

func (CareerSelection) TableName() string {
	return "career_selections"
}

// CareerMatch is one ranked recommendation from the prediction endpoint.
type CareerMatch struct {
	JobRole    string  `json:"job_role"`
	Category   string  `json:"category"`
	MatchScore float64 `json:"match_score"`
}
