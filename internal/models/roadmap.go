package models

import (
	"time"

	"gorm.io/datatypes"
)

// RoadmapProgress tracks a student's progress through the learning
// roadmap of their selected career. Steps is the JSON snapshot of the
// roadmap at selection time so later catalog edits do not shift a
// student's progress.
type RoadmapProgress struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	StudentID      string         `json:"student_id" gorm:"uniqueIndex;not null;size:255"`
	JobRole        string         `json:"job_role" gorm:"not null;size:200"`
	Steps          datatypes.JSON `json:"steps" gorm:"type:jsonb"`
	CompletedSteps int            `json:"completed_steps" gorm:"default:0"`
	TotalSteps     int            `json:"total_steps" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student User `json:"-" gorm:"foreignKey:StudentID"`
}

func (RoadmapProgress) TableName() string {
	return "roadmap_progress"
}

// RoadmapStep is one entry in the Steps JSON document.
type RoadmapStep struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}
