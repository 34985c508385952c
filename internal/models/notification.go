package models

import "time"

type NotificationType string

const (
	NotificationCareerSelected      NotificationType = "career.selected"
	NotificationAssessmentCompleted NotificationType = "assessment.completed"
	NotificationEmailVerified       NotificationType = "email.verified"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

type Notification struct {
	ID       uint                 `json:"id" gorm:"primaryKey"`
	UserID   string               `json:"user_id" gorm:"not null;index;size:255"`
	Type     NotificationType     `json:"type" gorm:"not null;size:50"`
	Priority NotificationPriority `json:"priority" gorm:"default:normal;size:20"`
	Title    string               `json:"title" gorm:"not null;size:200"`
	Message  string               `json:"message" gorm:"type:text"`
	Read     bool                 `json:"read" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (Notification) TableName() string {
	return "notifications"
}
