package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleStudent UserRole = "student"
	RoleAdvisor UserRole = "advisor"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"-"`

	// Profile info
	AvatarURL *string `json:"avatar_url" gorm:"size:500"`
	Course    string  `json:"course" gorm:"size:100"`
	YearLevel int     `json:"year_level" gorm:"default:0"`

	// Denormalized career selection, written in the same transaction
	// as the career_selections row.
	CareerCategory   *string  `json:"career_category" gorm:"size:100"`
	SelectedJobRole  *string  `json:"selected_job_role" gorm:"size:200"`
	CareerMatchScore *float64 `json:"career_match_score"`

	// Status
	EmailVerified bool `json:"email_verified" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
