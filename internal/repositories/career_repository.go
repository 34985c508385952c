package repositories

import (
	"context"

	"github.com/devpath-io/devpath-service/internal/models"
	"gorm.io/gorm"
)

// CareerRepository interface for career selection operations
type CareerRepository interface {
	CreateSelection(ctx context.Context, tx *gorm.DB, selection *models.CareerSelection) error
	GetSelection(ctx context.Context, tx *gorm.DB, studentID string) (*models.CareerSelection, error)
	HasSelection(ctx context.Context, tx *gorm.DB, studentID string) (bool, error)
	DeleteSelection(ctx context.Context, tx *gorm.DB, studentID string) error
}

// RoadmapRepository interface for roadmap progress operations
type RoadmapRepository interface {
	Create(ctx context.Context, tx *gorm.DB, progress *models.RoadmapProgress) error
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) (*models.RoadmapProgress, error)
	Update(ctx context.Context, tx *gorm.DB, progress *models.RoadmapProgress) error
	DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID string) error
}

// NotificationRepository interface for in-app notification operations
type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters NotificationFilters) ([]*models.Notification, int64, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notification, error)
	MarkRead(ctx context.Context, tx *gorm.DB, id uint, userID string) error
	CountUnread(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}
