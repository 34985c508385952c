package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/devpath-io/devpath-service/internal/cache"
	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CareerPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCareerPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CareerRepository {
	return &CareerPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CareerPostgreSQL) CreateSelection(ctx context.Context, tx *gorm.DB, selection *models.CareerSelection) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Create(selection).Error; err != nil {
		return fmt.Errorf("failed to create career selection: %w", err)
	}

	c.cacheManager.Fast.Delete(ctx, fmt.Sprintf("career:selection:%s", selection.StudentID))
	return nil
}

func (c *CareerPostgreSQL) GetSelection(ctx context.Context, tx *gorm.DB, studentID string) (*models.CareerSelection, error) {
	db := c.getDB(tx)
	cacheKey := fmt.Sprintf("career:selection:%s", studentID)
	var selection models.CareerSelection

	err := c.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &selection, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbSelection models.CareerSelection
		if err := db.WithContext(ctx).
			Where("student_id = ?", studentID).
			First(&dbSelection).Error; err != nil {
			return nil, err
		}
		return &dbSelection, nil
	})

	if err != nil {
		return nil, err
	}
	return &selection, nil
}

func (c *CareerPostgreSQL) HasSelection(ctx context.Context, tx *gorm.DB, studentID string) (bool, error) {
	db := c.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.CareerSelection{}).
		Where("student_id = ?", studentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *CareerPostgreSQL) DeleteSelection(ctx context.Context, tx *gorm.DB, studentID string) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&models.CareerSelection{}).Error; err != nil {
		return fmt.Errorf("failed to delete career selection: %w", err)
	}

	c.cacheManager.Fast.Delete(ctx, fmt.Sprintf("career:selection:%s", studentID))
	return nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (c *CareerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// ===== ROADMAP REPOSITORY IMPLEMENTATION =====

type RoadmapPostgreSQL struct {
	db *gorm.DB
}

func NewRoadmapPostgreSQL(db *gorm.DB) repositories.RoadmapRepository {
	return &RoadmapPostgreSQL{db: db}
}

func (r *RoadmapPostgreSQL) Create(ctx context.Context, tx *gorm.DB, progress *models.RoadmapProgress) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(progress).Error; err != nil {
		return fmt.Errorf("failed to create roadmap progress: %w", err)
	}
	return nil
}

func (r *RoadmapPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) (*models.RoadmapProgress, error) {
	db := r.getDB(tx)
	var progress models.RoadmapProgress
	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *RoadmapPostgreSQL) Update(ctx context.Context, tx *gorm.DB, progress *models.RoadmapProgress) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(progress).Error; err != nil {
		return fmt.Errorf("failed to update roadmap progress: %w", err)
	}
	return nil
}

func (r *RoadmapPostgreSQL) DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID string) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&models.RoadmapProgress{}).Error; err != nil {
		return fmt.Errorf("failed to delete roadmap progress: %w", err)
	}
	return nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *RoadmapPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== NOTIFICATION REPOSITORY IMPLEMENTATION =====

type NotificationPostgreSQL struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{db: db}
}

func (n *NotificationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	db := n.getDB(tx)
	if err := db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (n *NotificationPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	db := n.getDB(tx)
	var notifications []*models.Notification
	var total int64

	query := db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if filters.UnreadOnly {
		query = query.Where("read = false")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (n *NotificationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notification, error) {
	db := n.getDB(tx)
	var notification models.Notification
	if err := db.WithContext(ctx).First(&notification, id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// MarkRead marks a notification as read, scoped to its owner
func (n *NotificationPostgreSQL) MarkRead(ctx context.Context, tx *gorm.DB, id uint, userID string) error {
	db := n.getDB(tx)
	res := db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New("notification not found")
	}
	return nil
}

func (n *NotificationPostgreSQL) CountUnread(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	db := n.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Count(&count).Error
	return count, err
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (n *NotificationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return n.db
}
