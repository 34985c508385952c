package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devpath-io/devpath-service/internal/cache"
	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ProfilePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProfilePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ProfileRepository {
	return &ProfilePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (p *ProfilePostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (p *ProfilePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	db := p.getDB(tx)
	cacheKey := fmt.Sprintf("profile:%s", id)
	var user models.User

	err := p.cacheManager.User.CacheOrExecute(ctx, cacheKey, &user, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		if err := db.WithContext(ctx).Where("id = ?", id).First(&dbUser).Error; err != nil {
			return nil, err
		}
		return &dbUser, nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *ProfilePostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	p.cacheManager.User.Delete(ctx, fmt.Sprintf("profile:%s", user.ID))
	return nil
}

// Upsert creates the profile row on first sight of a user, updates it otherwise
func (p *ProfilePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := p.getDB(tx)

	var existing models.User
	err := db.WithContext(ctx).Where("id = ?", user.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p.Create(ctx, tx, user)
	}
	if err != nil {
		return err
	}

	user.CreatedAt = existing.CreatedAt
	return p.Update(ctx, tx, user)
}

func (p *ProfilePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	p.cacheManager.User.Delete(ctx, fmt.Sprintf("profile:%s", id))
	return nil
}

// SetCareerSelection writes the denormalized career columns. Callers run
// this inside the same transaction that inserts the selection row.
func (p *ProfilePostgreSQL) SetCareerSelection(ctx context.Context, tx *gorm.DB, studentID, jobRole, category string, matchScore float64) error {
	db := p.getDB(tx)
	res := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", studentID).
		Updates(map[string]interface{}{
			"selected_job_role":  jobRole,
			"career_category":    category,
			"career_match_score": matchScore,
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to set career selection: %w", res.Error)
	}

	p.cacheManager.User.Delete(ctx, fmt.Sprintf("profile:%s", studentID))
	return nil
}

func (p *ProfilePostgreSQL) SetEmailVerified(ctx context.Context, tx *gorm.DB, id string, verified bool) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("email_verified", verified).Error; err != nil {
		return fmt.Errorf("failed to set email verified: %w", err)
	}

	p.cacheManager.User.Delete(ctx, fmt.Sprintf("profile:%s", id))
	return nil
}

func (p *ProfilePostgreSQL) ListIDs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	db := p.getDB(tx)
	var ids []string
	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list profile ids: %w", err)
	}
	return ids, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (p *ProfilePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
