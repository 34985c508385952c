package repositories

import (
	"context"

	"github.com/devpath-io/devpath-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository interface for identity provider lookups (read-only,
// the identity provider owns this data)
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	// List and search operations
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)

	// Validation and checks
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}

// ProfileRepository interface for the locally stored user profile row,
// including the denormalized career selection columns
type ProfileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Upsert(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	// Career denormalization, written in the same transaction as the
	// career_selections row
	SetCareerSelection(ctx context.Context, tx *gorm.DB, studentID, jobRole, category string, matchScore float64) error

	SetEmailVerified(ctx context.Context, tx *gorm.DB, id string, verified bool) error

	// Maintenance
	ListIDs(ctx context.Context, tx *gorm.DB) ([]string, error)
}
