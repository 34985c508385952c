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

type ResultPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewResultPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to create result: %w", err)
	}

	r.cacheManager.InvalidateStudentResults(ctx, result.StudentID)
	return nil
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	db := r.getDB(tx)
	var result models.Result
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	db := r.getDB(tx)
	var result models.Result
	if err := db.WithContext(ctx).
		Preload("Answers").
		Preload("Assessment").
		First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) Update(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(result).Error; err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}

	r.cacheManager.InvalidateStudentResults(ctx, result.StudentID)
	return nil
}

func (r *ResultPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	result, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Delete(&models.Result{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}

	r.cacheManager.InvalidateStudentResults(ctx, result.StudentID)
	return nil
}

// ===== ATTEMPT LOOKUPS =====

func (r *ResultPostgreSQL) GetActive(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.Result, error) {
	db := r.getDB(tx)
	var result models.Result
	if err := db.WithContext(ctx).
		Where("student_id = ? AND assessment_id = ? AND status = ?", studentID, assessmentID, models.ResultInProgress).
		Order("created_at DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) CountCompleted(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (int, error) {
	db := r.getDB(tx)
	count, err := r.helpers.CountCompletedResults(ctx, db, assessmentID, studentID)
	return int(count), err
}

// ===== QUERY OPERATIONS =====

func (r *ResultPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	db := r.getDB(tx)
	var results []*models.Result
	var total int64

	// apply filters first
	query := db.WithContext(ctx).Model(&models.Result{})
	query = r.helpers.ApplyResultFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Assessment").Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (r *ResultPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	filters.StudentID = &studentID
	return r.List(ctx, tx, filters)
}

func (r *ResultPostgreSQL) GetCompletedByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Result, error) {
	db := r.getDB(tx)
	cacheKey := fmt.Sprintf("student:%s:completed", studentID)
	var results []*models.Result

	err := r.cacheManager.Result.CacheOrExecute(ctx, cacheKey, &results, cache.ResultCacheConfig.TTL, func() (interface{}, error) {
		var dbResults []*models.Result
		if err := db.WithContext(ctx).
			Where("student_id = ? AND status = ?", studentID, models.ResultCompleted).
			Order("completed_at DESC").
			Find(&dbResults).Error; err != nil {
			return nil, fmt.Errorf("failed to get completed results: %w", err)
		}
		return dbResults, nil
	})

	return results, err
}

func (r *ResultPostgreSQL) GetCompletionDates(ctx context.Context, tx *gorm.DB, studentID string) ([]time.Time, error) {
	db := r.getDB(tx)
	var dates []time.Time
	if err := db.WithContext(ctx).
		Model(&models.Result{}).
		Where("student_id = ? AND status = ? AND completed_at IS NOT NULL", studentID, models.ResultCompleted).
		Order("completed_at DESC").
		Pluck("completed_at", &dates).Error; err != nil {
		return nil, fmt.Errorf("failed to get completion dates: %w", err)
	}
	return dates, nil
}

func (r *ResultPostgreSQL) GetRecentByStudent(ctx context.Context, tx *gorm.DB, studentID string, limit int) ([]*models.Result, error) {
	db := r.getDB(tx)
	var results []*models.Result
	if err := db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, models.ResultCompleted).
		Order("completed_at DESC").
		Limit(limit).
		Preload("Assessment").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ===== MAINTENANCE =====

func (r *ResultPostgreSQL) DeleteIncompleteByStudent(ctx context.Context, tx *gorm.DB, studentID string) (int64, error) {
	db := r.getDB(tx)
	res := db.WithContext(ctx).
		Where("student_id = ? AND status != ?", studentID, models.ResultCompleted).
		Delete(&models.Result{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete incomplete results: %w", res.Error)
	}

	r.cacheManager.InvalidateStudentResults(ctx, studentID)
	return res.RowsAffected, nil
}

func (r *ResultPostgreSQL) DeleteByAssessmentSlug(ctx context.Context, tx *gorm.DB, slug string) (int64, error) {
	db := r.getDB(tx)
	res := db.WithContext(ctx).
		Where("assessment_slug = ?", slug).
		Delete(&models.Result{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete results for %s: %w", slug, res.Error)
	}
	return res.RowsAffected, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== ANSWER REPOSITORY IMPLEMENTATION =====

type AnswerPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnswerPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Upsert creates or replaces the answer for (result_id, question_id)
func (ar *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.ResultAnswer) error {
	db := ar.getDB(tx)

	existing, err := ar.GetByResultAndQuestion(ctx, tx, answer.ResultID, answer.QuestionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check existing answer: %w", err)
	}

	if existing != nil {
		answer.ID = existing.ID
		answer.CreatedAt = existing.CreatedAt
		if err := db.WithContext(ctx).Save(answer).Error; err != nil {
			return fmt.Errorf("failed to update answer: %w", err)
		}
	} else {
		if err := db.WithContext(ctx).Create(answer).Error; err != nil {
			return fmt.Errorf("failed to create answer: %w", err)
		}
	}

	ar.cacheManager.Fast.Delete(ctx,
		fmt.Sprintf("result:%d:answers", answer.ResultID),
		fmt.Sprintf("result:%d:question:%d", answer.ResultID, answer.QuestionID),
	)

	return nil
}

func (ar *AnswerPostgreSQL) GetByResult(ctx context.Context, tx *gorm.DB, resultID uint) ([]*models.ResultAnswer, error) {
	db := ar.getDB(tx)
	cacheKey := fmt.Sprintf("result:%d:answers", resultID)
	var answers []*models.ResultAnswer

	err := ar.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &answers, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbAnswers []*models.ResultAnswer
		if err := db.WithContext(ctx).
			Where("result_id = ?", resultID).
			Order("question_id ASC").
			Find(&dbAnswers).Error; err != nil {
			return nil, fmt.Errorf("failed to get answers by result: %w", err)
		}
		return dbAnswers, nil
	})

	return answers, err
}

func (ar *AnswerPostgreSQL) GetByResultAndQuestion(ctx context.Context, tx *gorm.DB, resultID, questionID uint) (*models.ResultAnswer, error) {
	db := ar.getDB(tx)
	var answer models.ResultAnswer
	if err := db.WithContext(ctx).
		Where("result_id = ? AND question_id = ?", resultID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (ar *AnswerPostgreSQL) CountByResult(ctx context.Context, tx *gorm.DB, resultID uint) (int, error) {
	db := ar.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.ResultAnswer{}).
		Where("result_id = ?", resultID).
		Count(&count).Error
	return int(count), err
}

func (ar *AnswerPostgreSQL) DeleteByResult(ctx context.Context, tx *gorm.DB, resultID uint) error {
	db := ar.getDB(tx)
	if err := db.WithContext(ctx).
		Where("result_id = ?", resultID).
		Delete(&models.ResultAnswer{}).Error; err != nil {
		return fmt.Errorf("failed to delete answers: %w", err)
	}

	ar.cacheManager.Fast.InvalidatePattern(ctx, fmt.Sprintf("result:%d:*", resultID))
	return nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (ar *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}
