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

type AssessmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAssessmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== BASIC CRUD OPERATIONS =====

func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	a.cacheManager.InvalidateAssessment(ctx, assessment.ID, assessment.Slug)
	return nil
}

func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	db := a.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var assessment models.Assessment

	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cacheKey, &assessment, cache.AssessmentCacheConfig.TTL, func() (interface{}, error) {
		var dbAssessment models.Assessment
		if err := db.WithContext(ctx).First(&dbAssessment, id).Error; err != nil {
			return nil, err
		}
		return &dbAssessment, nil
	})

	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	db := a.getDB(tx)
	var assessment models.Assessment
	if err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.\"order\" ASC, questions.id ASC")
		}).
		First(&assessment, id).Error; err != nil {
		return nil, err
	}
	assessment.QuestionsCount = len(assessment.Questions)
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Assessment, error) {
	db := a.getDB(tx)
	cacheKey := fmt.Sprintf("slug:%s", slug)
	var assessment models.Assessment

	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cacheKey, &assessment, cache.AssessmentCacheConfig.TTL, func() (interface{}, error) {
		var dbAssessment models.Assessment
		if err := db.WithContext(ctx).Where("slug = ?", slug).First(&dbAssessment).Error; err != nil {
			return nil, err
		}
		return &dbAssessment, nil
	})

	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Save(assessment).Error; err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}

	a.cacheManager.InvalidateAssessment(ctx, assessment.ID, assessment.Slug)
	return nil
}

func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx)
	assessment, err := a.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Delete(&models.Assessment{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	a.cacheManager.InvalidateAssessment(ctx, id, assessment.Slug)
	return nil
}

// ===== QUERY OPERATIONS =====

func (a *AssessmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	db := a.getDB(tx)
	var assessments []*models.Assessment
	var total int64

	// apply filters first
	query := db.WithContext(ctx).Model(&models.Assessment{})
	query = a.helpers.ApplyAssessmentFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&assessments).Error; err != nil {
		return nil, 0, err
	}

	return assessments, total, nil
}

func (a *AssessmentPostgreSQL) GetActive(ctx context.Context, tx *gorm.DB) ([]*models.Assessment, error) {
	db := a.getDB(tx)
	cacheKey := "active:all"
	var assessments []*models.Assessment

	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cacheKey, &assessments, cache.AssessmentCacheConfig.TTL, func() (interface{}, error) {
		var dbAssessments []*models.Assessment
		if err := db.WithContext(ctx).
			Where("status = ?", models.StatusActive).
			Order("category ASC, slug ASC").
			Find(&dbAssessments).Error; err != nil {
			return nil, err
		}
		return dbAssessments, nil
	})

	return assessments, err
}

func (a *AssessmentPostgreSQL) GetActiveByCategory(ctx context.Context, tx *gorm.DB, category models.AssessmentCategory) ([]*models.Assessment, error) {
	db := a.getDB(tx)
	var assessments []*models.Assessment
	if err := db.WithContext(ctx).
		Where("status = ? AND category = ?", models.StatusActive, category).
		Order("slug ASC").
		Find(&assessments).Error; err != nil {
		return nil, err
	}
	return assessments, nil
}

// CountActiveByCategory returns catalog totals per category. Every known
// category is present in the map, zero when no active assessments exist.
func (a *AssessmentPostgreSQL) CountActiveByCategory(ctx context.Context, tx *gorm.DB) (map[models.AssessmentCategory]int, error) {
	db := a.getDB(tx)

	var rows []struct {
		Category models.AssessmentCategory
		Count    int
	}
	if err := db.WithContext(ctx).
		Model(&models.Assessment{}).
		Select("category, COUNT(*) as count").
		Where("status = ?", models.StatusActive).
		Group("category").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count active assessments: %w", err)
	}

	totals := make(map[models.AssessmentCategory]int, len(models.Categories))
	for _, c := range models.Categories {
		totals[c] = 0
	}
	for _, row := range rows {
		totals[row.Category] = row.Count
	}

	return totals, nil
}

// ===== STATUS MANAGEMENT =====

func (a *AssessmentPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AssessmentStatus) error {
	db := a.getDB(tx)
	assessment, err := a.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update assessment status: %w", err)
	}

	a.cacheManager.InvalidateAssessment(ctx, id, assessment.Slug)
	return nil
}

// UpsertBySlug creates the assessment or updates the existing row with the
// same slug, bumping its version
func (a *AssessmentPostgreSQL) UpsertBySlug(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) (bool, error) {
	db := a.getDB(tx)

	var existing models.Assessment
	err := db.WithContext(ctx).Where("slug = ?", assessment.Slug).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.WithContext(ctx).Create(assessment).Error; err != nil {
			return false, fmt.Errorf("failed to create assessment %s: %w", assessment.Slug, err)
		}
		a.cacheManager.InvalidateAssessment(ctx, assessment.ID, assessment.Slug)
		return true, nil
	}
	if err != nil {
		return false, err
	}

	assessment.ID = existing.ID
	assessment.Version = existing.Version + 1
	assessment.CreatedAt = existing.CreatedAt
	if err := db.WithContext(ctx).Save(assessment).Error; err != nil {
		return false, fmt.Errorf("failed to update assessment %s: %w", assessment.Slug, err)
	}

	a.cacheManager.InvalidateAssessment(ctx, assessment.ID, assessment.Slug)
	return false, nil
}

// ===== VALIDATION AND CHECKS =====

func (a *AssessmentPostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error) {
	db := a.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Assessment{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *AssessmentPostgreSQL) HasResults(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := a.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Result{}).
		Where("assessment_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ===== STATISTICS =====

func (a *AssessmentPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.AssessmentStats, error) {
	db := a.getDB(tx)
	cacheKey := fmt.Sprintf("assessment:%d", id)
	var stats repositories.AssessmentStats

	err := a.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var s repositories.AssessmentStats

		var total, completed int64
		if err := db.WithContext(ctx).
			Model(&models.Result{}).
			Where("assessment_id = ?", id).
			Count(&total).Error; err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).
			Model(&models.Result{}).
			Where("assessment_id = ? AND status = ?", id, models.ResultCompleted).
			Count(&completed).Error; err != nil {
			return nil, err
		}

		var avgScore float64
		if err := db.WithContext(ctx).
			Model(&models.Result{}).
			Where("assessment_id = ? AND status = ?", id, models.ResultCompleted).
			Select("COALESCE(AVG(score), 0)").
			Scan(&avgScore).Error; err != nil {
			return nil, err
		}

		var questionCount int64
		var totalPoints int64
		if err := db.WithContext(ctx).
			Model(&models.Question{}).
			Where("assessment_id = ?", id).
			Count(&questionCount).Error; err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).
			Model(&models.Question{}).
			Where("assessment_id = ?", id).
			Select("COALESCE(SUM(points), 0)").
			Scan(&totalPoints).Error; err != nil {
			return nil, err
		}

		s.TotalResults = int(total)
		s.CompletedResults = int(completed)
		s.AverageScore = avgScore
		s.QuestionCount = int(questionCount)
		s.TotalPoints = int(totalPoints)
		return &s, nil
	})

	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AssessmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// ===== QUESTION REPOSITORY IMPLEMENTATION =====

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	q.cacheManager.Fast.Delete(ctx, fmt.Sprintf("assessment:%d:questions", question.AssessmentID))
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	q.cacheManager.Fast.Delete(ctx, fmt.Sprintf("assessment:%d:questions", question.AssessmentID))
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	question, err := q.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Delete(&models.Question{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	q.cacheManager.Fast.Delete(ctx, fmt.Sprintf("assessment:%d:questions", question.AssessmentID))
	return nil
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}

	assessmentIDs := make(map[uint]bool)
	for _, question := range questions {
		assessmentIDs[question.AssessmentID] = true
	}
	for assessmentID := range assessmentIDs {
		q.cacheManager.Fast.Delete(ctx, fmt.Sprintf("assessment:%d:questions", assessmentID))
	}

	return nil
}

func (q *QuestionPostgreSQL) DeleteByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Delete(&models.Question{}).Error; err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}

	q.cacheManager.Fast.Delete(ctx, fmt.Sprintf("assessment:%d:questions", assessmentID))
	return nil
}

func (q *QuestionPostgreSQL) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("assessment:%d:questions", assessmentID)
	var questions []*models.Question

	err := q.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &questions, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestions []*models.Question
		if err := db.WithContext(ctx).
			Where("assessment_id = ?", assessmentID).
			Order("\"order\" ASC, id ASC").
			Find(&dbQuestions).Error; err != nil {
			return nil, fmt.Errorf("failed to get questions by assessment: %w", err)
		}
		return dbQuestions, nil
	})

	return questions, err
}

func (q *QuestionPostgreSQL) CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("assessment_id = ?", assessmentID).
		Count(&count).Error
	return int(count), err
}

func (q *QuestionPostgreSQL) TotalPoints(ctx context.Context, tx *gorm.DB, assessmentID uint) (int, error) {
	db := q.getDB(tx)
	var total int64
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("assessment_id = ?", assessmentID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return int(total), err
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
