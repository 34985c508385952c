package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type assessmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	business  *validator.BusinessValidator
}

func NewAssessmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) AssessmentService {
	return &assessmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		business:  validator.NewBusinessValidator(v),
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, req *CreateAssessmentRequest, creatorID string) (*AssessmentResponse, error) {
	s.logger.Info("Creating assessment", "slug", req.Slug, "creator_id", creatorID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	exists, err := s.repo.Assessment().ExistsBySlug(ctx, nil, req.Slug, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return nil, ErrSlugTaken
	}

	assessment := &models.Assessment{
		Slug:            req.Slug,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Mode:            req.Mode,
		ScoreScale:      req.ScoreScale,
		Status:          models.StatusDraft,
		MaxAttempts:     req.MaxAttempts,
		ModelQuestionID: req.ModelQuestionID,
		CreatedBy:       creatorID,
	}
	if assessment.Mode == "" {
		assessment.Mode = models.ModeScored
	}
	if assessment.ScoreScale == "" {
		assessment.ScoreScale = models.ScalePercent
	}
	if assessment.MaxAttempts == 0 {
		assessment.MaxAttempts = 2
	}

	if err := s.repo.Assessment().Create(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.logger.Info("Assessment created", "assessment_id", assessment.ID, "slug", assessment.Slug)

	return s.buildResponse(ctx, assessment, creatorID), nil
}

func (s *assessmentService) GetByID(ctx context.Context, id uint, userID string) (*AssessmentResponse, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return s.buildResponse(ctx, assessment, userID), nil
}

func (s *assessmentService) GetBySlug(ctx context.Context, slug string, userID string) (*AssessmentResponse, error) {
	assessment, err := s.repo.Assessment().GetBySlug(ctx, nil, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return s.buildResponse(ctx, assessment, userID), nil
}

func (s *assessmentService) GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*AssessmentResponse, error) {
	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment with questions: %w", err)
	}

	return s.buildResponse(ctx, assessment, userID), nil
}

func (s *assessmentService) Update(ctx context.Context, id uint, req *UpdateAssessmentRequest, userID string) (*AssessmentResponse, error) {
	s.logger.Info("Updating assessment", "assessment_id", id, "user_id", userID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if req.Title != nil {
		assessment.Title = *req.Title
	}
	if req.Description != nil {
		assessment.Description = req.Description
	}
	if req.Category != nil {
		assessment.Category = *req.Category
	}
	if req.Mode != nil {
		assessment.Mode = *req.Mode
	}
	if req.ScoreScale != nil {
		assessment.ScoreScale = *req.ScoreScale
	}
	if req.MaxAttempts != nil {
		assessment.MaxAttempts = *req.MaxAttempts
	}
	if req.ModelQuestionID != nil {
		assessment.ModelQuestionID = req.ModelQuestionID
	}
	assessment.Version++

	if err := s.repo.Assessment().Update(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	return s.buildResponse(ctx, assessment, userID), nil
}

func (s *assessmentService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting assessment", "assessment_id", id, "user_id", userID)

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}

	hasResults, err := s.repo.Assessment().HasResults(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to check results: %w", err)
	}

	if errs := s.business.ValidateDeletePermission(hasResults, assessment.Status); errs.HasErrors() {
		return fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Question().DeleteByAssessment(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete questions: %w", err)
		}
		if err := txRepo.Assessment().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete assessment: %w", err)
		}
		return nil
	})
}

// ===== LIST OPERATIONS =====

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters, userID string) (*AssessmentListResponse, error) {
	assessments, total, err := s.repo.Assessment().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	responses := make([]*AssessmentResponse, len(assessments))
	for i, assessment := range assessments {
		responses[i] = s.buildResponse(ctx, assessment, userID)
	}

	page := 0
	size := len(responses)
	if filters.Limit > 0 {
		size = filters.Limit
		page = filters.Offset / filters.Limit
	}

	return &AssessmentListResponse{
		Assessments: responses,
		Total:       total,
		Page:        page,
		Size:        size,
	}, nil
}

func (s *assessmentService) GetActive(ctx context.Context) ([]*models.Assessment, error) {
	assessments, err := s.repo.Assessment().GetActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get active assessments: %w", err)
	}
	return assessments, nil
}

// ===== STATUS MANAGEMENT =====

func (s *assessmentService) UpdateStatus(ctx context.Context, id uint, req *ChangeStatusRequest, userID string) (*models.StatusChangeResponse, error) {
	s.logger.Info("Changing assessment status", "assessment_id", id, "new_status", req.Status, "user_id", userID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	questionCount, err := s.repo.Question().CountByAssessment(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	if errs := s.business.ValidateStatusTransition(assessment.Status, req.Status, questionCount); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	oldStatus := assessment.Status
	if err := s.repo.Assessment().UpdateStatus(ctx, nil, id, req.Status); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	return &models.StatusChangeResponse{
		OldStatus: oldStatus,
		NewStatus: req.Status,
		ChangedAt: time.Now(),
		ChangedBy: userID,
		Reason:    req.Reason,
	}, nil
}

func (s *assessmentService) Publish(ctx context.Context, id uint, userID string) error {
	_, err := s.UpdateStatus(ctx, id, &ChangeStatusRequest{Status: models.StatusActive}, userID)
	return err
}

func (s *assessmentService) Archive(ctx context.Context, id uint, userID string) error {
	_, err := s.UpdateStatus(ctx, id, &ChangeStatusRequest{Status: models.StatusArchived}, userID)
	return err
}

// ===== QUESTION MANAGEMENT =====

func (s *assessmentService) AddQuestion(ctx context.Context, assessmentID uint, req *CreateQuestionRequest, userID string) (*models.Question, error) {
	s.logger.Info("Adding question", "assessment_id", assessmentID, "user_id", userID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	if _, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	question := &models.Question{
		AssessmentID: assessmentID,
		Type:         req.Type,
		Prompt:       req.Prompt,
		Order:        req.Order,
		Points:       req.Points,
		Content:      datatypes.JSON(req.Content),
	}
	if question.Points == 0 {
		question.Points = 10
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	return question, nil
}

func (s *assessmentService) UpdateQuestion(ctx context.Context, assessmentID, questionID uint, req *UpdateQuestionRequest, userID string) (*models.Question, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.AssessmentID != assessmentID {
		return nil, NewPermissionError(userID, questionID, "question", "update", "question belongs to another assessment")
	}

	if req.Prompt != nil {
		question.Prompt = *req.Prompt
	}
	if req.Order != nil {
		question.Order = *req.Order
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if len(req.Content) > 0 {
		question.Content = datatypes.JSON(req.Content)
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	return question, nil
}

func (s *assessmentService) RemoveQuestion(ctx context.Context, assessmentID, questionID uint, userID string) error {
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.AssessmentID != assessmentID {
		return NewPermissionError(userID, questionID, "question", "delete", "question belongs to another assessment")
	}

	return s.repo.Question().Delete(ctx, nil, questionID)
}

// ===== STATISTICS =====

func (s *assessmentService) GetStats(ctx context.Context, id uint, userID string) (*repositories.AssessmentStats, error) {
	stats, err := s.repo.Assessment().GetStats(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment stats: %w", err)
	}
	return stats, nil
}

// ===== HELPERS =====

func (s *assessmentService) buildResponse(ctx context.Context, assessment *models.Assessment, userID string) *AssessmentResponse {
	isOwner := assessment.CreatedBy == userID
	return &AssessmentResponse{
		Assessment: assessment,
		CanEdit:    isOwner,
		CanDelete:  isOwner && assessment.Status != models.StatusActive,
		CanTake:    assessment.Status == models.StatusActive,
	}
}
