package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/validator"
	"gorm.io/gorm"
)

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	business  *validator.BusinessValidator
	notifier  NotificationService
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, notifier NotificationService) AttemptService {
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		business:  validator.NewBusinessValidator(v),
		notifier:  notifier,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting attempt", "slug", req.Slug, "student_id", studentID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	assessment, err := s.getAssessmentBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}

	// Only completed attempts consume slots; abandoned runs do not.
	completed, err := s.repo.Result().CountCompleted(ctx, nil, studentID, assessment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed attempts: %w", err)
	}

	if errs := s.business.ValidateAttemptStart(assessment.Status, completed, assessment.MaxAttempts); errs.HasErrors() {
		if assessment.Status != models.StatusActive {
			return nil, ErrAssessmentNotActive
		}
		return nil, ErrAttemptLimitReached
	}

	// Resume an open attempt instead of stacking a second one.
	if active, err := s.repo.Result().GetActive(ctx, nil, studentID, assessment.ID); err == nil && active != nil {
		s.logger.Info("Resuming open attempt", "result_id", active.ID, "student_id", studentID)
		return s.buildAttemptResponse(ctx, active, assessment, completed), nil
	} else if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up open attempt: %w", err)
	}

	now := time.Now()
	result := &models.Result{
		AssessmentID:   assessment.ID,
		StudentID:      studentID,
		AttemptNumber:  completed + 1,
		AssessmentSlug: assessment.Slug,
		Category:       assessment.Category,
		Status:         models.ResultInProgress,
		ScoreScale:     assessment.ScoreScale,
		StartedAt:      &now,
	}

	if err := s.repo.Result().Create(ctx, nil, result); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.Info("Attempt started",
		"result_id", result.ID,
		"slug", assessment.Slug,
		"attempt_number", result.AttemptNumber,
		"student_id", studentID)

	return s.buildAttemptResponse(ctx, result, assessment, completed), nil
}

func (s *attemptService) SaveAnswer(ctx context.Context, resultID uint, req *SaveAnswerRequest, studentID string) error {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	result, err := s.getOwnedResult(ctx, resultID, studentID, "save_answer")
	if err != nil {
		return err
	}
	if result.Status != models.ResultInProgress {
		return ErrAttemptNotActive
	}

	question, err := s.repo.Question().GetByID(ctx, nil, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.AssessmentID != result.AssessmentID {
		return NewPermissionError(studentID, req.QuestionID, "question", "answer", "question belongs to another assessment")
	}

	answer, err := buildAnswer(result.ID, question, req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	}

	if err := s.repo.Answer().Upsert(ctx, nil, answer); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	s.logger.Debug("Answer saved", "result_id", resultID, "question_id", req.QuestionID)
	return nil
}

func (s *attemptService) Submit(ctx context.Context, req *SubmitAttemptRequest, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Submitting attempt", "result_id", req.ResultID, "student_id", studentID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	result, err := s.getOwnedResult(ctx, req.ResultID, studentID, "submit")
	if err != nil {
		return nil, err
	}
	if result.Status == models.ResultCompleted {
		return nil, ErrAttemptAlreadySubmitted
	}
	if result.Status != models.ResultInProgress {
		return nil, ErrAttemptNotActive
	}

	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, nil, result.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	// A rejected submission must leave no trace. Everything below happens
	// in one transaction so late answers roll back with the rejection.
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for i := range req.Answers {
			answerReq := req.Answers[i]
			question := questionByID(assessment.Questions, answerReq.QuestionID)
			if question == nil {
				return fmt.Errorf("%w: question %d not in assessment", ErrValidationFailed, answerReq.QuestionID)
			}
			answer, err := buildAnswer(result.ID, question, &answerReq)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
			}
			if err := txRepo.Answer().Upsert(ctx, nil, answer); err != nil {
				return fmt.Errorf("failed to save answer for question %d: %w", answerReq.QuestionID, err)
			}
		}

		answers, err := txRepo.Answer().GetByResult(ctx, nil, result.ID)
		if err != nil {
			return fmt.Errorf("failed to load answers: %w", err)
		}

		if unanswered := countUnanswered(assessment.Questions, answers); unanswered > 0 {
			return &UnansweredError{Count: unanswered}
		}

		score, graded, err := gradeAttempt(assessment, answers)
		if err != nil {
			return fmt.Errorf("failed to grade attempt: %w", err)
		}
		for _, answer := range graded {
			if err := txRepo.Answer().Upsert(ctx, nil, answer); err != nil {
				return fmt.Errorf("failed to store grading: %w", err)
			}
		}

		now := time.Now()
		result.Status = models.ResultCompleted
		result.CompletedAt = &now
		result.Score = score
		result.ScoreScale = assessment.ScoreScale
		result.ModelValue = extractModelValue(assessment, answers)

		if err := txRepo.Result().Update(ctx, nil, result); err != nil {
			return fmt.Errorf("failed to complete attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		var unanswered *UnansweredError
		if errors.As(err, &unanswered) {
			return nil, unanswered
		}
		return nil, err
	}

	s.logger.Info("Attempt submitted",
		"result_id", result.ID,
		"slug", result.AssessmentSlug,
		"score", result.Score,
		"student_id", studentID)

	// Best-effort: a failed notification never fails the submission.
	if s.notifier != nil {
		if err := s.notifier.AssessmentCompleted(ctx, result); err != nil {
			s.logger.Warn("Failed to send completion notification", "result_id", result.ID, "error", err)
		}
	}

	completed, err := s.repo.Result().CountCompleted(ctx, nil, studentID, result.AssessmentID)
	if err != nil {
		completed = result.AttemptNumber
	}

	return s.buildAttemptResponse(ctx, result, assessment, completed), nil
}

func (s *attemptService) Abandon(ctx context.Context, resultID uint, studentID string) error {
	result, err := s.getOwnedResult(ctx, resultID, studentID, "abandon")
	if err != nil {
		return err
	}
	if result.Status != models.ResultInProgress {
		return ErrAttemptNotActive
	}

	// Abandoned attempts keep their answers for audit but never count
	// against the attempt limit.
	result.Status = models.ResultAbandoned
	if err := s.repo.Result().Update(ctx, nil, result); err != nil {
		return fmt.Errorf("failed to abandon attempt: %w", err)
	}

	s.logger.Info("Attempt abandoned", "result_id", resultID, "student_id", studentID)
	return nil
}

// ===== GET OPERATIONS =====

func (s *attemptService) GetByID(ctx context.Context, id uint, userID string) (*AttemptResponse, error) {
	result, err := s.repo.Result().GetByIDWithAnswers(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if result.StudentID != userID {
		isAdvisor, err := s.repo.User().HasRole(ctx, userID, models.RoleAdvisor)
		if err != nil || !isAdvisor {
			return nil, NewPermissionError(userID, id, "attempt", "read", "not owner")
		}
	}

	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, nil, result.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	completed, err := s.repo.Result().CountCompleted(ctx, nil, result.StudentID, result.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed attempts: %w", err)
	}

	return s.buildAttemptResponse(ctx, result, assessment, completed), nil
}

func (s *attemptService) GetCurrent(ctx context.Context, slug string, studentID string) (*AttemptResponse, error) {
	assessment, err := s.getAssessmentBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.Result().GetActive(ctx, nil, studentID, assessment.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get open attempt: %w", err)
	}

	completed, err := s.repo.Result().CountCompleted(ctx, nil, studentID, assessment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed attempts: %w", err)
	}

	return s.buildAttemptResponse(ctx, result, assessment, completed), nil
}

// ===== LIST OPERATIONS =====

func (s *attemptService) ListByStudent(ctx context.Context, studentID string, filters repositories.ResultFilters) ([]*AttemptResponse, int64, error) {
	results, total, err := s.repo.Result().GetByStudent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	responses := make([]*AttemptResponse, len(results))
	for i, result := range results {
		responses[i] = &AttemptResponse{Result: result}
	}
	return responses, total, nil
}

// ===== VALIDATION =====

func (s *attemptService) CanStart(ctx context.Context, slug string, studentID string) (bool, error) {
	assessment, err := s.getAssessmentBySlug(ctx, slug)
	if err != nil {
		return false, err
	}

	completed, err := s.repo.Result().CountCompleted(ctx, nil, studentID, assessment.ID)
	if err != nil {
		return false, fmt.Errorf("failed to count completed attempts: %w", err)
	}

	errs := s.business.ValidateAttemptStart(assessment.Status, completed, assessment.MaxAttempts)
	return !errs.HasErrors(), nil
}

func (s *attemptService) GetAttemptCount(ctx context.Context, assessmentID uint, studentID string) (int, error) {
	return s.repo.Result().CountCompleted(ctx, nil, studentID, assessmentID)
}

// ===== HELPERS =====

func (s *attemptService) getAssessmentBySlug(ctx context.Context, slug string) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetBySlug(ctx, nil, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return assessment, nil
}

func (s *attemptService) getOwnedResult(ctx context.Context, resultID uint, studentID, action string) (*models.Result, error) {
	result, err := s.repo.Result().GetByID(ctx, nil, resultID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if result.StudentID != studentID {
		return nil, NewPermissionError(studentID, resultID, "attempt", action, "not owner")
	}
	return result, nil
}

func (s *attemptService) buildAttemptResponse(ctx context.Context, result *models.Result, assessment *models.Assessment, completed int) *AttemptResponse {
	questions := assessment.Questions
	if len(questions) == 0 {
		loaded, err := s.repo.Question().GetByAssessment(ctx, nil, assessment.ID)
		if err == nil {
			questions = make([]models.Question, len(loaded))
			for i, q := range loaded {
				questions[i] = *q
			}
		}
	}

	remaining := assessment.MaxAttempts - completed
	if remaining < 0 {
		remaining = 0
	}

	out := &AttemptResponse{
		Result:            result,
		CanSubmit:         result.Status == models.ResultInProgress,
		RemainingAttempts: remaining,
	}
	if result.Status == models.ResultInProgress {
		out.Questions = make([]*models.Question, len(questions))
		for i := range questions {
			out.Questions[i] = &questions[i]
		}
	}
	return out
}
