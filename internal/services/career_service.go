package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/prediction"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/validator"
	"gorm.io/gorm"
)

type careerService struct {
	repo       repositories.Repository
	db         *gorm.DB
	logger     *slog.Logger
	validator  *validator.Validator
	predictor  prediction.Client
	notifier   NotificationService
	roadmapSvc RoadmapService
}

func NewCareerService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, predictor prediction.Client, notifier NotificationService, roadmapSvc RoadmapService) CareerService {
	return &careerService{
		repo:       repo,
		db:         db,
		logger:     logger,
		validator:  v,
		predictor:  predictor,
		notifier:   notifier,
		roadmapSvc: roadmapSvc,
	}
}

// ===== MATCHES =====

func (s *careerService) GetMatches(ctx context.Context, studentID string) (*CareerMatchesResponse, error) {
	s.logger.Info("Requesting career matches", "student_id", studentID)

	completed, err := s.repo.Result().GetCompletedByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed results: %w", err)
	}

	catalog, err := s.repo.Assessment().GetActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	best := reduceBestResults(completed)
	features := buildFeatures(best, catalog)

	resp, err := s.predictor.Predict(ctx, features)
	if err != nil {
		// One generic failure regardless of cause. No retry, no partial
		// result.
		s.logger.Warn("Prediction request failed", "student_id", studentID, "error", err)
		return nil, ErrPredictionUnavailable
	}

	selected, err := s.currentSelection(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return &CareerMatchesResponse{
		Matches:  resp.Recommendations.JobMatches,
		Selected: selected,
	}, nil
}

// ===== SELECTION =====

func (s *careerService) GetSelection(ctx context.Context, studentID string) (*models.CareerSelection, error) {
	selection, err := s.repo.Career().GetSelection(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSelectionNotFound
		}
		return nil, fmt.Errorf("failed to get career selection: %w", err)
	}
	return selection, nil
}

func (s *careerService) SelectCareer(ctx context.Context, req *SelectCareerRequest, studentID string) (*models.CareerSelection, error) {
	s.logger.Info("Selecting career", "student_id", studentID, "job_role", req.JobRole)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	exists, err := s.repo.Career().HasSelection(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing selection: %w", err)
	}
	if exists {
		return nil, ErrCareerAlreadySelected
	}

	selection := &models.CareerSelection{
		StudentID:  studentID,
		JobRole:    req.JobRole,
		Category:   req.Category,
		MatchScore: req.MatchScore,
		SelectedAt: time.Now(),
	}

	// Selection row and profile denormalization commit together. A crash
	// can no longer leave the profile pointing at a career that was never
	// recorded.
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Career().CreateSelection(ctx, nil, selection); err != nil {
			return fmt.Errorf("failed to create selection: %w", err)
		}
		if err := txRepo.Profile().SetCareerSelection(ctx, nil, studentID, req.JobRole, req.Category, req.MatchScore); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Career selected", "student_id", studentID, "job_role", req.JobRole)

	// Post-commit side effects are best-effort and never undo the
	// selection.
	s.afterSelection(ctx, studentID, selection)

	return selection, nil
}

func (s *careerService) afterSelection(ctx context.Context, studentID string, selection *models.CareerSelection) {
	if s.notifier != nil {
		student, err := s.repo.Profile().GetByID(ctx, nil, studentID)
		if err != nil {
			s.logger.Warn("Failed to load profile for selection notification", "student_id", studentID, "error", err)
		} else if err := s.notifier.CareerSelected(ctx, student, selection); err != nil {
			s.logger.Warn("Failed to send selection notification", "student_id", studentID, "error", err)
		}
	}

	if s.roadmapSvc != nil {
		if _, err := s.roadmapSvc.InitializeForCareer(ctx, studentID, selection.JobRole); err != nil {
			s.logger.Warn("Failed to initialize roadmap", "student_id", studentID, "error", err)
		}
	}
}

func (s *careerService) currentSelection(ctx context.Context, studentID string) (*models.CareerSelection, error) {
	selection, err := s.repo.Career().GetSelection(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get career selection: %w", err)
	}
	return selection, nil
}
