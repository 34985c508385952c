package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type roadmapService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewRoadmapService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) RoadmapService {
	return &roadmapService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
	}
}

// defaultSteps is the starter roadmap snapshotted at selection time.
// Catalog edits after selection never shift a student's progress.
var defaultSteps = []models.RoadmapStep{
	{ID: "foundations", Title: "Build the foundations"},
	{ID: "core-skills", Title: "Master the core skills"},
	{ID: "portfolio", Title: "Ship a portfolio project"},
	{ID: "internship", Title: "Land an internship"},
	{ID: "interview-prep", Title: "Prepare for interviews"},
}

func (s *roadmapService) Get(ctx context.Context, studentID string) (*models.RoadmapProgress, error) {
	progress, err := s.repo.Roadmap().GetByStudent(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRoadmapNotFound
		}
		return nil, fmt.Errorf("failed to get roadmap progress: %w", err)
	}
	return progress, nil
}

func (s *roadmapService) Update(ctx context.Context, studentID string, req *UpdateRoadmapRequest) (*models.RoadmapProgress, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	progress, err := s.repo.Roadmap().GetByStudent(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRoadmapNotFound
		}
		return nil, fmt.Errorf("failed to get roadmap progress: %w", err)
	}

	steps, err := json.Marshal(req.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode steps: %w", err)
	}

	progress.Steps = datatypes.JSON(steps)
	progress.TotalSteps = len(req.Steps)
	progress.CompletedSteps = countDone(req.Steps)

	if err := s.repo.Roadmap().Update(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("failed to update roadmap progress: %w", err)
	}

	s.logger.Info("Roadmap updated",
		"student_id", studentID,
		"completed_steps", progress.CompletedSteps,
		"total_steps", progress.TotalSteps)

	return progress, nil
}

// InitializeForCareer creates the starter roadmap after a career
// selection. An existing roadmap is kept untouched.
func (s *roadmapService) InitializeForCareer(ctx context.Context, studentID, jobRole string) (*models.RoadmapProgress, error) {
	if existing, err := s.repo.Roadmap().GetByStudent(ctx, nil, studentID); err == nil {
		return existing, nil
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check roadmap: %w", err)
	}

	steps, err := json.Marshal(defaultSteps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode steps: %w", err)
	}

	progress := &models.RoadmapProgress{
		StudentID:  studentID,
		JobRole:    jobRole,
		Steps:      datatypes.JSON(steps),
		TotalSteps: len(defaultSteps),
	}

	if err := s.repo.Roadmap().Create(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("failed to create roadmap progress: %w", err)
	}

	s.logger.Info("Roadmap initialized", "student_id", studentID, "job_role", jobRole)
	return progress, nil
}

func countDone(steps []models.RoadmapStep) int {
	done := 0
	for _, step := range steps {
		if step.Done {
			done++
		}
	}
	return done
}
