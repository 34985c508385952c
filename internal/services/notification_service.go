package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/devpath-io/devpath-service/internal/events"
	"github.com/devpath-io/devpath-service/internal/mailer"
	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/validator"
)

type notificationService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	mailer         mailer.Client
	logger         *slog.Logger
	validator      *validator.Validator
}

func NewNotificationService(repo repositories.Repository, eventPublisher events.EventPublisher, mailClient mailer.Client, logger *slog.Logger, v *validator.Validator) NotificationService {
	return &notificationService{
		repo:           repo,
		eventPublisher: eventPublisher,
		mailer:         mailClient,
		logger:         logger,
		validator:      v,
	}
}

// ===== GENERIC NOTIFY =====

func (s *notificationService) Notify(ctx context.Context, userID string, req *NotificationRequest) error {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	notification := &models.Notification{
		UserID:   userID,
		Type:     req.Type,
		Priority: priority,
		Title:    req.Title,
		Message:  req.Message,
	}

	if err := s.repo.Notification().Create(ctx, nil, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ===== DOMAIN EVENTS =====

func (s *notificationService) AssessmentCompleted(ctx context.Context, result *models.Result) error {
	err := s.Notify(ctx, result.StudentID, &NotificationRequest{
		Type:     models.NotificationAssessmentCompleted,
		Title:    "Assessment completed",
		Message:  fmt.Sprintf("You completed %s with a score of %.1f.", result.AssessmentSlug, result.Score),
		Priority: models.PriorityNormal,
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, string(models.NotificationAssessmentCompleted), map[string]interface{}{
		"student_id":      result.StudentID,
		"result_id":       result.ID,
		"assessment_slug": result.AssessmentSlug,
		"category":        result.Category,
		"score":           result.Score,
		"attempt_number":  result.AttemptNumber,
	})

	return nil
}

func (s *notificationService) CareerSelected(ctx context.Context, student *models.User, selection *models.CareerSelection) error {
	err := s.Notify(ctx, student.ID, &NotificationRequest{
		Type:     models.NotificationCareerSelected,
		Title:    "Career path selected",
		Message:  fmt.Sprintf("You are now on the %s track. Your roadmap is ready.", selection.JobRole),
		Priority: models.PriorityHigh,
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, string(models.NotificationCareerSelected), map[string]interface{}{
		"student_id":  student.ID,
		"job_role":    selection.JobRole,
		"category":    selection.Category,
		"match_score": selection.MatchScore,
	})

	// The welcome mail failing must not undo the selection.
	if s.mailer != nil && student.Email != "" {
		if err := s.mailer.SendWelcome(ctx, student.Email, firstName(student.FullName)); err != nil {
			s.logger.Warn("Failed to send welcome mail", "student_id", student.ID, "error", err)
		}
	}

	return nil
}

func (s *notificationService) EmailVerified(ctx context.Context, user *models.User) error {
	s.publishEvent(ctx, string(models.NotificationEmailVerified), map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

// ===== IN-APP READS =====

func (s *notificationService) List(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	notifications, total, err := s.repo.Notification().GetByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uint, userID string) error {
	if err := s.repo.Notification().MarkRead(ctx, nil, id, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.repo.Notification().CountUnread(ctx, nil, userID)
}

// ===== HELPERS =====

// publishEvent is fire-and-forget. Broker trouble is logged, never
// propagated.
func (s *notificationService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	event := events.NewEvent(eventType, data)
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", eventType, "error", err)
	}
}

func firstName(fullName string) string {
	for i, r := range fullName {
		if r == ' ' {
			return fullName[:i]
		}
	}
	return fullName
}
