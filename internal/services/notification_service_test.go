package services

import (
	"context"
	"testing"
	"time"

	"github.com/devpath-io/devpath-service/internal/events"
	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/validator"
)

// stubMailer records sent mails and optionally fails.
type stubMailer struct {
	welcomes []string
	otps     []string
	lastOTP  string
	err      error
}

func (m *stubMailer) SendOTP(ctx context.Context, email, otp, firstName string) error {
	if m.err != nil {
		return m.err
	}
	m.otps = append(m.otps, email)
	m.lastOTP = otp
	return nil
}

func (m *stubMailer) SendWelcome(ctx context.Context, email, firstName string) error {
	if m.err != nil {
		return m.err
	}
	m.welcomes = append(m.welcomes, email)
	return nil
}

func TestAssessmentCompletedNotification(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewNotificationService(repo, publisher, nil, testLogger(), validator.New())

	now := time.Now()
	result := &models.Result{
		ID: 7, StudentID: "student-1", AssessmentSlug: "algorithms",
		Category: models.CategoryTechnical, Status: models.ResultCompleted,
		Score: 85, AttemptNumber: 2, CompletedAt: &now,
	}

	if err := svc.AssessmentCompleted(ctx, result); err != nil {
		t.Fatalf("AssessmentCompleted failed: %v", err)
	}

	notifications, total, err := svc.List(ctx, "student-1", repositories.NotificationFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("Expected 1 notification, got %d", total)
	}
	if notifications[0].Type != models.NotificationAssessmentCompleted {
		t.Errorf("Unexpected notification type %s", notifications[0].Type)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("Expected 1 published event, got %d", len(published))
	}
	event := published[0]
	if event.Type != "assessment.completed" {
		t.Errorf("Unexpected event type %s", event.Type)
	}
	if event.Source != "devpath-service" {
		t.Errorf("Unexpected event source %s", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("Unexpected event version %s", event.Version)
	}
	data, ok := event.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Unexpected event payload %T", event.Data)
	}
	if data["assessment_slug"] != "algorithms" {
		t.Errorf("Unexpected payload slug %v", data["assessment_slug"])
	}
}

func TestCareerSelectedNotification(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	mail := &stubMailer{}
	svc := NewNotificationService(repo, publisher, mail, testLogger(), validator.New())

	student := &models.User{ID: "student-1", Email: "sam@example.edu", FullName: "Sam Student"}
	selection := &models.CareerSelection{
		StudentID: "student-1", JobRole: "Backend Developer",
		Category: "technical", MatchScore: 91.5, SelectedAt: time.Now(),
	}

	if err := svc.CareerSelected(ctx, student, selection); err != nil {
		t.Fatalf("CareerSelected failed: %v", err)
	}

	notifications, _, _ := svc.List(ctx, "student-1", repositories.NotificationFilters{})
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifications))
	}
	if notifications[0].Priority != models.PriorityHigh {
		t.Errorf("Expected high priority, got %s", notifications[0].Priority)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != "career.selected" {
		t.Fatalf("Expected one career.selected event, got %+v", published)
	}

	if len(mail.welcomes) != 1 || mail.welcomes[0] != "sam@example.edu" {
		t.Errorf("Expected welcome mail to sam@example.edu, got %v", mail.welcomes)
	}
}

func TestCareerSelectedSurvivesMailerFailure(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	mail := &stubMailer{err: context.DeadlineExceeded}
	svc := NewNotificationService(repo, publisher, mail, testLogger(), validator.New())

	student := &models.User{ID: "student-1", Email: "sam@example.edu", FullName: "Sam"}
	selection := &models.CareerSelection{StudentID: "student-1", JobRole: "Data Analyst", Category: "academic"}

	if err := svc.CareerSelected(ctx, student, selection); err != nil {
		t.Fatalf("A mailer failure must not fail the notification: %v", err)
	}
	if _, total, _ := svc.List(ctx, "student-1", repositories.NotificationFilters{}); total != 1 {
		t.Errorf("In-app notification missing after mailer failure")
	}
}

func TestNotificationReads(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewNotificationService(repo, events.NewMockEventPublisher(testLogger()), nil, testLogger(), validator.New())

	for i := 0; i < 3; i++ {
		err := svc.Notify(ctx, "student-1", &NotificationRequest{
			Type: models.NotificationAssessmentCompleted, Title: "Done", Message: "Assessment graded",
		})
		if err != nil {
			t.Fatalf("Notify failed: %v", err)
		}
	}

	unread, err := svc.CountUnread(ctx, "student-1")
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if unread != 3 {
		t.Fatalf("Expected 3 unread, got %d", unread)
	}

	notifications, _, _ := svc.List(ctx, "student-1", repositories.NotificationFilters{})
	if err := svc.MarkRead(ctx, notifications[0].ID, "student-1"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	if unread, _ = svc.CountUnread(ctx, "student-1"); unread != 2 {
		t.Errorf("Expected 2 unread after MarkRead, got %d", unread)
	}

	if err := svc.MarkRead(ctx, 9999, "student-1"); err != ErrNotificationNotFound {
		t.Errorf("Expected ErrNotificationNotFound, got %v", err)
	}

	unreadOnly, _, _ := svc.List(ctx, "student-1", repositories.NotificationFilters{UnreadOnly: true})
	if len(unreadOnly) != 2 {
		t.Errorf("Expected 2 unread notifications in filtered list, got %d", len(unreadOnly))
	}
}

func TestFirstName(t *testing.T) {
	tests := []struct {
		full     string
		expected string
	}{
		{"Sam Student", "Sam"},
		{"Sam", "Sam"},
		{"", ""},
		{"Ana Maria Lopez", "Ana"},
	}
	for _, tt := range tests {
		if got := firstName(tt.full); got != tt.expected {
			t.Errorf("firstName(%q) = %q, expected %q", tt.full, got, tt.expected)
		}
	}
}
