package services

import (
	"context"
	"io"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// ===== REQUEST/RESPONSE DTOs =====

// Request shapes shared with the transport layer live in models.
type CreateAssessmentRequest = models.AssessmentCreateRequest
type UpdateAssessmentRequest = models.AssessmentUpdateRequest
type CreateQuestionRequest = models.QuestionCreateRequest
type UpdateQuestionRequest = models.QuestionUpdateRequest
type ChangeStatusRequest = models.ChangeStatusRequest

type AssessmentResponse struct {
	*models.Assessment
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanTake   bool `json:"can_take"`
}

type AssessmentListResponse struct {
	Assessments []*AssessmentResponse `json:"assessments"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	Size        int                   `json:"size"`
}

// ===== ATTEMPT RELATED DTOs =====

type StartAttemptRequest struct {
	Slug string `json:"slug" validate:"required,min=1,max=100"`
}

type SaveAnswerRequest struct {
	QuestionID        uint     `json:"question_id" validate:"required"`
	SelectedOptionIDs []string `json:"selected_option_ids"`
	Text              *string  `json:"text"`
}

type SubmitAttemptRequest struct {
	ResultID uint                `json:"result_id" validate:"required"`
	Answers  []SaveAnswerRequest `json:"answers" validate:"omitempty,dive"`
}

type AttemptResponse struct {
	*models.Result
	CanSubmit         bool               `json:"can_submit"`
	RemainingAttempts int                `json:"remaining_attempts"`
	Questions         []*models.Question `json:"questions,omitempty"`
}

// ===== DASHBOARD RELATED DTOs =====

type CategoryProgress struct {
	Completed    int     `json:"completed"`
	Total        int     `json:"total"`
	AverageScore float64 `json:"average_score"`
}

type RecentActivityResponse struct {
	ResultID       uint                      `json:"result_id"`
	AssessmentSlug string                    `json:"assessment_slug"`
	Title          string                    `json:"title"`
	Category       models.AssessmentCategory `json:"category"`
	Score          float64                   `json:"score"`
	CompletedAt    time.Time                 `json:"completed_at"`
	TimeAgo        string                    `json:"time_ago"`
}

type ProgressResponse struct {
	Categories       map[models.AssessmentCategory]CategoryProgress `json:"categories"`
	OverallCompleted int                                            `json:"overall_completed"`
	OverallTotal     int                                            `json:"overall_total"`
	CompletionRate   float64                                        `json:"completion_rate"`
	StreakDays       int                                            `json:"streak_days"`
	RecentActivity   []RecentActivityResponse                       `json:"recent_activity"`
}

// ===== CAREER RELATED DTOs =====

type CareerMatchesResponse struct {
	Matches  []models.CareerMatch    `json:"matches"`
	Selected *models.CareerSelection `json:"selected,omitempty"`
}

type SelectCareerRequest struct {
	JobRole    string  `json:"job_role" validate:"required,max=200"`
	Category   string  `json:"category" validate:"required,max=100"`
	MatchScore float64 `json:"match_score" validate:"min=0,max=100"`
}

// ===== NOTIFICATION RELATED DTOs =====

type NotificationRequest struct {
	Type     models.NotificationType     `json:"type" validate:"required"`
	Title    string                      `json:"title" validate:"required,max=200"`
	Message  string                      `json:"message" validate:"max=2000"`
	Priority models.NotificationPriority `json:"priority"`
}

// ===== ROADMAP RELATED DTOs =====

type UpdateRoadmapRequest struct {
	Steps []models.RoadmapStep `json:"steps" validate:"required,min=1,dive"`
}

// ===== USER RELATED DTOs =====

type UpdateProfileRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	Course    *string `json:"course" validate:"omitempty,max=100"`
	YearLevel *int    `json:"year_level" validate:"omitempty,min=0,max=10"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

type VerifyEmailRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

// ===== SERVICE INTERFACES =====

type AssessmentService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateAssessmentRequest, creatorID string) (*AssessmentResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*AssessmentResponse, error)
	GetBySlug(ctx context.Context, slug string, userID string) (*AssessmentResponse, error)
	GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*AssessmentResponse, error)
	Update(ctx context.Context, id uint, req *UpdateAssessmentRequest, userID string) (*AssessmentResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// List operations
	List(ctx context.Context, filters repositories.AssessmentFilters, userID string) (*AssessmentListResponse, error)
	GetActive(ctx context.Context) ([]*models.Assessment, error)

	// Status management
	UpdateStatus(ctx context.Context, id uint, req *ChangeStatusRequest, userID string) (*models.StatusChangeResponse, error)
	Publish(ctx context.Context, id uint, userID string) error
	Archive(ctx context.Context, id uint, userID string) error

	// Question management
	AddQuestion(ctx context.Context, assessmentID uint, req *CreateQuestionRequest, userID string) (*models.Question, error)
	UpdateQuestion(ctx context.Context, assessmentID, questionID uint, req *UpdateQuestionRequest, userID string) (*models.Question, error)
	RemoveQuestion(ctx context.Context, assessmentID, questionID uint, userID string) error

	// Statistics
	GetStats(ctx context.Context, id uint, userID string) (*repositories.AssessmentStats, error)
}

type AttemptService interface {
	// Core attempt operations
	Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error)
	SaveAnswer(ctx context.Context, resultID uint, req *SaveAnswerRequest, studentID string) error
	Submit(ctx context.Context, req *SubmitAttemptRequest, studentID string) (*AttemptResponse, error)
	Abandon(ctx context.Context, resultID uint, studentID string) error

	// Get operations
	GetByID(ctx context.Context, id uint, userID string) (*AttemptResponse, error)
	GetCurrent(ctx context.Context, slug string, studentID string) (*AttemptResponse, error)

	// List operations
	ListByStudent(ctx context.Context, studentID string, filters repositories.ResultFilters) ([]*AttemptResponse, int64, error)

	// Validation
	CanStart(ctx context.Context, slug string, studentID string) (bool, error)
	GetAttemptCount(ctx context.Context, assessmentID uint, studentID string) (int, error)
}

type CareerService interface {
	GetMatches(ctx context.Context, studentID string) (*CareerMatchesResponse, error)
	GetSelection(ctx context.Context, studentID string) (*models.CareerSelection, error)
	SelectCareer(ctx context.Context, req *SelectCareerRequest, studentID string) (*models.CareerSelection, error)
}

type DashboardService interface {
	GetProgress(ctx context.Context, studentID string) (*ProgressResponse, error)
}

type NotificationService interface {
	// Generic in-app notification row
	Notify(ctx context.Context, userID string, req *NotificationRequest) error

	// Domain events
	AssessmentCompleted(ctx context.Context, result *models.Result) error
	CareerSelected(ctx context.Context, student *models.User, selection *models.CareerSelection) error
	EmailVerified(ctx context.Context, user *models.User) error

	// In-app notification reads
	List(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id uint, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type RoadmapService interface {
	Get(ctx context.Context, studentID string) (*models.RoadmapProgress, error)
	Update(ctx context.Context, studentID string, req *UpdateRoadmapRequest) (*models.RoadmapProgress, error)
	InitializeForCareer(ctx context.Context, studentID, jobRole string) (*models.RoadmapProgress, error)
}

type ImportExportService interface {
	ImportAssessments(ctx context.Context, r io.Reader, req *models.ImportAssessmentsRequest, userID string) (*models.ImportAssessmentsResult, error)
	ExportResults(ctx context.Context, params *models.ExportResultsParams, userID string) (*excelize.File, error)
}

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error)
	RequestEmailVerification(ctx context.Context, userID string) error
	VerifyEmail(ctx context.Context, userID string, req *VerifyEmailRequest) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Assessment() AssessmentService
	Attempt() AttemptService
	Career() CareerService
	Dashboard() DashboardService

	// Supporting service getters
	Notification() NotificationService
	Roadmap() RoadmapService
	ImportExport() ImportExportService
	User() UserService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
