package repositories

import "context"

// Repository aggregates all repository interfaces.
type Repository interface {
	// Assessment domain
	Assessment() AssessmentRepository
	Question() QuestionRepository

	// Result domain
	Result() ResultRepository
	Answer() AnswerRepository

	// Career domain
	Career() CareerRepository
	Roadmap() RoadmapRepository

	// Notification domain
	Notification() NotificationRepository

	// User domain: Profile is the locally stored user row, User is the
	// identity provider view (read-only)
	Profile() ProfileRepository
	User() UserRepository

	// Dashboard domain
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
