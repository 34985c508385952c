package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devpath-io/devpath-service/internal/events"
	"github.com/devpath-io/devpath-service/internal/mailer"
	"github.com/devpath-io/devpath-service/internal/prediction"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/validator"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies bundles everything the services need beyond the
// repository: external clients and infrastructure handles.
type Dependencies struct {
	DB        *gorm.DB
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator

	Predictor      prediction.Client
	EventPublisher events.EventPublisher
	Mailer         mailer.Client
	Redis          *redis.Client
}

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level

	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	// Service instances
	assessmentService   AssessmentService
	attemptService      AttemptService
	careerService       CareerService
	dashboardService    DashboardService
	notificationService NotificationService
	roadmapService      RoadmapService
	importExportService ImportExportService
	userService         UserService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		deps:   deps,
		config: config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(deps Dependencies) ServiceManager {
	return NewServiceManager(deps, ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,
		DefaultTimeout:     30 * time.Second,
	})
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	logger := sm.deps.Logger
	logger.Info("Initializing service manager")

	repo, db, v := sm.deps.Repo, sm.deps.DB, sm.deps.Validator

	// Notification first, other services publish through it.
	sm.notificationService = NewNotificationService(repo, sm.deps.EventPublisher, sm.deps.Mailer, logger, v)
	sm.roadmapService = NewRoadmapService(repo, db, logger, v)

	sm.assessmentService = NewAssessmentService(repo, db, logger, v)
	sm.attemptService = NewAttemptService(repo, db, logger, v, sm.notificationService)
	sm.careerService = NewCareerService(repo, db, logger, v, sm.deps.Predictor, sm.notificationService, sm.roadmapService)
	sm.dashboardService = NewDashboardService(repo, db, logger)
	sm.importExportService = NewImportExportService(repo, logger, v)
	sm.userService = NewUserService(repo, sm.deps.Redis, sm.deps.Mailer, sm.notificationService, logger, v)

	sm.initialized = true
	logger.Info("Service manager initialized successfully")

	return nil
}

// ===== SERVICE GETTERS =====

func (sm *serviceManager) Assessment() AssessmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.assessmentService == nil {
		panic("assessment service not initialized")
	}
	return sm.assessmentService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.attemptService == nil {
		panic("attempt service not initialized")
	}
	return sm.attemptService
}

func (sm *serviceManager) Career() CareerService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.careerService == nil {
		panic("career service not initialized")
	}
	return sm.careerService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.dashboardService == nil {
		panic("dashboard service not initialized")
	}
	return sm.dashboardService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.notificationService == nil {
		panic("notification service not initialized")
	}
	return sm.notificationService
}

func (sm *serviceManager) Roadmap() RoadmapService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.roadmapService == nil {
		panic("roadmap service not initialized")
	}
	return sm.roadmapService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.importExportService == nil {
		panic("import/export service not initialized")
	}
	return sm.importExportService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.userService == nil {
		panic("user service not initialized")
	}
	return sm.userService
}

// ===== HEALTH AND LIFECYCLE =====

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if sm.deps.EventPublisher != nil {
		if err := sm.deps.EventPublisher.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if repoManager, ok := sm.deps.Repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.deps.Logger.Error("Failed to shutdown repository manager", "error", err)
		}
	} else if err := sm.deps.Repo.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return nil
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := sm.config.DefaultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}
