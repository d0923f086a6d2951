package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/config"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Bootstrap admin created on Initialize when no admin exists.
	Admin config.AdminConfig

	HealthCheckTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   *Dependencies
	config ServiceManagerConfig

	authService         AuthService
	externalAuthService ExternalAuthService
	tutorService        TutorService
	jobService          JobService
	messageService      MessageService
	reviewService       ReviewService
	notificationService NotificationService
	adminService        AdminService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps *Dependencies, config ServiceManagerConfig) ServiceManager {
	if config.HealthCheckTimeout <= 0 {
		config.HealthCheckTimeout = 5 * time.Second
	}
	return &serviceManager{deps: deps, config: config}
}

func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if err := sm.deps.setDefaults(); err != nil {
		return fmt.Errorf("invalid service dependencies: %w", err)
	}

	logger := sm.deps.Logger
	logger.Info("Initializing service manager")

	sm.authService = NewAuthService(sm.deps)
	sm.externalAuthService = NewCasdoorService(sm.deps)
	sm.tutorService = NewTutorService(sm.deps)
	sm.jobService = NewJobService(sm.deps)
	sm.messageService = NewMessageService(sm.deps)
	sm.reviewService = NewReviewService(sm.deps)
	sm.notificationService = NewNotificationService(sm.deps)
	sm.adminService = NewAdminService(sm.deps)

	admin := sm.config.Admin
	if err := sm.adminService.EnsureAdmin(ctx, admin.Username, admin.Email, admin.Password); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	sm.initialized = true
	logger.Info("Service manager initialized successfully",
		"external_auth", sm.externalAuthService.Enabled(),
		"cache", sm.deps.Cache.Enabled())
	return nil
}

func (sm *serviceManager) Auth() AuthService {
	sm.mustBeReady()
	return sm.authService
}

func (sm *serviceManager) ExternalAuth() ExternalAuthService {
	sm.mustBeReady()
	return sm.externalAuthService
}

func (sm *serviceManager) Tutor() TutorService {
	sm.mustBeReady()
	return sm.tutorService
}

func (sm *serviceManager) Job() JobService {
	sm.mustBeReady()
	return sm.jobService
}

func (sm *serviceManager) Message() MessageService {
	sm.mustBeReady()
	return sm.messageService
}

func (sm *serviceManager) Review() ReviewService {
	sm.mustBeReady()
	return sm.reviewService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mustBeReady()
	return sm.notificationService
}

func (sm *serviceManager) Admin() AdminService {
	sm.mustBeReady()
	return sm.adminService
}

func (sm *serviceManager) mustBeReady() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// HealthCheck pings storage. A failing cache is reported but does not make
// the service unhealthy.
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return errors.New("service manager not initialized")
	}
	if sm.shutdown {
		return errors.New("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, sm.config.HealthCheckTimeout)
	defer cancel()

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	if sm.deps.Cache.Enabled() {
		if err := sm.deps.Cache.HealthCheck(ctx); err != nil {
			sm.deps.Logger.Warn("Cache health check failed", "error", err)
		}
	}
	return nil
}

// Shutdown marks the manager closed. Storage is owned and closed by main.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	if sm.deps.Logger != nil {
		sm.deps.Logger.Info("Shutting down service manager")
	}
	sm.shutdown = true
	return nil
}
