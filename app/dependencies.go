package app

import (
	"context"
	"fmt"

	"github.com/hostelcare/complaint-api/auth"
	"github.com/hostelcare/complaint-api/config"
	"github.com/hostelcare/complaint-api/firebase"
	"github.com/hostelcare/complaint-api/handlers"
	"github.com/hostelcare/complaint-api/internal/observability"
	"github.com/hostelcare/complaint-api/middleware"
	"github.com/hostelcare/complaint-api/repositories"
	"github.com/hostelcare/complaint-api/repositories/postgres"
	"github.com/hostelcare/complaint-api/services"
	"github.com/hostelcare/complaint-api/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	DB       *postgres.DB
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users      repositories.UserRepository
	Complaints repositories.ComplaintRepository

	// Auth
	Firebase       *firebase.Validator
	Sessions       *session.Manager
	Verifier       auth.TokenVerifier
	AuthMiddleware *middleware.AuthMiddleware

	// Services
	AuthService      *services.AuthService
	UserService      *services.UserService
	ComplaintService *services.ComplaintService

	// Handlers
	HealthHandler    *handlers.HealthHandler
	AuthHandler      *handlers.AuthHandler
	ComplaintHandler *handlers.ComplaintHandler
	UserHandler      *handlers.UserHandler
}

// NewDependencies opens the database, initializes the schema and wires up
// all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.GetDB().InitSchema(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires every component on top of an open repository factory
func NewDependenciesWithFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.initMetrics()
	deps.initRepositories()

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.initServices(cfg)
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Complaints = repos.Complaints

	d.Logger.Info("repositories initialized")
}

// initAuth builds the token verifier chain. Session tokens are routed by
// issuer to the session manager; everything else goes to Firebase, or is
// rejected when Firebase is not configured.
func (d *Dependencies) initAuth(cfg *config.Config) error {
	d.Sessions = session.NewManager(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL)

	fallback := auth.RejectAll
	projectID := cfg.Firebase.ProjectID
	if projectID == "" && cfg.Firebase.CredentialsFile != "" {
		id, err := firebase.ProjectIDFromCredentials(cfg.Firebase.CredentialsFile)
		if err != nil {
			return err
		}
		projectID = id
	}

	if projectID != "" {
		d.Firebase = firebase.NewValidator(firebase.Config{
			ProjectID:   projectID,
			JWKSURL:     cfg.Firebase.JWKSURL,
			CacheTTL:    cfg.Firebase.JWKSCacheTTL,
			HTTPTimeout: cfg.Firebase.HTTPTimeout,
		})
		fallback = d.Firebase
		d.Logger.Info("firebase token verification enabled", zap.String("project_id", projectID))
	} else {
		d.Logger.Warn("firebase not configured, only session tokens are accepted")
	}

	d.Verifier = auth.NewChain(fallback).Register(d.Sessions.Issuer(), d.Sessions)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Verifier, d.Users, cfg.Auth.PublicPaths, d.Metrics, d.Logger)
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	var identity services.IdentityProvider
	if cfg.Firebase.WebAPIKey != "" {
		identity = services.NewIdentityToolkitClient(
			cfg.Firebase.IdentityBaseURL,
			cfg.Firebase.WebAPIKey,
			cfg.Firebase.HTTPTimeout,
			d.Logger,
		)
		d.Logger.Info("identity provider sign-up enabled")
	}

	// Registration and login-with-token only accept provider tokens.
	var providerVerifier auth.TokenVerifier = auth.RejectAll
	if d.Firebase != nil {
		providerVerifier = d.Firebase
	}

	d.AuthService = services.NewAuthService(d.Users, providerVerifier, d.Sessions, identity, d.Metrics, d.Logger)
	d.UserService = services.NewUserService(d.Users, d.Logger)
	d.ComplaintService = services.NewComplaintService(d.Complaints, d.Users, d.Metrics, d.Logger)
}

func (d *Dependencies) initHandlers() {
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Logger)
	d.AuthHandler = handlers.NewAuthHandler(d.AuthService, d.Logger)
	d.ComplaintHandler = handlers.NewComplaintHandler(d.ComplaintService, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.UserService, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
