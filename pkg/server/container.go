package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/adapters/storage"
	"retail-cockpit-api/internal/config"
	"retail-cockpit-api/internal/database"
	"retail-cockpit-api/internal/export"
	"retail-cockpit-api/internal/handlers"
	"retail-cockpit-api/internal/middleware"
	"retail-cockpit-api/internal/recordstore"
	"retail-cockpit-api/internal/repositories/sqlite"
	"retail-cockpit-api/internal/services"
)

// Version is reported by the health endpoint
var Version = "1.0.0"

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logrus.Logger
	Repositories *sqlite.SQLiteRepositoryManager
	Hub          *recordstore.Hub
	Services     *services.ServiceContainer
	Auth         *middleware.AuthService
	Router       *gin.Engine

	db        *database.ConnectionManager
	firestore *recordstore.FirestoreSource
	storage   storage.FileStorage
	wg        sync.WaitGroup
}

// NewContainer opens the database, builds the dataset pipeline and wires
// services and routes. The first dataset load happens here; a failure only
// leaves the dashboard unavailable until a later refresh succeeds.
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = cfg.Logging.NewLogger()
	}

	c := &Container{Config: cfg, Logger: logger}
	if err := c.init(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) init(ctx context.Context) error {
	cfg := c.Config

	if err := cfg.Database.EnsureDirectories(); err != nil {
		return err
	}
	c.db = database.NewConnectionManager(cfg.Database.ToConnectionConfig(c.Logger))
	if err := c.db.Connect(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.Repositories = sqlite.NewSQLiteRepositoryManager(c.db.GetDB(), c.Logger)

	source, err := c.recordSource(ctx)
	if err != nil {
		return err
	}
	c.Hub = recordstore.NewHub(source, c.Logger)

	c.storage, err = storage.New(cfg.Storage, &cfg.Retry, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create export storage: %w", err)
	}

	c.Services, err = services.NewServiceContainer(c.Repositories, c.Hub, c.Hub, export.NewExporter(c.storage, c.Logger), &services.ServiceConfig{
		Dashboard: services.DashboardOptions{
			TrendDays:     cfg.Analytics.TrendDays,
			TopProducts:   cfg.Analytics.TopProducts,
			TopPerformers: cfg.Analytics.TopPerformers,
		},
		BcryptCost: cfg.Auth.BcryptCost,
	}, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create service container: %w", err)
	}
	if err := c.Services.Validate(); err != nil {
		return err
	}

	if cfg.Auth.AdminEmail != "" {
		if err := c.Services.UserService.EnsureAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		c.Logger.Warn("AUTH_JWT_SECRET is not set; tokens will not survive a restart")
	}
	c.Auth = middleware.NewAuthService(&middleware.AuthConfig{
		JWTSecret:     secret,
		TokenDuration: cfg.Auth.TokenDuration,
		Issuer:        cfg.Auth.Issuer,
	})

	switch {
	case cfg.Server.Mode != "":
		gin.SetMode(cfg.Server.Mode)
	case cfg.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	}
	c.Router = handlers.NewRouter(&handlers.RouterConfig{
		Services:    c.Services,
		AuthService: c.Auth,
		Logger:      c.Logger,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			MaxAge:         cfg.CORS.MaxAge,
		},
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		MaxBodySize:       cfg.Server.MaxBodyBytes,
		SlowRequest:       cfg.Server.SlowRequest,
		Version:           Version,
	})

	if err := c.Hub.Refresh(ctx); err != nil {
		c.Logger.WithError(err).Warn("Initial dataset load failed; dashboard unavailable until the next refresh")
	}
	return nil
}

// recordSource reads from SQLite, or from Firestore merged with the rows
// written locally through the API
func (c *Container) recordSource(ctx context.Context) (recordstore.Source, error) {
	local := recordstore.NewSQLiteSource(c.Repositories, true)

	rs := c.Config.RecordStore
	if rs.Source != config.SourceFirestore {
		return local, nil
	}

	credentials, err := rs.Credentials()
	if err != nil {
		return nil, err
	}
	client, err := recordstore.NewFirestoreClient(ctx, rs.ProjectID, credentials)
	if err != nil {
		return nil, err
	}

	collections := recordstore.DefaultCollections()
	if rs.EmployeesCollection != "" {
		collections.Employees = rs.EmployeesCollection
	}
	if rs.StoresCollection != "" {
		collections.Stores = rs.StoresCollection
	}
	if rs.DailyMetricsCollection != "" {
		collections.DailyMetrics = rs.DailyMetricsCollection
	}
	if rs.TransactionsCollection != "" {
		collections.Transactions = rs.TransactionsCollection
	}
	if rs.KingDuvetSalesCollection != "" {
		collections.KingDuvetSales = rs.KingDuvetSalesCollection
	}

	c.firestore = recordstore.NewFirestoreSource(client, collections, c.Logger)
	c.Logger.WithField("project_id", rs.ProjectID).Info("Reading datasets from Firestore")
	return recordstore.MultiSource{c.firestore, local}, nil
}

// Start runs the periodic refresh, the Firestore watch and pool statistics
// until ctx is cancelled
func (c *Container) Start(ctx context.Context) {
	rs := c.Config.RecordStore

	if rs.RefreshInterval > 0 {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.Hub.Run(ctx, rs.RefreshInterval)
		}()
	}

	if c.firestore != nil && rs.Watch {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.firestore.Watch(ctx, c.Hub)
		}()
	}

	if c.db != nil {
		c.db.StartStatsLogger(ctx, c.Config.Database.StatsInterval)
	}
}

// Wait blocks until the goroutines started by Start have returned
func (c *Container) Wait() {
	c.wg.Wait()
}

// Close cleans up all resources
func (c *Container) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.Services != nil {
		keep(c.Services.Close())
	}
	if c.firestore != nil {
		keep(c.firestore.Close())
		c.firestore = nil
	}
	if c.storage != nil {
		keep(c.storage.Close())
		c.storage = nil
	}
	if c.db != nil {
		keep(c.db.Close())
	}
	return firstErr
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
