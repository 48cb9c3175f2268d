package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"retail-cockpit-api/internal/middleware"
	"retail-cockpit-api/internal/services"
)

const serviceName = "retail-cockpit-api"

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Services    *services.ServiceContainer
	AuthService *middleware.AuthService
	Logger      *logrus.Logger

	CORS              middleware.CORSConfig
	RequestsPerSecond float64
	Burst             int
	MaxBodySize       int64
	SlowRequest       time.Duration
	Version           string
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	svc := config.Services

	dashboardHandler := NewDashboardHandler(svc.DashboardService)
	employeeHandler := NewEmployeeHandler(svc.EmployeeService)
	storeHandler := NewStoreHandler(svc.StoreService)
	authHandler := NewAuthHandler(svc.UserService, config.AuthService)
	userHandler := NewUserHandler(svc.UserService)
	taskHandler := NewTaskHandler(svc.TaskService, svc.RuleService)
	dataHandler := NewDataHandler(svc.DataService)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check reports the dataset state but stays 200 while the store is down
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
			"version": config.Version,
			"data":    svc.DashboardService.Status(),
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}

		api := v1.Group("")
		api.Use(middleware.Authentication(config.AuthService))
		api.Use(middleware.LoadProfile(svc.UserService))
		{
			api.GET("/auth/me", authHandler.GetCurrentUser)

			dashboard := api.Group("/dashboard")
			{
				dashboard.GET("/summary", dashboardHandler.Summary)
				dashboard.GET("/employees/:id", dashboardHandler.EmployeeDetail)
				dashboard.GET("/categories", dashboardHandler.Categories)
				dashboard.GET("/compare", dashboardHandler.Compare)
				dashboard.GET("/charts/:kind", dashboardHandler.Chart)
				dashboard.GET("/status", dashboardHandler.Status)
			}

			api.GET("/employees", employeeHandler.ListEmployees)
			api.GET("/employees/search", employeeHandler.SearchEmployees)
			api.GET("/employees/:id", employeeHandler.GetEmployee)
			api.GET("/stores", storeHandler.ListStores)
			api.GET("/tasks/mine", taskHandler.ListMyTasks)
			api.PATCH("/tasks/:id/done", taskHandler.CompleteTask)

			manager := api.Group("")
			manager.Use(middleware.RequireManager())
			{
				manager.POST("/employees", employeeHandler.CreateEmployee)
				manager.PUT("/employees/:id", employeeHandler.UpdateEmployee)
				manager.PUT("/employees/:id/targets", employeeHandler.SetTargets)

				manager.POST("/stores", storeHandler.CreateStore)

				manager.POST("/tasks", taskHandler.SendTask)
				manager.GET("/rules", taskHandler.ListRules)
				manager.POST("/rules", taskHandler.CreateRule)
				manager.DELETE("/rules/:id", taskHandler.DeleteRule)

				manager.POST("/metrics", dataHandler.RecordMetric)
				manager.POST("/import/:kind", dataHandler.Import)
				manager.GET("/export", dataHandler.Export)
				manager.GET("/exports", dataHandler.ListExports)
				manager.GET("/exports/download", dataHandler.DownloadExport)
			}

			users := api.Group("/users")
			users.Use(middleware.RequireUserAdmin())
			{
				users.GET("", userHandler.ListUsers)
				users.POST("/:id/approve", userHandler.ApproveUser)
				users.PUT("/:id/role", userHandler.UpdateRole)
			}

			api.DELETE("/data", middleware.RequireDataReset(), dataHandler.ResetData)
		}
	}
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, config *RouterConfig) {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(config.CORS))
	router.Use(middleware.SecurityHeaders())

	maxBody := config.MaxBodySize
	if maxBody <= 0 {
		maxBody = 10 * 1024 * 1024
	}
	router.Use(middleware.RequestSizeLimit(maxBody))

	// uploads arrive as multipart forms or raw CSV bodies
	router.Use(middleware.ContentTypeValidation("application/json", "multipart/form-data", "text/csv"))
	router.Use(middleware.RequestValidation())

	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = int(config.RequestsPerSecond) * 2
		}
		router.Use(middleware.RateLimiter(config.RequestsPerSecond, burst))
	}

	router.Use(middleware.StructuredLogger(logger))

	slow := config.SlowRequest
	if slow <= 0 {
		slow = time.Second
	}
	router.Use(middleware.PerformanceMonitor(logger, slow))
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.EnhancedErrorHandler(logger))
}

// NewRouter builds an engine with the global middleware and all routes
func NewRouter(config *RouterConfig) *gin.Engine {
	router := gin.New()
	SetupMiddleware(router, config)
	SetupRoutes(router, config)
	return router
}
