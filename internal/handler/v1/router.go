package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowmymeds/api/internal/config"
	"github.com/knowmymeds/api/internal/service"
	"github.com/knowmymeds/api/pkg/auth"
	"github.com/knowmymeds/api/pkg/metrics"
)

type RouterDeps struct {
	Config          *config.Config
	JWTManager      *auth.JWTManager
	Metrics         *metrics.Collector
	AuthService     *service.AuthService
	MedicationSvc   *service.PrescriptionService
	ReminderService *service.ReminderService
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestMetrics(deps.Metrics))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Config.App.Version})
	})
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	authHandler := NewAuthHandler(deps.AuthService)
	medHandler := NewMedicationHandler(deps.MedicationSvc)
	reminderHandler := NewReminderHandler(deps.ReminderService, deps.Config.Notify.CleanupThreshold)

	api := router.Group("/api/v1")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
	}

	protected := api.Group("")
	protected.Use(AuthRequired(deps.JWTManager))
	{
		protected.POST("/medications", medHandler.Create)
		protected.GET("/medications", medHandler.List)
		protected.GET("/medications/:id", medHandler.Get)
		protected.DELETE("/medications/:id", medHandler.Delete)

		protected.GET("/calendar", medHandler.Calendar)
		protected.PATCH("/intake-logs", medHandler.SetIntakeStatus)

		protected.GET("/reminders", reminderHandler.List)
		protected.DELETE("/reminders", reminderHandler.ClearAll)
		protected.POST("/reminders/cleanup", reminderHandler.Cleanup)
	}

	return router
}
