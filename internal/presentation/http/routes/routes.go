package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dafteam/facturation-api/internal/config"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/internal/presentation/http/handler"
	"github.com/dafteam/facturation-api/internal/presentation/http/middleware"
	"github.com/dafteam/facturation-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth         *handler.AuthHandler
	Invoice      *handler.InvoiceHandler
	Notification *handler.NotificationHandler
	User         *handler.UserHandler
	Dashboard    *handler.DashboardHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager *utils.JWTManager
	Cfg        *config.Config
	Log        zerolog.Logger
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		rateLimiter := middleware.NewActorRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers) {
	// Auth/Profile routes
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/me", h.Auth.Me)
	protected.PUT("/me/password", h.Auth.ChangePassword)

	// Dashboard
	protected.GET("/dashboard/stats", h.Dashboard.GetStats)

	registerInvoiceRoutes(protected, h)
	registerNotificationRoutes(protected, h)
	registerUserRoutes(protected, h)
}

func registerInvoiceRoutes(protected *gin.RouterGroup, h *Handlers) {
	invoices := protected.Group("/invoices")
	{
		invoices.GET("", h.Invoice.List)
		invoices.GET("/pending", h.Invoice.Pending)
		invoices.GET("/urgent", h.Invoice.Urgent)
		invoices.GET("/overdue", h.Invoice.Overdue)
		invoices.GET("/number/:number", h.Invoice.GetByNumber)
		invoices.GET("/:id", h.Invoice.Get)
		invoices.GET("/:id/traces", h.Invoice.Traces)
		invoices.GET("/:id/attachment", h.Invoice.DownloadAttachment)

		// Draft management, creator only
		creators := invoices.Group("")
		creators.Use(middleware.RequireRole(enum.RoleU1, enum.RoleAdmin))
		{
			creators.POST("", h.Invoice.Create)
			creators.PUT("/:id", h.Invoice.Update)
			creators.DELETE("/:id", h.Invoice.Delete)
			creators.POST("/:id/submit", h.Invoice.Submit)
			creators.POST("/:id/attachment", h.Invoice.UploadAttachment)
		}

		// Workflow transitions. The route gate catches the obvious role
		// mismatches; the service re-checks ownership and state inside the
		// transaction.
		v1Group := invoices.Group("")
		v1Group.Use(middleware.RequireRole(enum.RoleV1))
		{
			v1Group.POST("/:id/validate-v1", h.Invoice.ApproveV1)
			v1Group.POST("/:id/reject-v1", h.Invoice.RejectV1)
		}

		v2Group := invoices.Group("")
		v2Group.Use(middleware.RequireRole(enum.RoleV2))
		{
			v2Group.POST("/:id/validate-v2", h.Invoice.ApproveV2)
			v2Group.POST("/:id/reject-v2", h.Invoice.RejectV2)
		}

		treasury := invoices.Group("")
		treasury.Use(middleware.RequireRole(enum.RoleT1))
		{
			treasury.POST("/:id/pay", h.Invoice.Pay)
		}
	}
}

func registerNotificationRoutes(protected *gin.RouterGroup, h *Handlers) {
	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread", h.Notification.Unread)
		notifications.GET("/unread/count", h.Notification.UnreadCount)
		notifications.PUT("/read-all", h.Notification.MarkAllRead)
		notifications.PUT("/:id/read", h.Notification.MarkRead)
	}
}

func registerUserRoutes(protected *gin.RouterGroup, h *Handlers) {
	users := protected.Group("/users")
	{
		// Assignment pickers, available to every authenticated actor
		users.GET("/role/:role", h.User.ListByRole)

		admin := users.Group("")
		admin.Use(middleware.RequireRole(enum.RoleAdmin))
		{
			admin.GET("", h.User.List)
			admin.POST("", h.User.Create)
			admin.GET("/:id", h.User.Get)
			admin.PUT("/:id", h.User.Update)
			admin.DELETE("/:id", h.User.Deactivate)
			admin.GET("/:id/workload", h.User.Workload)
		}
	}
}
