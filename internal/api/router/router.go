package router

import (
	"net/http"

	"github.com/cuongbtq/booking-core/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// Options configures the HTTP surface around the handlers.
type Options struct {
	Tokens         TokenParser
	AllowedOrigins []string
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, opts Options) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(opts.AllowedOrigins))

	health := healthHandler(deps)
	r.GET("/health", health)

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	v1.GET("/health", health)

	authed := v1.Group("")
	authed.Use(AuthMiddleware(opts.Tokens, deps.Logger))
	{
		jobs := authed.Group("/jobs")
		{
			jobs.POST("", jobHandler.CreateJob)
			jobs.POST("/accept", jobHandler.AcceptJob)
			jobs.GET("/available", jobHandler.AvailableJobs)

			jobs.PUT("/:job_id", jobHandler.UpdateJob)
			jobs.POST("/:job_id/confirm", jobHandler.ConfirmJob)
			jobs.POST("/:job_id/accept", jobHandler.AcceptJobWithID)
			jobs.POST("/:job_id/cancel", jobHandler.CancelJob)
			jobs.POST("/:job_id/end", jobHandler.EndJob)
			jobs.POST("/:job_id/customer-not-call", jobHandler.CustomerNotCall)
			jobs.POST("/:job_id/reopen", jobHandler.ReopenJob)
			jobs.POST("/:job_id/expire", jobHandler.ExpireJob)
			jobs.POST("/:job_id/notifications/resend", jobHandler.ResendNotifications)
			jobs.POST("/:job_id/notifications/resend-sms", jobHandler.ResendSMSNotifications)
			jobs.GET("/:job_id/translators", jobHandler.PotentialTranslators)
		}

		authed.GET("/users/:user_id/jobs", jobHandler.UserJobs)
	}

	return r
}

func healthHandler(deps *handler.Dependencies) gin.HandlerFunc {
	name := deps.ServiceName
	if name == "" {
		name = "booking-api-service"
	}
	return func(c *gin.Context) {
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": name,
					"error":   err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": name,
		})
	}
}
