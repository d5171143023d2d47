package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/sendgrove/blastpipe/api/handlers"
	"github.com/sendgrove/blastpipe/api/middleware"
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	apiHandlers := handlers.InitHandlers(repos, s)

	// Health check endpoint (no custom context needed)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-BLASTPIPE-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version and custom context
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.UserIdMiddleware())
	api.Use(middleware.CustomContextMiddleware("blastpipe"))
	api.Use(middleware.TracingMiddleware())
	{
		campaigns := api.Group("/campaigns")
		{
			campaigns.POST("", apiHandlers.Campaigns.Create())
			campaigns.GET("", apiHandlers.Campaigns.List())
			campaigns.GET("/:id", apiHandlers.Campaigns.Get())
			campaigns.POST("/:id/send", apiHandlers.Campaigns.Send())
			campaigns.GET("/:id/logs", apiHandlers.Campaigns.Logs())
		}

		providers := api.Group("/providers")
		{
			providers.POST("", apiHandlers.Providers.Create())
			providers.GET("/schemas", apiHandlers.Providers.Schemas())
			providers.POST("/:id/verify", apiHandlers.Providers.Verify())
		}

		templates := api.Group("/templates")
		{
			templates.POST("", apiHandlers.Templates.Save())
			templates.POST("/validate", apiHandlers.Templates.Validate())
			templates.POST("/preview", apiHandlers.Templates.Preview())
		}

		lists := api.Group("/lists")
		{
			lists.POST("", apiHandlers.Lists.Import())
			lists.GET("/:id", apiHandlers.Lists.Get())
		}

		suppressions := api.Group("/suppressions")
		{
			suppressions.POST("", apiHandlers.Suppressions.Add())
			suppressions.GET("", apiHandlers.Suppressions.List())
		}
	}
}
