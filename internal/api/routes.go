package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/concave-dev/otto/internal/api/handlers"
)

// Configures all API routes
func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version prefix
	v1 := router.Group("/api/v1")

	v1.GET("/health", s.getHandlerHealth())

	switches := v1.Group("/switches")
	{
		switches.GET("", handlers.HandleSwitches(s.config.Registry))
		switches.GET("/:name", handlers.HandleSwitchByName(s.config.Registry))
	}

	intents := v1.Group("/intents")
	{
		intents.POST("", handlers.HandleDeclareIntent(s.config.Intents, s.config.DefaultDeclarer))
		intents.GET("/latest", handlers.HandleLatestActivity(s.config.History))
		intents.GET("/weekly", handlers.HandleWeeklyActivity(s.config.History))
		intents.GET("/top", handlers.HandleTopActivity(s.config.History))
		intents.GET("/model-usage", handlers.HandleModelUsage(s.config.History))
	}

	v1.GET("/pool", handlers.HandlePool(s.config.Pool))
	v1.GET("/reconciler", handlers.HandleReconciler(s.config.Reconciler))
}
