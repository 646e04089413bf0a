package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/nerdworks/dealerai-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName      string
	AllowOrigins     []string
	AIHandler        *handlers.AIHandler
	AssistantHandler *handlers.AssistantHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:80", "http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		ai := api.Group("/ai")
		{
			ai.POST("/query", cfg.AIHandler.Query)
			ai.GET("/batch/:id", cfg.AIHandler.BatchStatus)
			ai.GET("/logs", cfg.AIHandler.ListLogs)
			ai.GET("/logs/:id", cfg.AIHandler.GetLog)
			ai.POST("/logs/:id/taken", cfg.AIHandler.MarkLogTaken)
		}

		assistants := api.Group("/assistants")
		{
			assistants.POST("", cfg.AssistantHandler.Create)
			assistants.GET("", cfg.AssistantHandler.List)
			assistants.POST("/import", cfg.AssistantHandler.Import)
			assistants.GET("/:id", cfg.AssistantHandler.Get)
			assistants.PUT("/:id", cfg.AssistantHandler.Update)
			assistants.DELETE("/:id", cfg.AssistantHandler.Delete)
			assistants.GET("/:id/threads", cfg.AssistantHandler.ListThreads)
			assistants.POST("/:id/threads", cfg.AssistantHandler.CreateThread)
			assistants.POST("/:id/chat", cfg.AssistantHandler.Chat)
		}

		threads := api.Group("/threads")
		{
			threads.DELETE("/:id", cfg.AssistantHandler.DeleteThread)
			threads.GET("/:threadId/messages", cfg.AssistantHandler.ChatHistory)
		}
	}

	return router
}
