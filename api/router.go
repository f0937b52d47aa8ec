package api

import (
	"net/http"

	"github.com/fyerfyer/doc-summary-system/api/handler"
	"github.com/fyerfyer/doc-summary-system/api/middleware"
	"github.com/fyerfyer/doc-summary-system/api/model"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(
	userHandler *handler.UserHandler,
	summaryHandler *handler.SummaryHandler,
	chatHandler *handler.ChatHandler,
	taskHandler *handler.TaskHandler,
) *gin.Engine {
	router := gin.New()

	// 注册detail_level校验规则
	if err := model.RegisterValidators(); err != nil {
		middleware.GetLogger().WithError(err).Fatal("Failed to register validators")
	}

	// 应用全局中间件
	router.Use(middleware.SetTraceID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(Cors())

	// 在调试模式下记录请求体和响应体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
		router.Use(middleware.ResponseLogger())
	}

	api := router.Group("/api")
	{
		// 用户和摘要记录
		users := api.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.DELETE("/:id", userHandler.DeleteUser)
			users.GET("/:id/records", userHandler.ListRecords)
			users.GET("/:id/records/:rid", userHandler.GetRecord)
			users.DELETE("/:id/records/:rid", userHandler.DeleteRecord)
			users.DELETE("/:id/records", userHandler.DeleteRecords)
			users.GET("/:id/tasks", taskHandler.ListUserTasks)
		}

		// 摘要
		summaries := api.Group("/summaries")
		{
			summaries.POST("/file", summaryHandler.SummarizeFile)
			summaries.POST("/text", summaryHandler.SummarizeText)
			summaries.POST("/url", summaryHandler.SummarizeURL)
			summaries.POST("/chunks", summaryHandler.PreviewChunks)
		}

		// 异步任务
		api.GET("/tasks/:id", taskHandler.GetTaskStatus)

		// 对话
		chats := api.Group("/chats")
		{
			chats.POST("", chatHandler.CreateChat)
			chats.GET("/:conversation_id", chatHandler.GetHistory)
			chats.POST("/:conversation_id/messages", chatHandler.SendMessage)
		}

		// 健康检查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域资源共享中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
