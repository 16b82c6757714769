package service

import (
	"github.com/gin-gonic/gin"

	"github.com/ragdesk/ragdesk/app/core"
	"github.com/ragdesk/ragdesk/app/response"
	"github.com/ragdesk/ragdesk/cmd/service/handler"
	"github.com/ragdesk/ragdesk/cmd/service/middleware"
	"github.com/ragdesk/ragdesk/pkg/metrics"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	core.HttpEngine().Run(core.Cfg().Addr)
}

func GetIPLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			return key + ":" + c.ClientIP()
		}, opts...)
	}
}

func setupHttpRouter(s *handler.HttpSrv) {
	ipLimit := GetIPLimitBuilder(s.Core)

	s.Engine.Use(middleware.I18n(), response.NewResponse(), middleware.RequestMetrics(s.Core))
	s.Engine.Use(middleware.Cors)

	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	api := s.Engine.Group("/api")
	{
		api.GET("/system/status", s.SystemStatus)
		// 老路径兼容
		api.GET("/system/info", s.SystemStatus)
		api.GET("/health", s.SystemStatus)

		apiV1 := api.Group("/v1")
		{
			datasets := apiV1.Group("/datasets")
			{
				datasets.POST("", ipLimit("create_dataset"), s.CreateDataset)
				datasets.GET("", s.ListDatasets)
				datasets.GET("/:dataset_id", s.GetDataset)
				datasets.DELETE("/:dataset_id", s.DeleteDataset)

				documents := datasets.Group("/:dataset_id/documents")
				{
					documents.POST("", ipLimit("upload_document"), s.UploadDocument)
					documents.GET("", s.ListDocuments)
					documents.DELETE("", s.DeleteDocuments)
				}
			}

			chats := apiV1.Group("/chats")
			{
				chats.POST("/:chat_id/completions", ipLimit("chat_completions"), s.CreateChatTask)
				chats.GET("/task/:task_id", s.GetChatTask)
				chats.GET("/tasks", s.ListChatTasks)
			}

			// 老路径兼容
			apiV1.GET("/tasks/:task_id", s.GetChatTask)
		}

		retriever := api.Group("/retriever")
		{
			retriever.POST("/test", s.RetrieverTest)
			retriever.GET("/stats", s.RetrieverStats)
		}

		chat := api.Group("/chat")
		{
			chat.POST("/send", ipLimit("chat_send"), s.SendChat)
		}
	}
}
