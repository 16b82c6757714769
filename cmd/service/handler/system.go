package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/ragdesk/ragdesk/app/logic/v1"
	"github.com/ragdesk/ragdesk/app/response"
)

type SystemStatusResponse struct {
	Status         string                 `json:"status"`
	Index          string                 `json:"index"`
	KnowledgeBases int64                  `json:"knowledge_bases"`
	Chunks         int64                  `json:"chunks"`
	AI             map[string]interface{} `json:"ai"`
}

func (s *HttpSrv) SystemStatus(c *gin.Context) {
	index := "memory"
	if s.Core.Cfg().Postgres.DSN != "" {
		index = "pgvector"
	}

	stats, err := v1.NewRetrieverLogic(c, s.Core).Stats()
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, SystemStatusResponse{
		Status:         "ok",
		Index:          index,
		KnowledgeBases: stats.KnowledgeBases,
		Chunks:         stats.Chunks,
		AI:             stats.AI,
	})
}
