package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/ragdesk/ragdesk/app/logic/v1"
	"github.com/ragdesk/ragdesk/app/response"
	"github.com/ragdesk/ragdesk/pkg/utils"
)

type RetrieverTestRequest struct {
	DatasetID string `json:"dataset_id"`
	Query     string `json:"query" binding:"required"`
	TopK      uint64 `json:"top_k"`
}

// RetrieverTest 检索调试接口，返回截断后的片段预览
func (s *HttpSrv) RetrieverTest(c *gin.Context) {
	var (
		err error
		req RetrieverTestRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	previews, err := v1.NewRetrieverLogic(c, s.Core).Test(req.DatasetID, req.Query, req.TopK)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, previews)
}

func (s *HttpSrv) RetrieverStats(c *gin.Context) {
	stats, err := v1.NewRetrieverLogic(c, s.Core).Stats()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, stats)
}
