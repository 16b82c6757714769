package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/ragdesk/ragdesk/app/logic/v1"
	"github.com/ragdesk/ragdesk/app/response"
	"github.com/ragdesk/ragdesk/pkg/errors"
	"github.com/ragdesk/ragdesk/pkg/i18n"
	"github.com/ragdesk/ragdesk/pkg/types"
	"github.com/ragdesk/ragdesk/pkg/utils"
)

type CreateDatasetRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

func (s *HttpSrv) CreateDataset(c *gin.Context) {
	var (
		err error
		req CreateDatasetRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	kb, err := v1.NewDatasetLogic(c, s.Core).CreateDataset(req.Name, req.Description, req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, kb)
}

func (s *HttpSrv) GetDataset(c *gin.Context) {
	datasetID, exist := c.Params.Get("dataset_id")
	if !exist || datasetID == "" {
		response.APIError(c, errors.New("api.GetDataset", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	kb, err := v1.NewDatasetLogic(c, s.Core).GetDataset(datasetID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, kb)
}

type ListDatasetsRequest struct {
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"page_size" form:"page_size"`
}

func (s *HttpSrv) ListDatasets(c *gin.Context) {
	var (
		err error
		req ListDatasetsRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, total, err := v1.NewDatasetLogic(c, s.Core).ListDatasets(req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, response.ListResult[types.KnowledgeBase]{
		List:  list,
		Total: total,
	})
}

func (s *HttpSrv) DeleteDataset(c *gin.Context) {
	datasetID, exist := c.Params.Get("dataset_id")
	if !exist || datasetID == "" {
		response.APIError(c, errors.New("api.DeleteDataset", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	if err := v1.NewDatasetLogic(c, s.Core).DeleteDataset(datasetID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
