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

func (s *HttpSrv) UploadDocument(c *gin.Context) {
	datasetID, exist := c.Params.Get("dataset_id")
	if !exist || datasetID == "" {
		response.APIError(c, errors.New("api.UploadDocument", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.APIError(c, errors.New("api.UploadDocument.FormFile", i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest))
		return
	}

	doc, err := v1.NewDocumentLogic(c, s.Core).UploadDocument(datasetID, fileHeader)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, doc)
}

type ListDocumentsRequest struct {
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"page_size" form:"page_size"`
	Keywords string `json:"keywords" form:"keywords"`
}

func (s *HttpSrv) ListDocuments(c *gin.Context) {
	datasetID, exist := c.Params.Get("dataset_id")
	if !exist || datasetID == "" {
		response.APIError(c, errors.New("api.ListDocuments", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	var (
		err error
		req ListDocumentsRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, total, err := v1.NewDocumentLogic(c, s.Core).ListDocuments(datasetID, req.Keywords, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, response.ListResult[types.Document]{
		List:  list,
		Total: total,
	})
}

type DeleteDocumentsRequest struct {
	DocumentIDs []string `json:"document_ids" binding:"required"`
}

type DeleteDocumentsResponse struct {
	Deleted int `json:"deleted"`
}

func (s *HttpSrv) DeleteDocuments(c *gin.Context) {
	datasetID, exist := c.Params.Get("dataset_id")
	if !exist || datasetID == "" {
		response.APIError(c, errors.New("api.DeleteDocuments", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	var (
		err error
		req DeleteDocumentsRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	deleted, err := v1.NewDocumentLogic(c, s.Core).DeleteDocuments(datasetID, req.DocumentIDs)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, DeleteDocumentsResponse{
		Deleted: deleted,
	})
}
