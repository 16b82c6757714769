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

type CreateChatTaskRequest struct {
	Model     string                  `json:"model"`
	Messages  []types.ChatMessageBody `json:"messages" binding:"required"`
	DatasetID string                  `json:"dataset_id"`
}

type CreateChatTaskResponse struct {
	TaskID  string               `json:"task_id"`
	Status  types.ChatTaskStatus `json:"status"`
	PollURL string               `json:"poll_url"`
}

// CreateChatTask 提交异步问答任务，问题取最后一条 user 消息，
// 结果由 poll_url 轮询获取
func (s *HttpSrv) CreateChatTask(c *gin.Context) {
	var (
		err error
		req CreateChatTaskRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	var question string
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			question = msg.Content
		}
	}
	if question == "" {
		response.APIError(c, errors.New("api.CreateChatTask.messages", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	task, err := v1.NewChatLogic(c, s.Core).SubmitTask(question, req.Model, req.DatasetID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, CreateChatTaskResponse{
		TaskID:  task.TaskID,
		Status:  task.Status,
		PollURL: "/api/v1/chats/task/" + task.TaskID,
	})
}

func (s *HttpSrv) GetChatTask(c *gin.Context) {
	taskID, exist := c.Params.Get("task_id")
	if !exist || taskID == "" {
		response.APIError(c, errors.New("api.GetChatTask", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	task, err := v1.NewChatLogic(c, s.Core).GetTask(taskID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, task)
}

type ListChatTasksRequest struct {
	Limit int `json:"limit" form:"limit"`
}

func (s *HttpSrv) ListChatTasks(c *gin.Context) {
	var (
		err error
		req ListChatTasksRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, total, err := v1.NewChatLogic(c, s.Core).ListRecentTasks(req.Limit)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, response.ListResult[types.ChatTask]{
		List:  list,
		Total: total,
	})
}

type SendChatRequest struct {
	Question  string `json:"question" binding:"required"`
	DatasetID string `json:"dataset_id"`
}

// SendChat 同步问答，直接返回 completion
func (s *HttpSrv) SendChat(c *gin.Context) {
	var (
		err error
		req SendChatRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	completion, err := v1.NewChatLogic(c, s.Core).SendSync(req.Question, req.DatasetID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, completion)
}
