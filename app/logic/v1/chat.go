package v1

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/ragdesk/ragdesk/app/core"
	"github.com/ragdesk/ragdesk/pkg/ai"
	"github.com/ragdesk/ragdesk/pkg/errors"
	"github.com/ragdesk/ragdesk/pkg/i18n"
	"github.com/ragdesk/ragdesk/pkg/safe"
	"github.com/ragdesk/ragdesk/pkg/types"
)

type ChatLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewChatLogic(ctx context.Context, core *core.Core) *ChatLogic {
	return &ChatLogic{
		ctx:  ctx,
		core: core,
	}
}

// SubmitTask 提交异步问答任务，立即返回 task_id，
// 检索与生成由该任务独享的后台 worker 推进
func (l *ChatLogic) SubmitTask(question, model, kbID string) (*types.ChatTask, error) {
	if question == "" {
		return nil, errors.New("ChatLogic.SubmitTask.question", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	task := types.ChatTask{
		TaskID:    uuid.NewString(),
		Status:    types.CHAT_TASK_STATUS_PROCESSING,
		Question:  question,
		Model:     model,
		CreatedAt: time.Now().Unix(),
	}
	if err := l.core.Store().ChatTaskStore().Create(l.ctx, task); err != nil {
		return nil, errors.New("ChatLogic.SubmitTask.ChatTaskStore.Create", i18n.ERROR_INTERNAL, err)
	}
	l.core.Metrics().ChatTaskInc(string(types.CHAT_TASK_STATUS_PROCESSING))

	c := l.core
	go safe.Run(func() {
		runChatTask(c, task.TaskID, question, model, kbID)
	})

	return &task, nil
}

func runChatTask(c *core.Core, taskID, question, model, kbID string) {
	timeout := time.Duration(c.Cfg().Chat.GenerateTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fail := func(err error) {
		now := time.Now().Unix()
		task, _ := c.Store().ChatTaskStore().Get(ctx, taskID)
		if task == nil {
			return
		}
		task.Status = types.CHAT_TASK_STATUS_FAILED
		task.Error = err.Error()
		task.FailedAt = now
		_ = c.Store().ChatTaskStore().Update(ctx, *task)
		c.Metrics().ChatTaskInc(string(types.CHAT_TASK_STATUS_FAILED))
	}

	if !advanceTask(ctx, c, taskID, types.CHAT_TASK_STATUS_RETRIEVING) {
		return
	}

	passages, err := NewRetrieverLogic(ctx, c).Retrieve(kbID, question, 0)
	if err != nil {
		fail(err)
		return
	}

	if !advanceTask(ctx, c, taskID, types.CHAT_TASK_STATUS_GENERATING) {
		return
	}

	driver := c.Srv().AI()
	prompt := ai.BuildRAGPrompt("", ai.NewDocs(passages), ai.QueryLang(question))
	messages := []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: prompt},
		{Role: goopenai.ChatMessageRoleUser, Content: question},
	}

	if err = checkPromptBudget(c, model, messages); err != nil {
		fail(err)
		return
	}

	timer := c.Metrics().GenerateTimer(driver.Name())
	resp, err := driver.Query(ctx, messages)
	timer.ObserveDuration()
	if err != nil {
		fail(errors.New("ChatLogic.runChatTask.Query", i18n.ERROR_GENERATION_FAILED, err))
		return
	}

	answer := resp.Message()
	if model == "" {
		model = resp.Model
	}

	now := time.Now().Unix()
	task, _ := c.Store().ChatTaskStore().Get(ctx, taskID)
	if task == nil {
		return
	}
	task.Status = types.CHAT_TASK_STATUS_COMPLETED
	task.Message = answer
	task.Model = model
	task.CompletedAt = now
	task.Result = buildCompletion(taskID, model, question, answer, now)
	_ = c.Store().ChatTaskStore().Update(ctx, *task)
	c.Metrics().ChatTaskInc(string(types.CHAT_TASK_STATUS_COMPLETED))
}

var countPromptTokens = ai.NumTokens

// checkPromptBudget 生成前的上下文预算检查，超限不再请求模型。
// 取不到对应模型的分词器时放行，由模型侧自行限长。
func checkPromptBudget(c *core.Core, model string, messages []goopenai.ChatCompletionMessage) error {
	limit := c.Cfg().Chat.MaxPromptTokens
	if limit <= 0 {
		return nil
	}

	n, err := countPromptTokens(messages, model)
	if err != nil {
		slog.Warn("prompt token count unavailable", slog.String("model", model), slog.Any("error", err))
		return nil
	}
	if n > limit {
		return errors.New("ChatLogic.checkPromptBudget", i18n.ERROR_PROMPT_TOO_LONG,
			fmt.Errorf("prompt tokens %d exceed limit %d", n, limit)).Code(http.StatusBadRequest)
	}
	return nil
}

// advanceTask 推进任务状态，任务已被清理时返回 false 终止 worker
func advanceTask(ctx context.Context, c *core.Core, taskID string, status types.ChatTaskStatus) bool {
	task, err := c.Store().ChatTaskStore().Get(ctx, taskID)
	if err != nil || task == nil {
		return false
	}
	task.Status = status
	if err = c.Store().ChatTaskStore().Update(ctx, *task); err != nil {
		return false
	}
	return true
}

// buildCompletion 组装 OpenAI completion 风格的结果，
// token 用量按问题与回答的空白分词计数
func buildCompletion(taskID, model, question, answer string, created int64) *types.ChatCompletion {
	id := taskID
	if len(id) > 10 {
		id = id[:10]
	}
	return &types.ChatCompletion{
		ID:      "chatcmpl-" + id,
		Object:  "chat.completion",
		Created: created,
		Model:   model,
		Choices: []types.ChatChoice{
			{
				Index: 0,
				Message: types.ChatMessageBody{
					Role:    goopenai.ChatMessageRoleAssistant,
					Content: answer,
				},
				FinishReason: "stop",
			},
		},
		Usage: ai.EstimateUsage(question, answer),
	}
}

// GetTask 查询任务。过期的终态任务在此惰性驱逐并按不存在处理。
func (l *ChatLogic) GetTask(taskID string) (*types.ChatTask, error) {
	task, err := l.core.Store().ChatTaskStore().Get(l.ctx, taskID)
	if err != nil {
		return nil, errors.New("ChatLogic.GetTask.ChatTaskStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if task == nil {
		return nil, errors.New("ChatLogic.GetTask.notfound", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	retention := time.Duration(l.core.Cfg().Chat.TaskRetentionSeconds) * time.Second
	if task.IsTerminal() && task.TerminalAt() < time.Now().Add(-retention).Unix() {
		_ = l.core.Store().ChatTaskStore().Delete(l.ctx, taskID)
		return nil, errors.New("ChatLogic.GetTask.expired", i18n.ERROR_TASK_EXPIRED, nil).Code(http.StatusNotFound)
	}
	return task, nil
}

func (l *ChatLogic) ListRecentTasks(limit int) ([]types.ChatTask, int64, error) {
	retention := time.Duration(l.core.Cfg().Chat.TaskRetentionSeconds) * time.Second
	_, _ = l.core.Store().ChatTaskStore().EvictExpired(l.ctx, retention)

	if limit <= 0 || limit > 100 {
		limit = types.DEFAULT_PAGE_SIZE
	}
	list, err := l.core.Store().ChatTaskStore().ListRecent(l.ctx, limit)
	if err != nil {
		return nil, 0, errors.New("ChatLogic.ListRecentTasks.ChatTaskStore.ListRecent", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().ChatTaskStore().Total(l.ctx)
	if err != nil {
		return nil, 0, errors.New("ChatLogic.ListRecentTasks.ChatTaskStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

// SendSync 同步问答，不落任务表，老接口兼容用
func (l *ChatLogic) SendSync(question, kbID string) (*types.ChatCompletion, error) {
	if question == "" {
		return nil, errors.New("ChatLogic.SendSync.question", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	passages, err := NewRetrieverLogic(l.ctx, l.core).Retrieve(kbID, question, 0)
	if err != nil {
		return nil, errors.Trace("ChatLogic.SendSync", err)
	}

	driver := l.core.Srv().AI()
	prompt := ai.BuildRAGPrompt("", ai.NewDocs(passages), ai.QueryLang(question))
	messages := []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: prompt},
		{Role: goopenai.ChatMessageRoleUser, Content: question},
	}

	if err = checkPromptBudget(l.core, "", messages); err != nil {
		return nil, err
	}

	timer := l.core.Metrics().GenerateTimer(driver.Name())
	resp, err := driver.Query(l.ctx, messages)
	timer.ObserveDuration()
	if err != nil {
		return nil, errors.New("ChatLogic.SendSync.Query", i18n.ERROR_GENERATION_FAILED, err)
	}

	answer := resp.Message()
	return buildCompletion(uuid.NewString(), resp.Model, question, answer, time.Now().Unix()), nil
}
