package v1

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/app/core"
	"github.com/ragdesk/ragdesk/app/core/srv"
	"github.com/ragdesk/ragdesk/app/store"
	"github.com/ragdesk/ragdesk/app/store/memstore"
	"github.com/ragdesk/ragdesk/pkg/errors"
	"github.com/ragdesk/ragdesk/pkg/types"
)

func waitTaskTerminal(t *testing.T, c *core.Core, taskID string) types.ChatTask {
	t.Helper()

	var task *types.ChatTask
	require.Eventually(t, func() bool {
		var err error
		task, err = c.Store().ChatTaskStore().Get(testCtx(), taskID)
		if err != nil || task == nil {
			return false
		}
		return task.IsTerminal()
	}, 10*time.Second, 20*time.Millisecond)
	return *task
}

func TestChatLogic_SubmitTaskCompletes(t *testing.T) {
	c := newTestCoreWithProcess(t)
	l := NewChatLogic(testCtx(), c)

	task, err := l.SubmitTask("如何申请退货？", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, task.TaskID)
	assert.Equal(t, types.CHAT_TASK_STATUS_PROCESSING, task.Status)

	done := waitTaskTerminal(t, c, task.TaskID)
	require.Equal(t, types.CHAT_TASK_STATUS_COMPLETED, done.Status)
	assert.NotZero(t, done.CompletedAt)
	assert.NotEmpty(t, done.Message)

	require.NotNil(t, done.Result)
	assert.True(t, strings.HasPrefix(done.Result.ID, "chatcmpl-"))
	assert.Equal(t, "chat.completion", done.Result.Object)
	require.Len(t, done.Result.Choices, 1)
	assert.Equal(t, "assistant", done.Result.Choices[0].Message.Role)
	assert.Equal(t, "stop", done.Result.Choices[0].FinishReason)

	// token 统计为问题与回答的空白分词数
	usage := done.Result.Usage
	assert.Equal(t, usage.PromptTokens+usage.CompletionTokens, usage.TotalTokens)
	assert.Equal(t, len(strings.Fields(done.Message)), usage.CompletionTokens)
}

// taskStatusRecorder 记录任务每次落库的状态，校验状态机走向用
type taskStatusRecorder struct {
	store.ChatTaskStore
	mu       sync.Mutex
	statuses []types.ChatTaskStatus
}

func (r *taskStatusRecorder) Update(ctx context.Context, task types.ChatTask) error {
	r.mu.Lock()
	r.statuses = append(r.statuses, task.Status)
	r.mu.Unlock()
	return r.ChatTaskStore.Update(ctx, task)
}

type recordingTaskStore struct {
	store.Store
	tasks *taskStatusRecorder
}

func (s *recordingTaskStore) ChatTaskStore() store.ChatTaskStore { return s.tasks }

func TestChatLogic_TaskStatusProgression(t *testing.T) {
	base := memstore.New()
	rec := &taskStatusRecorder{ChatTaskStore: base.ChatTaskStore()}
	c := newTestCore(t, core.WithStore(&recordingTaskStore{Store: base, tasks: rec}))
	l := NewChatLogic(testCtx(), c)

	task, err := l.SubmitTask("如何申请退货？", "", "")
	require.NoError(t, err)

	done := waitTaskTerminal(t, c, task.TaskID)
	require.Equal(t, types.CHAT_TASK_STATUS_COMPLETED, done.Status)

	rec.mu.Lock()
	got := append([]types.ChatTaskStatus(nil), rec.statuses...)
	rec.mu.Unlock()
	assert.Equal(t, []types.ChatTaskStatus{
		types.CHAT_TASK_STATUS_RETRIEVING,
		types.CHAT_TASK_STATUS_GENERATING,
		types.CHAT_TASK_STATUS_COMPLETED,
	}, got)
}

func TestChatLogic_PromptTokenBudget(t *testing.T) {
	orig := countPromptTokens
	countPromptTokens = func(messages []goopenai.ChatCompletionMessage, model string) (int, error) {
		return 128, nil
	}
	t.Cleanup(func() { countPromptTokens = orig })

	c := core.MustSetupCore(core.CoreConfig{
		Addr: ":0",
		AI:   srv.AIConfig{Driver: "mock"},
		Ingest: core.IngestConfig{
			DataDir:      t.TempDir(),
			Workers:      1,
			ChunkSize:    512,
			ChunkOverlap: 50,
		},
		Chat: core.ChatConfig{
			TaskRetentionSeconds:   3600,
			GenerateTimeoutSeconds: 30,
			TopK:                   5,
			MaxPromptTokens:        64,
		},
	})
	l := NewChatLogic(testCtx(), c)

	_, err := l.SendSync("如何申请退货？", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.GetCode(err))

	task, err := l.SubmitTask("如何申请退货？", "", "")
	require.NoError(t, err)
	done := waitTaskTerminal(t, c, task.TaskID)
	assert.Equal(t, types.CHAT_TASK_STATUS_FAILED, done.Status)
	assert.Contains(t, done.Error, "exceed limit")
}

func TestChatLogic_SubmitTaskValidation(t *testing.T) {
	c := newTestCoreWithProcess(t)
	l := NewChatLogic(testCtx(), c)

	_, err := l.SubmitTask("", "", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.GetCode(err))
}

func TestChatLogic_GetTaskNotFound(t *testing.T) {
	c := newTestCore(t)
	l := NewChatLogic(testCtx(), c)

	_, err := l.GetTask("no-such-task")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.GetCode(err))
}

func TestChatLogic_ExpiredTaskEvictedOnPoll(t *testing.T) {
	c := newTestCore(t)
	l := NewChatLogic(testCtx(), c)

	old := time.Now().Add(-2 * time.Hour).Unix()
	require.NoError(t, c.Store().ChatTaskStore().Create(testCtx(), types.ChatTask{
		TaskID:      "expired-task",
		Status:      types.CHAT_TASK_STATUS_COMPLETED,
		Question:    "q",
		CreatedAt:   old,
		CompletedAt: old,
	}))

	_, err := l.GetTask("expired-task")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.GetCode(err))

	// 惰性驱逐后任务已物理删除
	got, err := c.Store().ChatTaskStore().Get(testCtx(), "expired-task")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChatLogic_ListRecentTasks(t *testing.T) {
	c := newTestCoreWithProcess(t)
	l := NewChatLogic(testCtx(), c)

	first, err := l.SubmitTask("第一个问题", "", "")
	require.NoError(t, err)
	waitTaskTerminal(t, c, first.TaskID)

	second, err := l.SubmitTask("第二个问题", "", "")
	require.NoError(t, err)
	waitTaskTerminal(t, c, second.TaskID)

	list, total, err := l.ListRecentTasks(10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
}

func TestChatLogic_SendSync(t *testing.T) {
	c := newTestCoreWithProcess(t)
	l := NewChatLogic(testCtx(), c)

	completion, err := l.SendSync("how do I return an item?", "")
	require.NoError(t, err)
	require.Len(t, completion.Choices, 1)
	assert.NotEmpty(t, completion.Choices[0].Message.Content)
	assert.True(t, strings.HasPrefix(completion.ID, "chatcmpl-"))

	_, err = l.SendSync("", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.GetCode(err))
}
