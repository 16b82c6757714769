package types

type ChatTaskStatus string

const (
	CHAT_TASK_STATUS_PROCESSING ChatTaskStatus = "processing"
	CHAT_TASK_STATUS_RETRIEVING ChatTaskStatus = "retrieving"
	CHAT_TASK_STATUS_GENERATING ChatTaskStatus = "generating"
	CHAT_TASK_STATUS_COMPLETED  ChatTaskStatus = "completed"
	CHAT_TASK_STATUS_FAILED     ChatTaskStatus = "failed"
)

// ChatTask 异步问答任务。状态只能由其后台 worker 推进：
// processing -> retrieving -> generating -> completed，任意非终态可直接进入 failed。
type ChatTask struct {
	TaskID      string          `json:"task_id"`
	Status      ChatTaskStatus  `json:"status"`
	Question    string          `json:"question"`
	Model       string          `json:"model"`
	Message     string          `json:"message"`
	Result      *ChatCompletion `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	CompletedAt int64           `json:"completed_at,omitempty"`
	FailedAt    int64           `json:"failed_at,omitempty"`
}

func (t ChatTask) IsTerminal() bool {
	return t.Status == CHAT_TASK_STATUS_COMPLETED || t.Status == CHAT_TASK_STATUS_FAILED
}

// TerminalAt 终态时间戳，非终态返回 0
func (t ChatTask) TerminalAt() int64 {
	switch t.Status {
	case CHAT_TASK_STATUS_COMPLETED:
		return t.CompletedAt
	case CHAT_TASK_STATUS_FAILED:
		return t.FailedAt
	default:
		return 0
	}
}

// ChatCompletion OpenAI 风格的问答结果载体
type ChatCompletion struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

type ChatChoice struct {
	Index        int             `json:"index"`
	Message      ChatMessageBody `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type ChatMessageBody struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
