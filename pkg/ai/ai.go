package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ragdesk/ragdesk/pkg/types"
	"github.com/ragdesk/ragdesk/pkg/utils"
)

const (
	MODEL_BASE_LANGUAGE_CN = "CN"
	MODEL_BASE_LANGUAGE_EN = "EN"
)

type ModelName struct {
	ChatModel      string
	EmbeddingModel string
}

type Lang interface {
	Lang() string
}

type Embedder interface {
	EmbeddingForQuery(ctx context.Context, content []string) (EmbeddingResult, error)
	EmbeddingForDocument(ctx context.Context, title string, content []string) (EmbeddingResult, error)
}

type Generator interface {
	Query(ctx context.Context, messages []openai.ChatCompletionMessage) (GenerateResponse, error)
}

// Driver 模型接入层。服务启动时选定一个实现，之后所有
// 向量化与生成请求都走同一个 driver，不做运行期切换。
type Driver interface {
	Lang
	Embedder
	Generator
	Name() string
}

type EmbeddingResult struct {
	Model string
	Usage *openai.Usage
	Data  [][]float32
}

type GenerateResponse struct {
	Received []string      `json:"received"`
	Usage    *openai.Usage `json:"-"`
	Model    string        `json:"model"`
}

func (r GenerateResponse) Message() string {
	b := strings.Builder{}
	for i, item := range r.Received {
		if i != 0 {
			b.WriteString("\n")
		}
		b.WriteString(item)
	}
	return b.String()
}

// QueryLang 根据用户提问语言选择提示词语言，与 driver 自身语言无关
func QueryLang(question string) string {
	if utils.IsChineseText(question) {
		return MODEL_BASE_LANGUAGE_CN
	}
	return MODEL_BASE_LANGUAGE_EN
}

// BuildRAGPrompt 将召回片段填充进提示词模板。
// 召回为空时填 "null"，提示模型明确告知用户资料不足。
func BuildRAGPrompt(tpl string, docs Docs, lang string) string {
	if tpl == "" {
		switch lang {
		case MODEL_BASE_LANGUAGE_CN:
			tpl = GENERATE_PROMPT_TPL_CN
		default:
			tpl = GENERATE_PROMPT_TPL_EN
		}
	}

	d := docs.ConvertPassageToPromptText(lang)
	if d == "" {
		d = "null"
	}
	return strings.ReplaceAll(tpl, PROMPT_VAR_RELEVANT_PASSAGE, d)
}

type Docs interface {
	ConvertPassageToPromptText(lang string) string
}

type docs struct {
	list []types.RetrievedChunk
}

func NewDocs(list []types.RetrievedChunk) Docs {
	return &docs{
		list: list,
	}
}

func (d *docs) ConvertPassageToPromptText(lang string) string {
	switch lang {
	case MODEL_BASE_LANGUAGE_CN:
		return convertPassageToPromptTextCN(d.list)
	default:
		return convertPassageToPromptTextEN(d.list)
	}
}

func convertPassageToPromptTextCN(list []types.RetrievedChunk) string {
	s := strings.Builder{}
	for i, v := range list {
		if v.Content == "" {
			continue
		}
		if i != 0 {
			s.WriteString("------\n")
		}
		s.WriteString("片段ID：")
		s.WriteString(v.ID)
		s.WriteString("\n")
		if v.DocumentID != "" {
			s.WriteString("来源文档：")
			s.WriteString(v.DocumentID)
			s.WriteString("\n")
		}
		s.WriteString("内容：")
		s.WriteString(v.Content)
		s.WriteString("\n")
	}
	return s.String()
}

func convertPassageToPromptTextEN(list []types.RetrievedChunk) string {
	s := strings.Builder{}
	for i, v := range list {
		if v.Content == "" {
			continue
		}
		if i != 0 {
			s.WriteString("------\n")
		}
		s.WriteString("Passage ID: ")
		s.WriteString(v.ID)
		s.WriteString("\n")
		s.WriteString("Source Document: ")
		s.WriteString(v.DocumentID)
		s.WriteString("\nContent: ")
		s.WriteString(v.Content)
		s.WriteString("\n")
	}
	return s.String()
}

// EstimateUsage 以空白分词估算 token 用量，补齐上游未返回 usage 的情况
func EstimateUsage(prompt, completion string) types.ChatUsage {
	p := len(strings.Fields(prompt))
	c := len(strings.Fields(completion))
	return types.ChatUsage{
		PromptTokens:     p,
		CompletionTokens: c,
		TotalTokens:      p + c,
	}
}

func NumTokens(messages []openai.ChatCompletionMessage, model string) (numTokens int, err error) {
	var tokensPerMessage, tokensPerName int
	switch model {
	case "gpt-3.5-turbo-0613",
		"gpt-3.5-turbo-16k-0613",
		"gpt-4-0314",
		"gpt-4-32k-0314",
		"gpt-4-0613",
		"gpt-4-32k-0613":
		tokensPerMessage = 3
		tokensPerName = 1
	case "gpt-3.5-turbo-0301":
		tokensPerMessage = 4 // every message follows <|start|>{role/name}\n{content}<|end|>\n
		tokensPerName = -1   // if there's a name, the role is omitted
	default:
		if strings.Contains(model, "gpt-4") {
			return NumTokens(messages, "gpt-4-0613")
		} else {
			return NumTokens(messages, "gpt-3.5-turbo-0613")
		}
	}

	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		err = fmt.Errorf("encoding for model: %v", err)
		return
	}

	for _, message := range messages {
		numTokens += tokensPerMessage
		numTokens += len(tkm.Encode(message.Content, nil, nil))
		numTokens += len(tkm.Encode(message.Role, nil, nil))
		numTokens += len(tkm.Encode(message.Name, nil, nil))
		if message.Name != "" {
			numTokens += tokensPerName
		}
	}
	numTokens += 3 // every reply is primed with <|start|>assistant<|message|>
	return numTokens, nil
}
