package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ragdesk/ragdesk/pkg/ai"
	"github.com/ragdesk/ragdesk/pkg/utils"
)

const (
	NAME = "mock"

	ModelChat      = "mock-chat"
	ModelEmbedding = "mock-embedding"
)

// EmbeddingDimension 与 openai driver 的维度一致，
// 两种 driver 产出的向量可以落进同一张向量表
const EmbeddingDimension = 1024

// Driver 离线演示用的模型实现。向量化采用词袋特征哈希，
// 同一文本必定得到同一向量，且词面重叠越多余弦相似度越高，
// 足够支撑无外部模型时的检索链路与测试。
type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (s *Driver) Name() string {
	return NAME
}

func (s *Driver) Lang() string {
	return ai.MODEL_BASE_LANGUAGE_CN
}

func (s *Driver) embedding(content []string) ai.EmbeddingResult {
	result := ai.EmbeddingResult{
		Model: ModelEmbedding,
		Usage: &openai.Usage{},
	}
	for _, text := range content {
		result.Data = append(result.Data, Embed(text))
		result.Usage.PromptTokens += len(strings.Fields(text))
	}
	result.Usage.TotalTokens = result.Usage.PromptTokens
	return result
}

func (s *Driver) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(content), nil
}

func (s *Driver) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(content), nil
}

func (s *Driver) Query(ctx context.Context, messages []openai.ChatCompletionMessage) (ai.GenerateResponse, error) {
	var question string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == openai.ChatMessageRoleUser {
			question = messages[i].Content
			break
		}
	}

	var answer string
	if utils.IsChineseText(question) {
		answer = fmt.Sprintf("【演示模式】当前未配置模型服务。您的问题是：%s。接入模型后，系统将基于知识库召回的资料生成正式回答。", question)
	} else {
		answer = fmt.Sprintf("[Demo mode] No model service is configured. Your question was: %s. Once a model is connected, answers will be generated from the retrieved knowledge base passages.", question)
	}

	var promptTokens int
	for _, m := range messages {
		promptTokens += len(strings.Fields(m.Content))
	}

	return ai.GenerateResponse{
		Received: []string{answer},
		Model:    ModelChat,
		Usage: &openai.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: len(strings.Fields(answer)),
			TotalTokens:      promptTokens + len(strings.Fields(answer)),
		},
	}, nil
}

// Embed 词袋特征哈希。英文按空白分词，CJK 逐字计入，
// 最后做 L2 归一化
func Embed(text string) []float32 {
	vec := make([]float32, EmbeddingDimension)
	for _, token := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		vec[h.Sum64()%EmbeddingDimension] += 1
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, strings.ToLower(word.String()))
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}
