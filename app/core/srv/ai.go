package srv

import (
	"log/slog"
	"os"

	"github.com/ragdesk/ragdesk/pkg/ai"
	"github.com/ragdesk/ragdesk/pkg/ai/mock"
	"github.com/ragdesk/ragdesk/pkg/ai/openai"
)

type AIConfig struct {
	Driver         string `toml:"driver"`
	Token          string `toml:"token"`
	Endpoint       string `toml:"endpoint"`
	ChatModel      string `toml:"chat_model"`
	EmbeddingModel string `toml:"embedding_model"`
}

func (c *AIConfig) FromENV() {
	c.Driver = os.Getenv("RAGDESK_AI_DRIVER")
	c.Token = os.Getenv("RAGDESK_AI_TOKEN")
	c.Endpoint = os.Getenv("RAGDESK_AI_ENDPOINT")
	c.ChatModel = os.Getenv("RAGDESK_AI_CHAT_MODEL")
	c.EmbeddingModel = os.Getenv("RAGDESK_AI_EMBEDDING_MODEL")
}

type AI struct {
	driver ai.Driver
}

// ApplyAI 启动时选定模型 driver。未配置 token 或显式指定 mock 时
// 进入演示模式，整条问答链路仍然可用。
func ApplyAI(cfg AIConfig) ApplyFunc {
	return func(s *Srv) {
		s.ai = &AI{
			driver: setupAIDriver(cfg),
		}
	}
}

func setupAIDriver(cfg AIConfig) ai.Driver {
	if cfg.Driver == mock.NAME || cfg.Token == "" {
		slog.Warn("ai driver not configured, fallback to demo mode", slog.String("driver", mock.NAME))
		return mock.New()
	}

	slog.Info("ai driver ready", slog.String("driver", openai.NAME), slog.String("endpoint", cfg.Endpoint))
	return openai.New(cfg.Token, cfg.Endpoint, ai.ModelName{
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
	})
}
