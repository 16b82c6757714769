package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ragdesk/ragdesk/app/core/srv"
	"github.com/ragdesk/ragdesk/pkg/types"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}
	conf.applyDefaults()

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	c.applyDefaults()
	return c
}

type CoreConfig struct {
	Addr     string       `toml:"addr"`
	Log      Log          `toml:"log"`
	Postgres PGConfig     `toml:"postgres"`
	AI       srv.AIConfig `toml:"ai"`
	Ingest   IngestConfig `toml:"ingest"`
	Chat     ChatConfig   `toml:"chat"`
}

// IngestConfig 摄取流水线配置
type IngestConfig struct {
	// DataDir 上传文件的落盘目录
	DataDir string `toml:"data_dir"`
	// Workers 摄取 worker 数量
	Workers int `toml:"workers"`
	// 切片默认参数，创建知识库时可覆盖
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
}

// ChatConfig 问答任务配置
type ChatConfig struct {
	// TaskRetentionSeconds 终态任务的保留时长，超过后对外表现为不存在
	TaskRetentionSeconds int `toml:"task_retention_seconds"`
	// GenerateTimeoutSeconds 单次生成的超时时间
	GenerateTimeoutSeconds int `toml:"generate_timeout_seconds"`
	// TopK 每次检索召回的切片数
	TopK int `toml:"top_k"`
	// MaxPromptTokens 发送给模型的消息 token 上限，0 表示不限制
	MaxPromptTokens int `toml:"max_prompt_tokens"`
}

func (c *CoreConfig) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Ingest.DataDir == "" {
		c.Ingest.DataDir = "./data/uploads"
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 2
	}
	if c.Ingest.ChunkSize <= 0 {
		c.Ingest.ChunkSize = types.DEFAULT_CHUNK_SIZE
	}
	if c.Ingest.ChunkOverlap <= 0 {
		c.Ingest.ChunkOverlap = types.DEFAULT_CHUNK_OVERLAP
	}
	if c.Chat.TaskRetentionSeconds <= 0 {
		c.Chat.TaskRetentionSeconds = 3600
	}
	if c.Chat.GenerateTimeoutSeconds <= 0 {
		c.Chat.GenerateTimeoutSeconds = 120
	}
	if c.Chat.TopK <= 0 {
		c.Chat.TopK = 5
	}
	if c.Chat.MaxPromptTokens <= 0 {
		c.Chat.MaxPromptTokens = 8000
	}
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("RAGDESK_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.AI.FromENV()
	c.Ingest.DataDir = os.Getenv("RAGDESK_DATA_DIR")
	if workers := os.Getenv("RAGDESK_INGEST_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Ingest.Workers = n
		}
	}
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("RAGDESK_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("RAGDESK_LOG_LEVEL")
	l.Path = os.Getenv("RAGDESK_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
