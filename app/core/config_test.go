package core

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoreConfig_Defaults(t *testing.T) {
	c := CoreConfig{}
	c.applyDefaults()

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, 512, c.Ingest.ChunkSize)
	assert.Equal(t, 50, c.Ingest.ChunkOverlap)
	assert.Equal(t, 3600, c.Chat.TaskRetentionSeconds)
	assert.Equal(t, 5, c.Chat.TopK)
}

func TestLog_SlogLevel(t *testing.T) {
	l := Log{Level: "warn"}
	assert.Equal(t, slog.LevelWarn, l.SlogLevel())

	l = Log{}
	assert.Equal(t, slog.LevelDebug, l.SlogLevel())
}
