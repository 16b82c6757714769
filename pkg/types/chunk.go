package types

import "fmt"

// Chunk 文档切片。ID 由原文档 ID 与切片序号推导，保证同一文档
// 以相同参数重复切片时产生完全相同的 ID 序列。
type Chunk struct {
	ID         string `json:"chunk_id"`
	Index      int    `json:"chunk_index"`
	OriginalID string `json:"original_id"`
	Content    string `json:"content"`
	Metadata   Meta   `json:"metadata"`
}

func ChunkID(originalID string, index int) string {
	return fmt.Sprintf("%s_%d", originalID, index)
}
