package types

const (
	KB_STATUS_ACTIVE = "active"

	DEFAULT_CHUNK_METHOD  = "naive"
	DEFAULT_CHUNK_SIZE    = 512
	DEFAULT_CHUNK_OVERLAP = 50
)

// KnowledgeBase 知识库，文档与切片的归属容器
type KnowledgeBase struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ChunkMethod   string `json:"chunk_method"`
	ChunkSize     int    `json:"chunk_size"`
	ChunkOverlap  int    `json:"chunk_overlap"`
	DocumentCount int    `json:"document_count"`
	ChunkCount    int    `json:"chunk_count"`
	Status        string `json:"status"`
	CreatedAt     int64  `json:"created_at"`
}
