package types

type DocumentStatus string

const (
	DOCUMENT_STATUS_PROCESSING DocumentStatus = "processing"
	DOCUMENT_STATUS_COMPLETED  DocumentStatus = "completed"
	DOCUMENT_STATUS_FAILED     DocumentStatus = "failed"
)

// Document 文档登记记录，描述一次上传的文件及其处理状态。
// 与 IngestDocument 区分：后者是切片流水线的输入单元。
type Document struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	KBID      string         `json:"kb_id"`
	FilePath  string         `json:"file_path"`
	Size      string         `json:"size"`
	Status    DocumentStatus `json:"status"`
	ChunkNum  int            `json:"chunk_num"`
	CreatedAt int64          `json:"created_at"`
	Type      string         `json:"type"`
}

// IngestDocument 归一化后的摄取单元，CSV 的一行或一个文本文件。
// 进入 chunker 之前由摄取流水线构建，之后不再修改。
type IngestDocument struct {
	SourceID string `json:"source_id"`
	Content  string `json:"content"`
	Metadata Meta   `json:"metadata"`
}
