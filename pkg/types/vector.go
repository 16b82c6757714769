package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
)

// Meta 切片元信息，jsonb 存储
type Meta map[string]string

func (m Meta) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Meta) Scan(value interface{}) error {
	if value == nil {
		*m = Meta{}
		return nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected meta column type %T", value)
	}
	return json.Unmarshal(raw, m)
}

func (m Meta) Clone() Meta {
	n := make(Meta, len(m))
	for k, v := range m {
		n[k] = v
	}
	return n
}

// VectorEntry 向量索引条目，id 即 chunk_id，与切片一一对应
type VectorEntry struct {
	ID             string          `json:"id" db:"id"`
	DocumentID     string          `json:"document_id" db:"document_id"`
	KBID           string          `json:"kb_id" db:"kb_id"`
	ChunkIndex     int             `json:"chunk_index" db:"chunk_index"`
	Content        string          `json:"content" db:"content"`
	Metadata       Meta            `json:"metadata" db:"metadata"`
	Embedding      pgvector.Vector `json:"embedding" db:"embedding"`
	OriginalLength int             `json:"original_length" db:"original_length"`
	CreatedAt      int64           `json:"created_at" db:"created_at"`
	UpdatedAt      int64           `json:"updated_at" db:"updated_at"`
}

// RetrievedChunk 相似度检索结果
type RetrievedChunk struct {
	ID         string  `json:"id" db:"id"`
	DocumentID string  `json:"document_id" db:"document_id"`
	Content    string  `json:"content" db:"content"`
	Metadata   Meta    `json:"metadata" db:"metadata"`
	Score      float32 `json:"score" db:"cos"`
}

type GetVectorsOptions struct {
	ID         string
	IDs        []string
	KBID       string
	DocumentID string
}

func (opts GetVectorsOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	}
	if len(opts.IDs) > 0 {
		*query = query.Where(sq.Eq{"id": opts.IDs})
	}
	if opts.KBID != "" {
		*query = query.Where(sq.Eq{"kb_id": opts.KBID})
	}
	if opts.DocumentID != "" {
		*query = query.Where(sq.Eq{"document_id": opts.DocumentID})
	}
}

// Match 内存索引使用的过滤判断，与 Apply 的 SQL 条件保持一致
func (opts GetVectorsOptions) Match(entry VectorEntry) bool {
	if opts.ID != "" && entry.ID != opts.ID {
		return false
	}
	if len(opts.IDs) > 0 {
		hit := false
		for _, id := range opts.IDs {
			if entry.ID == id {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if opts.KBID != "" && entry.KBID != opts.KBID {
		return false
	}
	if opts.DocumentID != "" && entry.DocumentID != opts.DocumentID {
		return false
	}
	return true
}
