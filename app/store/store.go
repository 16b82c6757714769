package store

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/ragdesk/ragdesk/pkg/types"
)

// KnowledgeBaseStore 知识库注册表。Get 未命中时返回 (nil, nil)。
type KnowledgeBaseStore interface {
	Create(ctx context.Context, data types.KnowledgeBase) error
	Get(ctx context.Context, id string) (*types.KnowledgeBase, error)
	List(ctx context.Context, page, pageSize uint64) ([]types.KnowledgeBase, error)
	Total(ctx context.Context) (int64, error)
	// UpdateCounters 按增量调整文档数与切片数，删除文档时传负数
	UpdateCounters(ctx context.Context, id string, docDelta, chunkDelta int) error
	Delete(ctx context.Context, id string) error
}

// DocumentStore 文档注册表，记录按知识库分组。Get 未命中时返回 (nil, nil)。
type DocumentStore interface {
	Create(ctx context.Context, data types.Document) error
	Get(ctx context.Context, kbID, id string) (*types.Document, error)
	List(ctx context.Context, kbID string, page, pageSize uint64) ([]types.Document, error)
	ListAll(ctx context.Context, kbID string) ([]types.Document, error)
	Total(ctx context.Context, kbID string) (int64, error)
	UpdateStatus(ctx context.Context, kbID, id string, status types.DocumentStatus, chunkNum int) error
	Delete(ctx context.Context, kbID, id string) error
	DeleteByKB(ctx context.Context, kbID string) error
}

// ChatTaskStore 异步问答任务表。Get 未命中时返回 (nil, nil)。
type ChatTaskStore interface {
	Create(ctx context.Context, task types.ChatTask) error
	Get(ctx context.Context, taskID string) (*types.ChatTask, error)
	Update(ctx context.Context, task types.ChatTask) error
	Delete(ctx context.Context, taskID string) error
	// ListRecent 按创建时间倒序返回最近的任务
	ListRecent(ctx context.Context, limit int) ([]types.ChatTask, error)
	Total(ctx context.Context) (int64, error)
	// EvictExpired 清理终态时间早于 ttl 的任务，返回清理数量
	EvictExpired(ctx context.Context, ttl time.Duration) (int, error)
}

// VectorStore 向量索引。幂等写入由调用方在事务内先删后插完成。
type VectorStore interface {
	BatchCreate(ctx context.Context, datas []types.VectorEntry) error
	BatchDelete(ctx context.Context, ids []string) error
	DeleteByDocument(ctx context.Context, kbID, documentID string) error
	RetractByKB(ctx context.Context, kbID string) error
	ListVectors(ctx context.Context, opts types.GetVectorsOptions, page, pageSize uint64) ([]types.VectorEntry, error)
	Query(ctx context.Context, opts types.GetVectorsOptions, vector pgvector.Vector, limit uint64) ([]types.RetrievedChunk, error)
	Total(ctx context.Context, opts types.GetVectorsOptions) (int64, error)
}

type Store interface {
	KnowledgeBaseStore() KnowledgeBaseStore
	DocumentStore() DocumentStore
	ChatTaskStore() ChatTaskStore
	VectorStore() VectorStore
	Transaction(ctx context.Context, next func(ctx context.Context) error) error
}
