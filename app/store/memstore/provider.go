package memstore

import (
	"context"

	"github.com/ragdesk/ragdesk/app/store"
)

// Provider 进程内存实现。知识库、文档、任务注册表常驻内存，
// 向量索引默认同样在内存中，配置了 Postgres 时通过 WithVectorStore
// 替换为 pgvector 实现，注册表行为保持不变。
type Provider struct {
	kb          *KnowledgeBaseStore
	documents   *DocumentStore
	chatTasks   *ChatTaskStore
	vectors     store.VectorStore
	transaction func(ctx context.Context, next func(ctx context.Context) error) error
}

type Option func(*Provider)

func WithVectorStore(vs store.VectorStore) Option {
	return func(p *Provider) {
		p.vectors = vs
	}
}

// WithTransaction 使用外部事务实现，与 WithVectorStore 配套传入
func WithTransaction(fn func(ctx context.Context, next func(ctx context.Context) error) error) Option {
	return func(p *Provider) {
		p.transaction = fn
	}
}

func New(opts ...Option) *Provider {
	p := &Provider{
		kb:        NewKnowledgeBaseStore(),
		documents: NewDocumentStore(),
		chatTasks: NewChatTaskStore(),
		vectors:   NewVectorStore(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) KnowledgeBaseStore() store.KnowledgeBaseStore {
	return p.kb
}

func (p *Provider) DocumentStore() store.DocumentStore {
	return p.documents
}

func (p *Provider) ChatTaskStore() store.ChatTaskStore {
	return p.chatTasks
}

func (p *Provider) VectorStore() store.VectorStore {
	return p.vectors
}

func (p *Provider) Transaction(ctx context.Context, next func(ctx context.Context) error) error {
	if p.transaction != nil {
		return p.transaction(ctx, next)
	}
	return next(ctx)
}
