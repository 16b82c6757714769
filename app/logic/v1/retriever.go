package v1

import (
	"context"
	"net/http"

	"github.com/pgvector/pgvector-go"

	"github.com/ragdesk/ragdesk/app/core"
	"github.com/ragdesk/ragdesk/pkg/errors"
	"github.com/ragdesk/ragdesk/pkg/i18n"
	"github.com/ragdesk/ragdesk/pkg/types"
)

type RetrieverLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewRetrieverLogic(ctx context.Context, core *core.Core) *RetrieverLogic {
	return &RetrieverLogic{
		ctx:  ctx,
		core: core,
	}
}

// Retrieve 向量召回。kbID 为空时跨知识库检索。
func (l *RetrieverLogic) Retrieve(kbID, query string, topK uint64) ([]types.RetrievedChunk, error) {
	if query == "" {
		return nil, errors.New("RetrieverLogic.Retrieve.query", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	if topK == 0 {
		topK = uint64(l.core.Cfg().Chat.TopK)
	}

	timer := l.core.Metrics().RetrievalTimer()
	defer timer.ObserveDuration()

	embedding, err := l.core.Srv().AI().EmbeddingForQuery(l.ctx, []string{query})
	if err != nil || len(embedding.Data) == 0 {
		return nil, errors.New("RetrieverLogic.Retrieve.embedding", i18n.ERROR_RETRIEVAL_UNAVAILABLE, err).Code(http.StatusServiceUnavailable)
	}

	res, err := l.core.Store().VectorStore().Query(l.ctx, types.GetVectorsOptions{
		KBID: kbID,
	}, pgvector.NewVector(embedding.Data[0]), topK)
	if err != nil {
		return nil, errors.New("RetrieverLogic.Retrieve.VectorStore.Query", i18n.ERROR_RETRIEVAL_UNAVAILABLE, err).Code(http.StatusServiceUnavailable)
	}
	return res, nil
}

// RetrievalPreview 检索调试接口的结果项，正文截断为预览
type RetrievalPreview struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	Preview    string  `json:"preview"`
	Score      float32 `json:"score"`
}

const previewRuneLimit = 200

// Test 检索调试，返回截断后的片段预览与相似度分值
func (l *RetrieverLogic) Test(kbID, query string, topK uint64) ([]RetrievalPreview, error) {
	res, err := l.Retrieve(kbID, query, topK)
	if err != nil {
		return nil, errors.Trace("RetrieverLogic.Test", err)
	}

	previews := make([]RetrievalPreview, 0, len(res))
	for _, r := range res {
		preview := r.Content
		if runes := []rune(preview); len(runes) > previewRuneLimit {
			preview = string(runes[:previewRuneLimit]) + "..."
		}
		previews = append(previews, RetrievalPreview{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			Preview:    preview,
			Score:      r.Score,
		})
	}
	return previews, nil
}

// RetrieverStats 检索侧运行状态
type RetrieverStats struct {
	KnowledgeBases int64                  `json:"knowledge_bases"`
	Chunks         int64                  `json:"chunks"`
	AI             map[string]interface{} `json:"ai"`
}

func (l *RetrieverLogic) Stats() (*RetrieverStats, error) {
	kbTotal, err := l.core.Store().KnowledgeBaseStore().Total(l.ctx)
	if err != nil {
		return nil, errors.New("RetrieverLogic.Stats.KnowledgeBaseStore.Total", i18n.ERROR_INTERNAL, err)
	}
	chunkTotal, err := l.core.Store().VectorStore().Total(l.ctx, types.GetVectorsOptions{})
	if err != nil {
		return nil, errors.New("RetrieverLogic.Stats.VectorStore.Total", i18n.ERROR_INTERNAL, err)
	}

	return &RetrieverStats{
		KnowledgeBases: kbTotal,
		Chunks:         chunkTotal,
		AI:             l.core.Srv().AIStatus(),
	}, nil
}
