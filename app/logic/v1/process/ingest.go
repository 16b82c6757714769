package process

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/ragdesk/ragdesk/pkg/chunker"
	"github.com/ragdesk/ragdesk/pkg/errors"
	"github.com/ragdesk/ragdesk/pkg/i18n"
	"github.com/ragdesk/ragdesk/pkg/types"
)

func errEmptySource(name string) error {
	return errors.New("Process.ingest.empty", i18n.ERROR_INGEST_EMPTY_SOURCE, fmt.Errorf("no valid content in %s", name))
}

func errEmbeddingMismatch(want, got int) error {
	return fmt.Errorf("embedding result mismatch, want %d got %d", want, got)
}

const ingestTimeout = time.Minute * 10

func (p *Process) handleIngest(req *IngestRequest) {
	ctx, cancel := context.WithTimeout(p.ctx, ingestTimeout)
	defer cancel()

	doc, err := p.core.Store().DocumentStore().Get(ctx, req.KBID, req.DocumentID)
	if err != nil || doc == nil {
		slog.Error("ingest target document missing",
			slog.String("kb_id", req.KBID), slog.String("document_id", req.DocumentID), slog.Any("error", err))
		return
	}

	kb, err := p.core.Store().KnowledgeBaseStore().Get(ctx, req.KBID)
	if err != nil || kb == nil {
		// 知识库在排队期间被删掉了，文档记录也已级联清理
		slog.Warn("ingest target knowledge base missing", slog.String("kb_id", req.KBID))
		return
	}

	timer := p.core.Metrics().IngestTimer(doc.Type)
	defer timer.ObserveDuration()

	chunkNum, err := p.ingest(ctx, kb, doc)
	if err != nil {
		slog.Error("document ingest failed",
			slog.String("kb_id", req.KBID), slog.String("document_id", req.DocumentID), slog.Any("error", err))
		p.core.Metrics().IngestDocInc(string(types.DOCUMENT_STATUS_FAILED))
		// 上一轮的向量与计数未动，切片数保持原值，删除时才能对上
		_ = p.core.Store().DocumentStore().UpdateStatus(ctx, req.KBID, req.DocumentID, types.DOCUMENT_STATUS_FAILED, doc.ChunkNum)
		return
	}

	p.core.Metrics().IngestDocInc(string(types.DOCUMENT_STATUS_COMPLETED))
	p.core.Metrics().IngestChunkAdd(chunkNum)
	slog.Info("document ingested",
		slog.String("kb_id", req.KBID), slog.String("document_id", req.DocumentID), slog.Int("chunks", chunkNum))
}

// ingest 解析、切片、向量化并提交。同一文档重复摄取的提交是幂等的：
// 事务内先清空该文档旧向量，再写入本轮切片。
func (p *Process) ingest(ctx context.Context, kb *types.KnowledgeBase, doc *types.Document) (int, error) {
	sources, err := extractSources(*doc)
	if err != nil {
		return 0, err
	}
	if len(sources) == 0 {
		return 0, errEmptySource(doc.Name)
	}

	var chunks []types.Chunk
	for _, source := range sources {
		cs, err := chunker.Chunk(source, kb.ChunkSize, kb.ChunkOverlap)
		if err != nil {
			return 0, err
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		return 0, errEmptySource(doc.Name)
	}

	contents := lo.Map(chunks, func(c types.Chunk, _ int) string {
		return c.Content
	})
	embedding, err := p.core.Srv().AI().EmbeddingForDocument(ctx, doc.Name, contents)
	if err != nil {
		return 0, err
	}
	if len(embedding.Data) != len(chunks) {
		return 0, errEmbeddingMismatch(len(chunks), len(embedding.Data))
	}

	now := time.Now().Unix()
	entries := make([]types.VectorEntry, 0, len(chunks))
	for i, c := range chunks {
		entries = append(entries, types.VectorEntry{
			ID:             c.ID,
			DocumentID:     doc.ID,
			KBID:           kb.ID,
			ChunkIndex:     c.Index,
			Content:        c.Content,
			Metadata:       c.Metadata,
			Embedding:      pgvector.NewVector(embedding.Data[i]),
			OriginalLength: len([]rune(c.Content)),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	err = p.core.Store().Transaction(ctx, func(ctx context.Context) error {
		if err := p.core.Store().VectorStore().DeleteByDocument(ctx, kb.ID, doc.ID); err != nil {
			return err
		}
		return p.core.Store().VectorStore().BatchCreate(ctx, entries)
	})
	if err != nil {
		return 0, err
	}

	chunkDelta := len(entries) - doc.ChunkNum
	if err = p.core.Store().DocumentStore().UpdateStatus(ctx, kb.ID, doc.ID, types.DOCUMENT_STATUS_COMPLETED, len(entries)); err != nil {
		return 0, err
	}
	if err = p.core.Store().KnowledgeBaseStore().UpdateCounters(ctx, kb.ID, 0, chunkDelta); err != nil {
		return 0, err
	}

	return len(entries), nil
}
