package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/pkg/ai/mock"
	"github.com/ragdesk/ragdesk/pkg/types"
)

func TestKnowledgeBaseStore_Counters(t *testing.T) {
	ctx := context.Background()
	s := NewKnowledgeBaseStore()

	require.NoError(t, s.Create(ctx, types.KnowledgeBase{ID: "kb_1a2b3c4d", Name: "faq", CreatedAt: 100}))

	require.NoError(t, s.UpdateCounters(ctx, "kb_1a2b3c4d", 1, 12))
	require.NoError(t, s.UpdateCounters(ctx, "kb_1a2b3c4d", 1, 8))

	kb, err := s.Get(ctx, "kb_1a2b3c4d")
	require.NoError(t, err)
	require.NotNil(t, kb)
	assert.Equal(t, 2, kb.DocumentCount)
	assert.Equal(t, 20, kb.ChunkCount)

	// 减到负数时归零
	require.NoError(t, s.UpdateCounters(ctx, "kb_1a2b3c4d", -5, -100))
	kb, _ = s.Get(ctx, "kb_1a2b3c4d")
	assert.Equal(t, 0, kb.DocumentCount)
	assert.Equal(t, 0, kb.ChunkCount)

	// 不存在的知识库静默返回，不应凭空建出记录
	require.NoError(t, s.UpdateCounters(ctx, "kb_missing", 1, 1))
	kb, err = s.Get(ctx, "kb_missing")
	require.NoError(t, err)
	assert.Nil(t, kb)
}

func TestKnowledgeBaseStore_ListPagination(t *testing.T) {
	ctx := context.Background()
	s := NewKnowledgeBaseStore()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Create(ctx, types.KnowledgeBase{
			ID:        fmt.Sprintf("kb_%08d", i),
			CreatedAt: int64(100 + i),
		}))
	}

	page1, err := s.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "kb_00000000", page1[0].ID)

	page3, err := s.List(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "kb_00000004", page3[0].ID)

	all, err := s.List(ctx, 1, types.NO_PAGINATION)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	empty, err := s.List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDocumentStore_GroupedByKB(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	require.NoError(t, s.Create(ctx, types.Document{ID: "doc_aa", KBID: "kb_1", Name: "a.txt", CreatedAt: 1}))
	require.NoError(t, s.Create(ctx, types.Document{ID: "doc_bb", KBID: "kb_1", Name: "b.txt", CreatedAt: 2}))
	require.NoError(t, s.Create(ctx, types.Document{ID: "doc_cc", KBID: "kb_2", Name: "c.txt", CreatedAt: 3}))

	total, err := s.Total(ctx, "kb_1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// 相同文档 ID 在不同知识库中互不干扰
	got, err := s.Get(ctx, "kb_2", "doc_aa")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.UpdateStatus(ctx, "kb_1", "doc_aa", types.DOCUMENT_STATUS_COMPLETED, 7))
	got, err = s.Get(ctx, "kb_1", "doc_aa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.DOCUMENT_STATUS_COMPLETED, got.Status)
	assert.Equal(t, 7, got.ChunkNum)

	require.NoError(t, s.DeleteByKB(ctx, "kb_1"))
	total, _ = s.Total(ctx, "kb_1")
	assert.EqualValues(t, 0, total)
	total, _ = s.Total(ctx, "kb_2")
	assert.EqualValues(t, 1, total)
}

func TestChatTaskStore_EvictExpired(t *testing.T) {
	ctx := context.Background()
	s := NewChatTaskStore()

	now := time.Now().Unix()
	old := now - 7200

	require.NoError(t, s.Create(ctx, types.ChatTask{
		TaskID: "t-old", Status: types.CHAT_TASK_STATUS_COMPLETED,
		CreatedAt: old, CompletedAt: old,
	}))
	require.NoError(t, s.Create(ctx, types.ChatTask{
		TaskID: "t-fresh", Status: types.CHAT_TASK_STATUS_COMPLETED,
		CreatedAt: now, CompletedAt: now,
	}))
	require.NoError(t, s.Create(ctx, types.ChatTask{
		TaskID: "t-running", Status: types.CHAT_TASK_STATUS_GENERATING,
		CreatedAt: old,
	}))

	evicted, err := s.EvictExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	got, _ := s.Get(ctx, "t-old")
	assert.Nil(t, got)
	got, _ = s.Get(ctx, "t-fresh")
	assert.NotNil(t, got)
	// 未完成的任务不回收，无论创建时间多早
	got, _ = s.Get(ctx, "t-running")
	assert.NotNil(t, got)
}

func TestChatTaskStore_ListRecent(t *testing.T) {
	ctx := context.Background()
	s := NewChatTaskStore()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Create(ctx, types.ChatTask{
			TaskID:    fmt.Sprintf("t-%d", i),
			Status:    types.CHAT_TASK_STATUS_PROCESSING,
			CreatedAt: int64(100 + i),
		}))
	}

	list, err := s.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "t-4", list[0].TaskID)
	assert.Equal(t, "t-2", list[2].TaskID)
}

func vectorEntry(id, docID, kbID, content string) types.VectorEntry {
	return types.VectorEntry{
		ID:         id,
		DocumentID: docID,
		KBID:       kbID,
		Content:    content,
		Metadata:   types.Meta{},
		Embedding:  pgvector.NewVector(mock.Embed(content)),
	}
}

func TestVectorStore_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()

	entries := []types.VectorEntry{
		vectorEntry("doc_aa_0", "doc_aa", "kb_1", "退货政策説明"),
		vectorEntry("doc_aa_1", "doc_aa", "kb_1", "运费相关说明"),
	}

	// 先删后插执行两轮，总量不变
	for i := 0; i < 2; i++ {
		require.NoError(t, s.BatchDelete(ctx, []string{"doc_aa_0", "doc_aa_1"}))
		require.NoError(t, s.BatchCreate(ctx, entries))
	}

	total, err := s.Total(ctx, types.GetVectorsOptions{KBID: "kb_1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestVectorStore_QueryOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()

	require.NoError(t, s.BatchCreate(ctx, []types.VectorEntry{
		vectorEntry("doc_aa_0", "doc_aa", "kb_1", "退货政策:商品签收后7天内可无理由申请退货"),
		vectorEntry("doc_aa_1", "doc_aa", "kb_1", "shipping usually takes two business days"),
		vectorEntry("doc_bb_0", "doc_bb", "kb_2", "退货运费由平台承担"),
	}))

	query := pgvector.NewVector(mock.Embed("如何申请退货"))
	res, err := s.Query(ctx, types.GetVectorsOptions{KBID: "kb_1"}, query, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)

	// 其他知识库的内容不应出现在结果中
	for _, r := range res {
		assert.NotEqual(t, "doc_bb_0", r.ID)
	}
	assert.Equal(t, "doc_aa_0", res[0].ID)
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)
}

func TestVectorStore_DeleteByDocumentAndKB(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()

	require.NoError(t, s.BatchCreate(ctx, []types.VectorEntry{
		vectorEntry("doc_aa_0", "doc_aa", "kb_1", "one"),
		vectorEntry("doc_bb_0", "doc_bb", "kb_1", "two"),
		vectorEntry("doc_cc_0", "doc_cc", "kb_2", "three"),
	}))

	require.NoError(t, s.DeleteByDocument(ctx, "kb_1", "doc_aa"))
	total, _ := s.Total(ctx, types.GetVectorsOptions{KBID: "kb_1"})
	assert.EqualValues(t, 1, total)

	require.NoError(t, s.RetractByKB(ctx, "kb_1"))
	total, _ = s.Total(ctx, types.GetVectorsOptions{})
	assert.EqualValues(t, 1, total)
}
