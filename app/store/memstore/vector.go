package memstore

import (
	"context"
	"sort"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pgvector/pgvector-go"

	"github.com/ragdesk/ragdesk/pkg/types"
	"github.com/ragdesk/ragdesk/pkg/utils"
)

// VectorStore 内存向量索引，未配置 Postgres 时的兜底实现。
// 余弦相似度逐条计算，规模上限取决于内存，适合演示与测试。
type VectorStore struct {
	items cmap.ConcurrentMap[string, types.VectorEntry]
}

func NewVectorStore() *VectorStore {
	return &VectorStore{
		items: cmap.New[types.VectorEntry](),
	}
}

func (s *VectorStore) BatchCreate(ctx context.Context, datas []types.VectorEntry) error {
	now := time.Now().Unix()
	for _, data := range datas {
		if data.CreatedAt == 0 {
			data.CreatedAt = now
		}
		if data.UpdatedAt == 0 {
			data.UpdatedAt = now
		}
		s.items.Set(data.ID, data)
	}
	return nil
}

func (s *VectorStore) BatchDelete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		s.items.Remove(id)
	}
	return nil
}

func (s *VectorStore) DeleteByDocument(ctx context.Context, kbID, documentID string) error {
	for k, v := range s.items.Items() {
		if v.KBID == kbID && v.DocumentID == documentID {
			s.items.Remove(k)
		}
	}
	return nil
}

func (s *VectorStore) RetractByKB(ctx context.Context, kbID string) error {
	for k, v := range s.items.Items() {
		if v.KBID == kbID {
			s.items.Remove(k)
		}
	}
	return nil
}

func (s *VectorStore) ListVectors(ctx context.Context, opts types.GetVectorsOptions, page, pageSize uint64) ([]types.VectorEntry, error) {
	var list []types.VectorEntry
	for _, v := range s.items.Items() {
		if !opts.Match(v) {
			continue
		}
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt > list[j].CreatedAt
		}
		return list[i].ID < list[j].ID
	})
	return paginate(list, page, pageSize), nil
}

func (s *VectorStore) Query(ctx context.Context, opts types.GetVectorsOptions, vector pgvector.Vector, limit uint64) ([]types.RetrievedChunk, error) {
	target := vector.Slice()

	var res []types.RetrievedChunk
	for _, v := range s.items.Items() {
		if !opts.Match(v) {
			continue
		}
		res = append(res, types.RetrievedChunk{
			ID:         v.ID,
			DocumentID: v.DocumentID,
			Content:    v.Content,
			Metadata:   v.Metadata,
			Score:      float32(utils.Cosine(target, v.Embedding.Slice())),
		})
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].Score != res[j].Score {
			return res[i].Score > res[j].Score
		}
		return res[i].ID < res[j].ID
	})
	if limit > 0 && uint64(len(res)) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *VectorStore) Total(ctx context.Context, opts types.GetVectorsOptions) (int64, error) {
	var count int64
	for _, v := range s.items.Items() {
		if opts.Match(v) {
			count++
		}
	}
	return count, nil
}
