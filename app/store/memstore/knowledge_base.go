package memstore

import (
	"context"
	"sort"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/ragdesk/ragdesk/pkg/types"
)

type KnowledgeBaseStore struct {
	items cmap.ConcurrentMap[string, types.KnowledgeBase]
	// 保护计数读改写与删除之间的竞争
	mu sync.Mutex
}

func NewKnowledgeBaseStore() *KnowledgeBaseStore {
	return &KnowledgeBaseStore{
		items: cmap.New[types.KnowledgeBase](),
	}
}

func (s *KnowledgeBaseStore) Create(ctx context.Context, data types.KnowledgeBase) error {
	s.items.Set(data.ID, data)
	return nil
}

func (s *KnowledgeBaseStore) Get(ctx context.Context, id string) (*types.KnowledgeBase, error) {
	item, ok := s.items.Get(id)
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *KnowledgeBaseStore) List(ctx context.Context, page, pageSize uint64) ([]types.KnowledgeBase, error) {
	var list []types.KnowledgeBase
	for _, v := range s.items.Items() {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt < list[j].CreatedAt
		}
		return list[i].ID < list[j].ID
	})
	return paginate(list, page, pageSize), nil
}

func (s *KnowledgeBaseStore) Total(ctx context.Context) (int64, error) {
	return int64(s.items.Count()), nil
}

// UpdateCounters 按增量调整文档数与切片数，目标不存在时静默返回
func (s *KnowledgeBaseStore) UpdateCounters(ctx context.Context, id string, docDelta, chunkDelta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items.Get(id)
	if !ok {
		return nil
	}
	item.DocumentCount += docDelta
	item.ChunkCount += chunkDelta
	if item.DocumentCount < 0 {
		item.DocumentCount = 0
	}
	if item.ChunkCount < 0 {
		item.ChunkCount = 0
	}
	s.items.Set(id, item)
	return nil
}

func (s *KnowledgeBaseStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.Remove(id)
	return nil
}

// paginate page 从 1 开始，pageSize 为 0 时返回全量
func paginate[T any](list []T, page, pageSize uint64) []T {
	if pageSize == types.NO_PAGINATION {
		return list
	}
	if page == 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= uint64(len(list)) {
		return nil
	}
	end := start + pageSize
	if end > uint64(len(list)) {
		end = uint64(len(list))
	}
	return list[start:end]
}
