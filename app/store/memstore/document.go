package memstore

import (
	"context"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/ragdesk/ragdesk/pkg/types"
)

type DocumentStore struct {
	// key 为 kbID/documentID，文档按知识库分组
	items cmap.ConcurrentMap[string, types.Document]
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		items: cmap.New[types.Document](),
	}
}

func documentKey(kbID, id string) string {
	return kbID + "/" + id
}

func (s *DocumentStore) Create(ctx context.Context, data types.Document) error {
	s.items.Set(documentKey(data.KBID, data.ID), data)
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, kbID, id string) (*types.Document, error) {
	item, ok := s.items.Get(documentKey(kbID, id))
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *DocumentStore) ListAll(ctx context.Context, kbID string) ([]types.Document, error) {
	var list []types.Document
	for _, v := range s.items.Items() {
		if v.KBID != kbID {
			continue
		}
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt < list[j].CreatedAt
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *DocumentStore) List(ctx context.Context, kbID string, page, pageSize uint64) ([]types.Document, error) {
	list, err := s.ListAll(ctx, kbID)
	if err != nil {
		return nil, err
	}
	return paginate(list, page, pageSize), nil
}

func (s *DocumentStore) Total(ctx context.Context, kbID string) (int64, error) {
	var count int64
	for _, v := range s.items.Items() {
		if v.KBID == kbID {
			count++
		}
	}
	return count, nil
}

func (s *DocumentStore) UpdateStatus(ctx context.Context, kbID, id string, status types.DocumentStatus, chunkNum int) error {
	key := documentKey(kbID, id)
	item, ok := s.items.Get(key)
	if !ok {
		return nil
	}
	item.Status = status
	item.ChunkNum = chunkNum
	s.items.Set(key, item)
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, kbID, id string) error {
	s.items.Remove(documentKey(kbID, id))
	return nil
}

func (s *DocumentStore) DeleteByKB(ctx context.Context, kbID string) error {
	for k, v := range s.items.Items() {
		if v.KBID == kbID {
			s.items.Remove(k)
		}
	}
	return nil
}
