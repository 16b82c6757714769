package memstore

import (
	"context"
	"sort"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/ragdesk/ragdesk/pkg/types"
)

type ChatTaskStore struct {
	items cmap.ConcurrentMap[string, types.ChatTask]
}

func NewChatTaskStore() *ChatTaskStore {
	return &ChatTaskStore{
		items: cmap.New[types.ChatTask](),
	}
}

func (s *ChatTaskStore) Create(ctx context.Context, task types.ChatTask) error {
	s.items.Set(task.TaskID, task)
	return nil
}

func (s *ChatTaskStore) Get(ctx context.Context, taskID string) (*types.ChatTask, error) {
	item, ok := s.items.Get(taskID)
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *ChatTaskStore) Update(ctx context.Context, task types.ChatTask) error {
	s.items.Set(task.TaskID, task)
	return nil
}

func (s *ChatTaskStore) Delete(ctx context.Context, taskID string) error {
	s.items.Remove(taskID)
	return nil
}

func (s *ChatTaskStore) ListRecent(ctx context.Context, limit int) ([]types.ChatTask, error) {
	var list []types.ChatTask
	for _, v := range s.items.Items() {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt > list[j].CreatedAt
		}
		return list[i].TaskID > list[j].TaskID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *ChatTaskStore) Total(ctx context.Context) (int64, error) {
	return int64(s.items.Count()), nil
}

// EvictExpired 清理终态时间早于 ttl 的任务。
// 进行中的任务不参与过期，避免 worker 写回时任务已不存在。
func (s *ChatTaskStore) EvictExpired(ctx context.Context, ttl time.Duration) (int, error) {
	deadline := time.Now().Add(-ttl).Unix()
	var evicted int
	for k, v := range s.items.Items() {
		if !v.IsTerminal() {
			continue
		}
		if v.TerminalAt() < deadline {
			s.items.Remove(k)
			evicted++
		}
	}
	return evicted, nil
}
