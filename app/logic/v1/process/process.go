package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ragdesk/ragdesk/app/core"
	"github.com/ragdesk/ragdesk/pkg/safe"
)

// IngestRequest 摄取请求，上传接口入队，worker 消费
type IngestRequest struct {
	KBID       string
	DocumentID string
}

type Process struct {
	ctx  context.Context
	core *core.Core
	cron *cron.Cron

	ingestChan chan *IngestRequest
}

var p *Process

// Start 启动摄取 worker 池与过期任务清扫
func Start(core *core.Core) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	p = &Process{
		ctx:        ctx,
		core:       core,
		cron:       cron.New(),
		ingestChan: make(chan *IngestRequest, 1000),
	}

	for i := 0; i < core.Cfg().Ingest.Workers; i++ {
		go safe.Run(p.runIngestWorker)
	}

	// 终态任务的兜底清扫，轮询接口的惰性驱逐之外再跑一道
	p.cron.AddFunc("@every 10m", func() {
		retention := time.Duration(core.Cfg().Chat.TaskRetentionSeconds) * time.Second
		evicted, err := core.Store().ChatTaskStore().EvictExpired(context.Background(), retention)
		if err != nil {
			slog.Error("failed to evict expired chat tasks", slog.Any("error", err))
			return
		}
		if evicted > 0 {
			slog.Info("expired chat tasks evicted", slog.Int("count", evicted))
		}
	})
	p.cron.Start()

	return func() {
		p.cron.Stop()
		cancel()
	}
}

// EnqueueIngest 非阻塞入队，队列满时返回 false
func EnqueueIngest(req *IngestRequest) bool {
	if p == nil {
		return false
	}
	select {
	case p.ingestChan <- req:
		return true
	default:
		return false
	}
}

func (p *Process) runIngestWorker() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case req := <-p.ingestChan:
			p.handleIngest(req)
		}
	}
}
