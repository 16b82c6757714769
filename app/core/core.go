package core

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ragdesk/ragdesk/app/core/srv"
	"github.com/ragdesk/ragdesk/app/store"
	"github.com/ragdesk/ragdesk/app/store/memstore"
	"github.com/ragdesk/ragdesk/app/store/sqlstore"
	"github.com/ragdesk/ragdesk/pkg/utils"
)

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	stores store.Store

	httpClient *http.Client
	httpEngine *gin.Engine

	metrics *Metrics
}

type SetupOption func(*Core)

// WithStore 使用外部存储实现，替代按配置组合的默认存储
func WithStore(s store.Store) SetupOption {
	return func(c *Core) {
		c.stores = s
	}
}

func MustSetupCore(cfg CoreConfig, opts ...SetupOption) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28,   //days
				Compress:   true, // disabled by default
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	utils.SetupIDWorker(0)

	core := &Core{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Second * 3},
		metrics:    NewMetrics("ragdesk", "core"),
		httpEngine: gin.New(),
	}

	for _, opt := range opts {
		opt(core)
	}
	if core.stores == nil {
		setupStore(core)
	}

	core.srv = srv.SetupSrvs(srv.ApplyAI(cfg.AI))

	return core
}

// setupStore 组合存储层。注册表始终在内存中，
// 配置了 Postgres 时向量索引与事务切到 pgvector。
func setupStore(core *Core) {
	if core.cfg.Postgres.DSN == "" {
		slog.Warn("postgres not configured, vector index lives in memory")
		core.stores = memstore.New()
		return
	}

	provider := sqlstore.MustSetup(core.cfg.Postgres)()
	if err := provider.Install(); err != nil {
		panic(err)
	}

	core.stores = memstore.New(
		memstore.WithVectorStore(provider.VectorStore()),
		memstore.WithTransaction(provider.Transaction),
	)
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Store() store.Store {
	return s.stores
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}
