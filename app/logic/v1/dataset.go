package v1

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ragdesk/ragdesk/app/core"
	"github.com/ragdesk/ragdesk/pkg/errors"
	"github.com/ragdesk/ragdesk/pkg/i18n"
	"github.com/ragdesk/ragdesk/pkg/types"
	"github.com/ragdesk/ragdesk/pkg/utils"
)

type DatasetLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewDatasetLogic(ctx context.Context, core *core.Core) *DatasetLogic {
	return &DatasetLogic{
		ctx:  ctx,
		core: core,
	}
}

// CreateDataset 创建知识库。ID 由名称推导，同名创建视为冲突。
func (l *DatasetLogic) CreateDataset(name, description string, chunkSize, chunkOverlap int) (*types.KnowledgeBase, error) {
	if name == "" {
		return nil, errors.New("DatasetLogic.CreateDataset.name", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	id := utils.DerivedID("kb", name)
	exist, err := l.core.Store().KnowledgeBaseStore().Get(l.ctx, id)
	if err != nil {
		return nil, errors.New("DatasetLogic.CreateDataset.KnowledgeBaseStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if exist != nil {
		return nil, errors.New("DatasetLogic.CreateDataset.exist", i18n.ERROR_EXIST, nil).Code(http.StatusConflict)
	}

	if chunkSize <= 0 {
		chunkSize = l.core.Cfg().Ingest.ChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = l.core.Cfg().Ingest.ChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		return nil, errors.New("DatasetLogic.CreateDataset.chunk", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	kb := types.KnowledgeBase{
		ID:           id,
		Name:         name,
		Description:  description,
		ChunkMethod:  types.DEFAULT_CHUNK_METHOD,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Status:       types.KB_STATUS_ACTIVE,
		CreatedAt:    time.Now().Unix(),
	}
	if err = l.core.Store().KnowledgeBaseStore().Create(l.ctx, kb); err != nil {
		return nil, errors.New("DatasetLogic.CreateDataset.KnowledgeBaseStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return &kb, nil
}

func (l *DatasetLogic) GetDataset(id string) (*types.KnowledgeBase, error) {
	kb, err := l.core.Store().KnowledgeBaseStore().Get(l.ctx, id)
	if err != nil {
		return nil, errors.New("DatasetLogic.GetDataset.KnowledgeBaseStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if kb == nil {
		return nil, errors.New("DatasetLogic.GetDataset.notfound", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return kb, nil
}

func (l *DatasetLogic) ListDatasets(page, pageSize uint64) ([]types.KnowledgeBase, int64, error) {
	if pageSize == 0 || pageSize > 100 {
		pageSize = types.DEFAULT_PAGE_SIZE
	}
	list, err := l.core.Store().KnowledgeBaseStore().List(l.ctx, page, pageSize)
	if err != nil {
		return nil, 0, errors.New("DatasetLogic.ListDatasets.KnowledgeBaseStore.List", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().KnowledgeBaseStore().Total(l.ctx)
	if err != nil {
		return nil, 0, errors.New("DatasetLogic.ListDatasets.KnowledgeBaseStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

// DeleteDataset 删除知识库并级联回收：文档记录、落盘文件、向量索引
func (l *DatasetLogic) DeleteDataset(id string) error {
	kb, err := l.core.Store().KnowledgeBaseStore().Get(l.ctx, id)
	if err != nil {
		return errors.New("DatasetLogic.DeleteDataset.KnowledgeBaseStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if kb == nil {
		return errors.New("DatasetLogic.DeleteDataset.notfound", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	docs, err := l.core.Store().DocumentStore().ListAll(l.ctx, id)
	if err != nil {
		return errors.New("DatasetLogic.DeleteDataset.DocumentStore.ListAll", i18n.ERROR_INTERNAL, err)
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().VectorStore().RetractByKB(ctx, id); err != nil {
			return err
		}
		if err := l.core.Store().DocumentStore().DeleteByKB(ctx, id); err != nil {
			return err
		}
		return l.core.Store().KnowledgeBaseStore().Delete(ctx, id)
	})
	if err != nil {
		return errors.New("DatasetLogic.DeleteDataset.Transaction", i18n.ERROR_INTERNAL, err)
	}

	for _, doc := range docs {
		if doc.FilePath == "" {
			continue
		}
		_ = os.Remove(doc.FilePath)
	}
	_ = os.Remove(filepath.Join(l.core.Cfg().Ingest.DataDir, id))

	return nil
}
