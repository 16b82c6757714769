package v1

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/ragdesk/ragdesk/app/core"
	"github.com/ragdesk/ragdesk/app/logic/v1/process"
	"github.com/ragdesk/ragdesk/pkg/errors"
	"github.com/ragdesk/ragdesk/pkg/i18n"
	"github.com/ragdesk/ragdesk/pkg/types"
	"github.com/ragdesk/ragdesk/pkg/utils"
)

// 允许上传的文件类型，解析能力之外的类型直接拒绝
var allowedUploadExt = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".csv":  true,
	".xlsx": true,
}

var enqueueIngest = process.EnqueueIngest

type DocumentLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewDocumentLogic(ctx context.Context, core *core.Core) *DocumentLogic {
	return &DocumentLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *DocumentLogic) mustGetKB(kbID string) (*types.KnowledgeBase, error) {
	kb, err := l.core.Store().KnowledgeBaseStore().Get(l.ctx, kbID)
	if err != nil {
		return nil, errors.New("DocumentLogic.mustGetKB", i18n.ERROR_INTERNAL, err)
	}
	if kb == nil {
		return nil, errors.New("DocumentLogic.mustGetKB.notfound", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return kb, nil
}

// UploadDocument 落盘文件、登记记录并交给后台摄取。
// 文档 ID 由文件名推导，重复上传同名文件会触发重新摄取。
func (l *DocumentLogic) UploadDocument(kbID string, fileHeader *multipart.FileHeader) (*types.Document, error) {
	if _, err := l.mustGetKB(kbID); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedUploadExt[ext] {
		return nil, errors.New("DocumentLogic.UploadDocument.ext", i18n.ERROR_UNSUPPORTED_FILE_TYPE, nil).Code(http.StatusBadRequest)
	}

	docID := utils.DerivedID("doc", fileHeader.Filename)
	dir := filepath.Join(l.core.Cfg().Ingest.DataDir, kbID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New("DocumentLogic.UploadDocument.MkdirAll", i18n.ERROR_INTERNAL, err)
	}

	dst := filepath.Join(dir, fileHeader.Filename)
	if err := saveUploadedFile(fileHeader, dst); err != nil {
		return nil, errors.New("DocumentLogic.UploadDocument.save", i18n.ERROR_INTERNAL, err)
	}

	existing, err := l.core.Store().DocumentStore().Get(l.ctx, kbID, docID)
	if err != nil {
		return nil, errors.New("DocumentLogic.UploadDocument.DocumentStore.Get", i18n.ERROR_INTERNAL, err)
	}

	doc := types.Document{
		ID:        docID,
		Name:      fileHeader.Filename,
		KBID:      kbID,
		FilePath:  dst,
		Size:      fmt.Sprintf("%.1f KB", float64(fileHeader.Size)/1024),
		Status:    types.DOCUMENT_STATUS_PROCESSING,
		CreatedAt: time.Now().Unix(),
		Type:      strings.TrimPrefix(ext, "."),
	}
	if existing != nil {
		// 重新上传：保留首登时间与上一轮切片数，摄取完成后按差值修正计数
		doc.CreatedAt = existing.CreatedAt
		doc.ChunkNum = existing.ChunkNum
	}

	if err = l.core.Store().DocumentStore().Create(l.ctx, doc); err != nil {
		return nil, errors.New("DocumentLogic.UploadDocument.DocumentStore.Create", i18n.ERROR_INTERNAL, err)
	}
	if existing == nil {
		if err = l.core.Store().KnowledgeBaseStore().UpdateCounters(l.ctx, kbID, 1, 0); err != nil {
			return nil, errors.New("DocumentLogic.UploadDocument.UpdateCounters", i18n.ERROR_INTERNAL, err)
		}
	}

	if !enqueueIngest(&process.IngestRequest{KBID: kbID, DocumentID: docID}) {
		// 入队失败立即判失败，记录不能停留在 processing
		_ = l.core.Store().DocumentStore().UpdateStatus(l.ctx, kbID, docID, types.DOCUMENT_STATUS_FAILED, doc.ChunkNum)
		return nil, errors.New("DocumentLogic.UploadDocument.enqueue", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests)
	}

	return &doc, nil
}

func saveUploadedFile(fileHeader *multipart.FileHeader, dst string) error {
	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func (l *DocumentLogic) ListDocuments(kbID, keywords string, page, pageSize uint64) ([]types.Document, int64, error) {
	if _, err := l.mustGetKB(kbID); err != nil {
		return nil, 0, err
	}
	if pageSize == 0 || pageSize > 100 {
		pageSize = types.DEFAULT_PAGE_SIZE
	}

	if keywords == "" {
		list, err := l.core.Store().DocumentStore().List(l.ctx, kbID, page, pageSize)
		if err != nil {
			return nil, 0, errors.New("DocumentLogic.ListDocuments.DocumentStore.List", i18n.ERROR_INTERNAL, err)
		}
		total, err := l.core.Store().DocumentStore().Total(l.ctx, kbID)
		if err != nil {
			return nil, 0, errors.New("DocumentLogic.ListDocuments.DocumentStore.Total", i18n.ERROR_INTERNAL, err)
		}
		return list, total, nil
	}

	// 关键字按文件名过滤，先过滤后分页
	all, err := l.core.Store().DocumentStore().ListAll(l.ctx, kbID)
	if err != nil {
		return nil, 0, errors.New("DocumentLogic.ListDocuments.DocumentStore.ListAll", i18n.ERROR_INTERNAL, err)
	}
	kw := strings.ToLower(keywords)
	matched := lo.Filter(all, func(d types.Document, _ int) bool {
		return strings.Contains(strings.ToLower(d.Name), kw)
	})

	total := int64(len(matched))
	if page == 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= uint64(len(matched)) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > uint64(len(matched)) {
		end = uint64(len(matched))
	}
	return matched[start:end], total, nil
}

// DeleteDocuments 批量删除文档：回收向量、修正计数、清理落盘文件。
// 不存在的 ID 跳过，返回实际删除数量。
func (l *DocumentLogic) DeleteDocuments(kbID string, ids []string) (int, error) {
	if _, err := l.mustGetKB(kbID); err != nil {
		return 0, err
	}

	var deleted int
	for _, id := range ids {
		doc, err := l.core.Store().DocumentStore().Get(l.ctx, kbID, id)
		if err != nil {
			return deleted, errors.New("DocumentLogic.DeleteDocuments.DocumentStore.Get", i18n.ERROR_INTERNAL, err)
		}
		if doc == nil {
			continue
		}

		err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
			if err := l.core.Store().VectorStore().DeleteByDocument(ctx, kbID, id); err != nil {
				return err
			}
			if err := l.core.Store().DocumentStore().Delete(ctx, kbID, id); err != nil {
				return err
			}
			return l.core.Store().KnowledgeBaseStore().UpdateCounters(ctx, kbID, -1, -doc.ChunkNum)
		})
		if err != nil {
			return deleted, errors.New("DocumentLogic.DeleteDocuments.Transaction", i18n.ERROR_INTERNAL, err)
		}

		if doc.FilePath != "" {
			_ = os.Remove(doc.FilePath)
		}
		deleted++
	}
	return deleted, nil
}
