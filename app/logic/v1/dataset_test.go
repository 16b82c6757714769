package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/pkg/errors"
)

func TestDatasetLogic_CreateDataset(t *testing.T) {
	c := newTestCore(t)
	l := NewDatasetLogic(testCtx(), c)

	kb, err := l.CreateDataset("售后FAQ", "售后常见问题", 0, 0)
	require.NoError(t, err)
	assert.Regexp(t, `^kb_[0-9a-f]{8}$`, kb.ID)
	assert.Equal(t, 512, kb.ChunkSize)
	assert.Equal(t, 50, kb.ChunkOverlap)
	assert.Equal(t, "active", string(kb.Status))

	// 同名创建拒绝
	_, err = l.CreateDataset("售后FAQ", "", 0, 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, errors.GetCode(err))

	// 空名称拒绝
	_, err = l.CreateDataset("", "", 0, 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.GetCode(err))

	// 切片参数不合法拒绝
	_, err = l.CreateDataset("another", "", 100, 100)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.GetCode(err))
}

func TestDatasetLogic_GetAndList(t *testing.T) {
	c := newTestCore(t)
	l := NewDatasetLogic(testCtx(), c)

	_, err := l.GetDataset("kb_deadbeef")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.GetCode(err))

	created, err := l.CreateDataset("物流说明", "", 256, 32)
	require.NoError(t, err)

	got, err := l.GetDataset(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "物流说明", got.Name)
	assert.Equal(t, 256, got.ChunkSize)

	list, total, err := l.ListDatasets(1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestDatasetLogic_DeleteCascades(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)

	kb, err := dl.CreateDataset("退货政策", "", 0, 0)
	require.NoError(t, err)

	doc, err := docl.UploadDocument(kb.ID, buildUpload(t, "policy.txt", []byte("退货政策:商品签收后7天内可无理由退货。")))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb.ID, doc.ID)

	require.NoError(t, dl.DeleteDataset(kb.ID))

	// 注册表与向量索引都应清空
	_, err = dl.GetDataset(kb.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.GetCode(err))

	stats, err := NewRetrieverLogic(testCtx(), c).Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.Chunks)
	assert.EqualValues(t, 0, stats.KnowledgeBases)

	// 删除不存在的知识库报 404
	err = dl.DeleteDataset(kb.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.GetCode(err))
}
