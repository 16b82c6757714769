package v1

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/app/core"
	"github.com/ragdesk/ragdesk/app/logic/v1/process"
	"github.com/ragdesk/ragdesk/pkg/errors"
	"github.com/ragdesk/ragdesk/pkg/types"
	"github.com/ragdesk/ragdesk/pkg/utils"
)

func waitDocumentCompleted(t *testing.T, c *core.Core, kbID, docID string) types.Document {
	t.Helper()

	var doc *types.Document
	require.Eventually(t, func() bool {
		var err error
		doc, err = c.Store().DocumentStore().Get(testCtx(), kbID, docID)
		if err != nil || doc == nil {
			return false
		}
		return doc.Status != types.DOCUMENT_STATUS_PROCESSING
	}, 10*time.Second, 20*time.Millisecond)

	require.Equal(t, types.DOCUMENT_STATUS_COMPLETED, doc.Status)
	return *doc
}

const faqCSV = "标题,描述,分类\n" +
	"如何申请退货,在订单页点击申请售后,售后\n" +
	",,\n" +
	"发货时间,付款后48小时内发货,物流\n"

func TestDocumentLogic_UploadCSV(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)

	kb, err := dl.CreateDataset("faq", "", 0, 0)
	require.NoError(t, err)

	doc, err := docl.UploadDocument(kb.ID, buildUpload(t, "faq.csv", []byte(faqCSV)))
	require.NoError(t, err)
	assert.Regexp(t, `^doc_[0-9a-f]{8}$`, doc.ID)
	assert.Equal(t, types.DOCUMENT_STATUS_PROCESSING, doc.Status)
	assert.Equal(t, "csv", doc.Type)

	// 3 行数据中 1 行为空，空行跳过，每行一个切片
	done := waitDocumentCompleted(t, c, kb.ID, doc.ID)
	assert.Equal(t, 2, done.ChunkNum)

	kbGot, err := dl.GetDataset(kb.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, kbGot.DocumentCount)
	assert.Equal(t, 2, kbGot.ChunkCount)

	// 切片 ID 绑定行号，稳定可追溯
	entries, err := c.Store().VectorStore().ListVectors(testCtx(), types.GetVectorsOptions{KBID: kb.ID}, 1, 100)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	ids := []string{entries[0].ID, entries[1].ID}
	assert.Contains(t, ids, doc.ID+"_row_1_0")
	assert.Contains(t, ids, doc.ID+"_row_2_0")
}

func TestDocumentLogic_UploadRejectsUnsupportedType(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)

	kb, err := dl.CreateDataset("faq", "", 0, 0)
	require.NoError(t, err)

	_, err = docl.UploadDocument(kb.ID, buildUpload(t, "evil.exe", []byte("MZ")))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.GetCode(err))

	// 不存在的知识库
	_, err = docl.UploadDocument("kb_deadbeef", buildUpload(t, "a.txt", []byte("hello")))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.GetCode(err))
}

func TestDocumentLogic_ReuploadIsIdempotent(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)

	kb, err := dl.CreateDataset("faq", "", 0, 0)
	require.NoError(t, err)

	doc, err := docl.UploadDocument(kb.ID, buildUpload(t, "faq.csv", []byte(faqCSV)))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb.ID, doc.ID)

	// 重复上传同名文件：文档数与切片数不翻倍
	doc2, err := docl.UploadDocument(kb.ID, buildUpload(t, "faq.csv", []byte(faqCSV)))
	require.NoError(t, err)
	assert.Equal(t, doc.ID, doc2.ID)
	waitDocumentCompleted(t, c, kb.ID, doc.ID)

	kbGot, err := dl.GetDataset(kb.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, kbGot.DocumentCount)
	assert.Equal(t, 2, kbGot.ChunkCount)

	total, err := c.Store().VectorStore().Total(testCtx(), types.GetVectorsOptions{KBID: kb.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestDocumentLogic_UploadQueueFull(t *testing.T) {
	orig := enqueueIngest
	enqueueIngest = func(*process.IngestRequest) bool { return false }
	t.Cleanup(func() { enqueueIngest = orig })

	c := newTestCore(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)

	kb, err := dl.CreateDataset("faq", "", 0, 0)
	require.NoError(t, err)

	_, err = docl.UploadDocument(kb.ID, buildUpload(t, "faq.csv", []byte(faqCSV)))
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, errors.GetCode(err))

	// 入队失败的记录不能停留在 processing
	doc, err := c.Store().DocumentStore().Get(testCtx(), kb.ID, utils.DerivedID("doc", "faq.csv"))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, types.DOCUMENT_STATUS_FAILED, doc.Status)
}

func TestDocumentLogic_FailedReingestKeepsCounters(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)

	kb, err := dl.CreateDataset("faq", "", 0, 0)
	require.NoError(t, err)

	doc, err := docl.UploadDocument(kb.ID, buildUpload(t, "faq.csv", []byte(faqCSV)))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb.ID, doc.ID)

	// 重新上传同名文件但没有有效行，本轮摄取失败
	_, err = docl.UploadDocument(kb.ID, buildUpload(t, "faq.csv", []byte("标题,描述,分类\n,,\n")))
	require.NoError(t, err)

	var failed *types.Document
	require.Eventually(t, func() bool {
		failed, err = c.Store().DocumentStore().Get(testCtx(), kb.ID, doc.ID)
		return err == nil && failed != nil && failed.Status == types.DOCUMENT_STATUS_FAILED
	}, 10*time.Second, 20*time.Millisecond)

	// 上一轮的切片数、向量与知识库计数原样保留
	assert.Equal(t, 2, failed.ChunkNum)
	kbGot, err := dl.GetDataset(kb.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, kbGot.ChunkCount)

	total, err := c.Store().VectorStore().Total(testCtx(), types.GetVectorsOptions{KBID: kb.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// 删除后计数对得上，不留悬空的 chunk_count
	deleted, err := docl.DeleteDocuments(kb.ID, []string{doc.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	kbGot, err = dl.GetDataset(kb.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, kbGot.DocumentCount)
	assert.Equal(t, 0, kbGot.ChunkCount)

	total, err = c.Store().VectorStore().Total(testCtx(), types.GetVectorsOptions{KBID: kb.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestDocumentLogic_ListWithKeywords(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)

	kb, err := dl.CreateDataset("faq", "", 0, 0)
	require.NoError(t, err)

	docA, err := docl.UploadDocument(kb.ID, buildUpload(t, "refund-policy.txt", []byte("退货政策:签收后7天内可退。")))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb.ID, docA.ID)

	docB, err := docl.UploadDocument(kb.ID, buildUpload(t, "shipping.txt", []byte("发货时间:48小时内。")))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb.ID, docB.ID)

	// 关键字大小写不敏感，按文件名匹配
	list, total, err := docl.ListDocuments(kb.ID, "REFUND", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, docA.ID, list[0].ID)

	list, total, err = docl.ListDocuments(kb.ID, "nomatch", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, list)
}

func TestDocumentLogic_DeleteDocuments(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)

	kb, err := dl.CreateDataset("faq", "", 0, 0)
	require.NoError(t, err)

	doc, err := docl.UploadDocument(kb.ID, buildUpload(t, "faq.csv", []byte(faqCSV)))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb.ID, doc.ID)

	deleted, err := docl.DeleteDocuments(kb.ID, []string{doc.ID, "doc_missing0"})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	kbGot, err := dl.GetDataset(kb.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, kbGot.DocumentCount)
	assert.Equal(t, 0, kbGot.ChunkCount)

	total, err := c.Store().VectorStore().Total(testCtx(), types.GetVectorsOptions{KBID: kb.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	list, docTotal, err := docl.ListDocuments(kb.ID, "", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.EqualValues(t, 0, docTotal)
}
