package v1

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/pkg/errors"
)

func TestRetrieverLogic_Retrieve(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)
	rl := NewRetrieverLogic(testCtx(), c)

	kb, err := dl.CreateDataset("售后FAQ", "", 0, 0)
	require.NoError(t, err)

	doc, err := docl.UploadDocument(kb.ID, buildUpload(t, "faq.csv", []byte(faqCSV)))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb.ID, doc.ID)

	res, err := rl.Retrieve(kb.ID, "退货 申请 售后", 0)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	// 词面重合最高的片段排在首位
	assert.Contains(t, res[0].Content, "退货")
	assert.Equal(t, doc.ID, res[0].DocumentID)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}

	// 空查询拒绝
	_, err = rl.Retrieve(kb.ID, "", 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.GetCode(err))
}

func TestRetrieverLogic_RetrieveScopedToKB(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)
	rl := NewRetrieverLogic(testCtx(), c)

	kb1, err := dl.CreateDataset("售后", "", 0, 0)
	require.NoError(t, err)
	kb2, err := dl.CreateDataset("物流", "", 0, 0)
	require.NoError(t, err)

	doc1, err := docl.UploadDocument(kb1.ID, buildUpload(t, "refund.txt", []byte("退货政策:商品签收后7天内可无理由退货。")))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb1.ID, doc1.ID)

	doc2, err := docl.UploadDocument(kb2.ID, buildUpload(t, "shipping.txt", []byte("发货时间:付款后48小时内发货。")))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb2.ID, doc2.ID)

	res, err := rl.Retrieve(kb2.ID, "发货时间", 0)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	for _, r := range res {
		assert.Equal(t, doc2.ID, r.DocumentID)
	}

	// kbID 为空时跨库检索
	all, err := rl.Retrieve("", "退货 发货", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRetrieverLogic_TestPreview(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)
	rl := NewRetrieverLogic(testCtx(), c)

	kb, err := dl.CreateDataset("长文档", "", 0, 0)
	require.NoError(t, err)

	long := "退货说明。" + strings.Repeat("商品签收后请保持包装完好。", 40)
	doc, err := docl.UploadDocument(kb.ID, buildUpload(t, "policy.txt", []byte(long)))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb.ID, doc.ID)

	previews, err := rl.Test(kb.ID, "退货 包装", 3)
	require.NoError(t, err)
	require.NotEmpty(t, previews)
	for _, p := range previews {
		runes := []rune(p.Preview)
		assert.LessOrEqual(t, len(runes), previewRuneLimit+3)
		if len(runes) > previewRuneLimit {
			assert.True(t, strings.HasSuffix(p.Preview, "..."))
		}
	}
}

func TestRetrieverLogic_Stats(t *testing.T) {
	c := newTestCoreWithProcess(t)
	dl := NewDatasetLogic(testCtx(), c)
	docl := NewDocumentLogic(testCtx(), c)
	rl := NewRetrieverLogic(testCtx(), c)

	stats, err := rl.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.KnowledgeBases)
	assert.EqualValues(t, 0, stats.Chunks)
	assert.Equal(t, "ready", stats.AI["status"])

	kb, err := dl.CreateDataset("faq", "", 0, 0)
	require.NoError(t, err)
	doc, err := docl.UploadDocument(kb.ID, buildUpload(t, "faq.csv", []byte(faqCSV)))
	require.NoError(t, err)
	waitDocumentCompleted(t, c, kb.ID, doc.ID)

	stats, err = rl.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.KnowledgeBases)
	assert.EqualValues(t, 2, stats.Chunks)
}
