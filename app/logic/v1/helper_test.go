package v1

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"

	"github.com/ragdesk/ragdesk/app/core"
	"github.com/ragdesk/ragdesk/app/core/srv"
	"github.com/ragdesk/ragdesk/app/logic/v1/process"
)

// newTestCore 演示模式配置：内存索引 + mock 模型，无外部依赖
func newTestCore(t *testing.T, opts ...core.SetupOption) *core.Core {
	t.Helper()

	return core.MustSetupCore(core.CoreConfig{
		Addr: ":0",
		AI:   srv.AIConfig{Driver: "mock"},
		Ingest: core.IngestConfig{
			DataDir:      t.TempDir(),
			Workers:      1,
			ChunkSize:    512,
			ChunkOverlap: 50,
		},
		Chat: core.ChatConfig{
			TaskRetentionSeconds:   3600,
			GenerateTimeoutSeconds: 30,
			TopK:                   5,
		},
	}, opts...)
}

func newTestCoreWithProcess(t *testing.T) *core.Core {
	t.Helper()

	c := newTestCore(t)
	cancel := process.Start(c)
	t.Cleanup(cancel)
	return c
}

// buildUpload 构造 multipart 文件头，模拟表单上传
func buildUpload(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err = writer.Close(); err != nil {
		t.Fatal(err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()) + 1024)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	if len(files) != 1 {
		t.Fatalf("unexpected form files: %d", len(files))
	}
	return files[0]
}

func testCtx() context.Context {
	return context.Background()
}
