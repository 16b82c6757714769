package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_EXIST             = "error.exist"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"

	ERROR_UNSUPPORTED_FILE_TYPE = "error.file.type.unsupport"
	ERROR_INGEST_EMPTY_SOURCE   = "error.ingest.empty.source"
	ERROR_RETRIEVAL_UNAVAILABLE = "error.retrieval.unavailable"
	ERROR_GENERATION_FAILED     = "error.generation.failed"
	ERROR_PROMPT_TOO_LONG       = "error.prompt.toolong"
	ERROR_TASK_EXPIRED          = "error.task.expired"
)
