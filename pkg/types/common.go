package types

const (
	NO_PAGINATION = 0

	DEFAULT_PAGE_SIZE = 30
)

const (
	LANGUAGE_EN_KEY = "en"
	LANGUAGE_CN_KEY = "zh-CN"
)
