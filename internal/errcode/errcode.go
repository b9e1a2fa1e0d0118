package errcode

import "errors"

// 统一的业务错误分类。下层组件只返回这些哨兵错误（或其包装），
// 由 API 层负责翻译为对外的 HTTP 状态码。
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrDocumentParse     = errors.New("document could not be parsed")
	ErrGenerationFailed  = errors.New("text generation failed")
	ErrValidation        = errors.New("validation failed")
)

// 通知消息中的数字错误码约定：
// - 0：无错误
// - 4xxx：内容类错误（文档损坏、格式不支持等），重试无意义
// - 5xxx：系统错误（存储、队列等基础设施故障）
const (
	OK          = 0
	ParseFailed = 4001
	BadFormat   = 4002
	SystemError = 5000
)
