package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeDocumentParse 文档解析任务类型。
const TypeDocumentParse = "document:parse"

// DocumentParsePayload 文档解析任务载荷。
type DocumentParsePayload struct {
	DocumentID    uint   `json:"document_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewDocumentParseTask 创建文档解析任务。
func NewDocumentParseTask(documentID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentParsePayload{
		DocumentID:    documentID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal document parse payload: %w", err)
	}
	return asynq.NewTask(TypeDocumentParse, payload, asynq.MaxRetry(3)), nil
}
