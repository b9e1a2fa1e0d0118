package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"careerpilot/internal/database"
	"careerpilot/internal/document"
	"careerpilot/internal/errcode"
	"careerpilot/internal/storage"
	"careerpilot/internal/tasks"
)

// ParseTaskHandler 负责消费文档解析任务。
type ParseTaskHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	parser      *document.Parser
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewParseTaskHandler 创建任务处理器。
func NewParseTaskHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	parser *document.Parser,
	redisClient *redis.Client,
	logger *slog.Logger,
) *ParseTaskHandler {
	return &ParseTaskHandler{
		db:          db,
		storage:     storageClient,
		parser:      parser,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ParseTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.DocumentParsePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("document_id", int(payload.DocumentID)),
	)
	log.Info("Starting document parse task...")

	var doc database.ResumeDocument
	if err := h.db.WithContext(ctx).First(&doc, payload.DocumentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("document not found, skipping task")
			return nil
		}
		log.Error("query document failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(doc.UserID)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		h.markFailed(ctx, log, &doc, retErr)
		notify := DocumentParseNotifyMessage{
			Status:        "error",
			DocumentID:    doc.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishParseNotify(ctx, doc.UserID, notify); err != nil {
			log.Error("publish parse error notification failed", slog.Any("error", err))
		}
	}()

	data, err := h.storage.ReadObject(ctx, doc.ObjectKey)
	if err != nil {
		log.Error("fetch document from storage failed", slog.Any("error", err))
		return err
	}

	structured, err := h.parser.Parse(ctx, data, doc.MimeType)
	if err != nil {
		// 内容类错误重试无意义：标记失败并通知，任务按成功结束。
		if errors.Is(err, errcode.ErrDocumentParse) || errors.Is(err, errcode.ErrUnsupportedFormat) {
			log.Warn("document is not parseable", slog.Any("error", err))
			h.markFailed(ctx, log, &doc, err)
			notify := DocumentParseNotifyMessage{
				Status:        "error",
				DocumentID:    doc.ID,
				CorrelationID: payload.CorrelationID,
				ErrorCode:     parseErrorCode(err),
				ErrorMessage:  strings.TrimSpace(err.Error()),
			}
			if err := h.publishParseNotify(ctx, doc.UserID, notify); err != nil {
				log.Error("publish parse error notification failed", slog.Any("error", err))
			}
			return nil
		}
		log.Error("parse document failed", slog.Any("error", err))
		return err
	}

	content, err := json.Marshal(structured)
	if err != nil {
		log.Error("marshal structured resume failed", slog.Any("error", err))
		return err
	}

	update := map[string]any{
		"content":     datatypes.JSON(content),
		"status":      database.DocumentStatusParsed,
		"parse_error": "",
	}
	if err := h.db.WithContext(ctx).Model(&doc).Updates(update).Error; err != nil {
		log.Error("update document failed", slog.Any("error", err))
		return err
	}

	notify := DocumentParseNotifyMessage{
		Status:        "completed",
		DocumentID:    doc.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := h.publishParseNotify(ctx, doc.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("Document parse task completed successfully.")
	return nil
}

func (h *ParseTaskHandler) markFailed(ctx context.Context, log *slog.Logger, doc *database.ResumeDocument, cause error) {
	update := map[string]any{
		"status":      database.DocumentStatusFailed,
		"parse_error": strings.TrimSpace(cause.Error()),
	}
	if err := h.db.WithContext(ctx).Model(doc).Updates(update).Error; err != nil {
		log.Error("mark document failed", slog.Any("error", err))
	}
}

func (h *ParseTaskHandler) publishParseNotify(ctx context.Context, userID uint, notify DocumentParseNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func parseErrorCode(err error) int {
	if errors.Is(err, errcode.ErrUnsupportedFormat) {
		return errcode.BadFormat
	}
	return errcode.ParseFailed
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
