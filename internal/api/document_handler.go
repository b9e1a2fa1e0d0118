package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"careerpilot/internal/api/middleware"
	"careerpilot/internal/database"
	"careerpilot/internal/document"
	"careerpilot/internal/tasks"
)

// ObjectStore 抽象文档对象存储，便于测试替换。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// TaskEnqueuer 抽象任务入队，便于测试替换。
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DocumentHandler 处理简历文档的上传、查询与下载。
type DocumentHandler struct {
	db           *gorm.DB
	storage      ObjectStore
	enqueuer     TaskEnqueuer
	logger       *slog.Logger
	clamdAddr    string
	maxSizeBytes int64
}

// NewDocumentHandler 构造文档处理器。clamdAddr 为空时跳过病毒扫描。
func NewDocumentHandler(db *gorm.DB, store ObjectStore, enqueuer TaskEnqueuer, logger *slog.Logger, clamdAddr string, maxSizeBytes int64) *DocumentHandler {
	return &DocumentHandler{
		db:           db,
		storage:      store,
		enqueuer:     enqueuer,
		logger:       logger,
		clamdAddr:    clamdAddr,
		maxSizeBytes: maxSizeBytes,
	}
}

// Upload 接收 multipart 上传并投递异步解析任务。
// 格式白名单在一切读取、扫描与存储之前判定。
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	logger := h.loggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if !document.IsSupportedMime(mimeType) {
		logger.Info("upload rejected: unsupported format", slog.String("mime_type", mimeType))
		Error(c, http.StatusUnsupportedMediaType, "unsupported document format")
		return
	}

	if h.maxSizeBytes > 0 && file.Size > h.maxSizeBytes {
		Error(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxSizeBytes))
		return
	}

	if h.clamdAddr != "" {
		clean, err := h.scanUpload(file)
		if err != nil {
			logger.Error("scan file", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
		if !clean {
			BadRequest(c, "malicious file detected")
			return
		}
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer fileReader.Close()

	data, err := io.ReadAll(fileReader)
	if err != nil {
		Internal(c, "failed to read file")
		return
	}

	contentHash := document.Fingerprint(data)
	objectKey := fmt.Sprintf("resume-uploads/%d/%s", userID, contentHash)

	ctx := c.Request.Context()
	if _, err := h.storage.UploadFile(ctx, objectKey, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
		logger.Error("upload file", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	doc := database.ResumeDocument{
		Title:       file.Filename,
		UserID:      userID,
		ObjectKey:   objectKey,
		ContentHash: contentHash,
		MimeType:    mimeType,
		Status:      database.DocumentStatusProcessing,
	}
	if err := h.db.WithContext(ctx).Create(&doc).Error; err != nil {
		logger.Error("create document record", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewDocumentParseTask(doc.ID, correlationID)
	if err != nil {
		logger.Error("build parse task", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if _, err := h.enqueuer.EnqueueContext(ctx, task); err != nil {
		logger.Error("enqueue parse task", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("document accepted",
		slog.Uint64("document_id", uint64(doc.ID)),
		slog.String("content_hash", contentHash),
	)
	c.JSON(http.StatusAccepted, gin.H{
		"id":     doc.ID,
		"status": doc.Status,
	})
}

// List 列出当前用户的文档。
func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var docs []database.ResumeDocument
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		h.loggerFromContext(c).Error("list documents", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	items := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		items = append(items, gin.H{
			"id":         doc.ID,
			"title":      doc.Title,
			"mime_type":  doc.MimeType,
			"status":     doc.Status,
			"created_at": doc.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get 返回单个文档，解析完成时包含结构化内容。
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, ok := h.loadOwnedDocument(c)
	if !ok {
		return
	}

	resp := gin.H{
		"id":         doc.ID,
		"title":      doc.Title,
		"mime_type":  doc.MimeType,
		"status":     doc.Status,
		"created_at": doc.CreatedAt,
	}
	if doc.Status == database.DocumentStatusParsed {
		resp["content"] = doc.Content
	}
	if doc.Status == database.DocumentStatusFailed {
		resp["parse_error"] = doc.ParseError
	}
	c.JSON(http.StatusOK, resp)
}

// Download 返回原始文件的限时下载链接。
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, ok := h.loadOwnedDocument(c)
	if !ok {
		return
	}

	url, err := h.storage.GeneratePresignedURL(c.Request.Context(), doc.ObjectKey, 10*time.Minute)
	if err != nil {
		h.loggerFromContext(c).Error("presign document", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Delete 删除文档记录与对应的存储对象。
func (h *DocumentHandler) Delete(c *gin.Context) {
	doc, ok := h.loadOwnedDocument(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	if err := h.storage.DeleteObject(ctx, doc.ObjectKey); err != nil {
		logger.Warn("delete object failed", slog.String("object_key", doc.ObjectKey), slog.Any("error", err))
	}
	if err := h.db.WithContext(ctx).Delete(&doc).Error; err != nil {
		logger.Error("delete document record", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) loadOwnedDocument(c *gin.Context) (database.ResumeDocument, bool) {
	var doc database.ResumeDocument

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return doc, false
	}

	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "document not found")
			return doc, false
		}
		h.loggerFromContext(c).Error("load document", slog.Any("error", err))
		Internal(c, "internal error")
		return doc, false
	}
	return doc, true
}

func (h *DocumentHandler) scanUpload(file *multipart.FileHeader) (bool, error) {
	fileReader, err := file.Open()
	if err != nil {
		return false, err
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		return false, err
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return false, nil
		}
	}
	return true, nil
}

func (h *DocumentHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
