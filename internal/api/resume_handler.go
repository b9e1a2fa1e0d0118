package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"careerpilot/internal/api/middleware"
	"careerpilot/internal/database"
	"careerpilot/internal/resume"
)

// ResumeHandler 负责处理结构化简历的增删改查。
type ResumeHandler struct {
	db         *gorm.DB
	logger     *slog.Logger
	maxResumes int
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, logger *slog.Logger, maxResumes int) *ResumeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResumeHandler{
		db:         db,
		logger:     logger,
		maxResumes: maxResumes,
	}
}

type createResumeRequest struct {
	Title   string                  `json:"title" binding:"required"`
	Content resume.StructuredResume `json:"content" binding:"required"`
}

type resumeListItem struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type resumeResponse struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Content   datatypes.JSON `json:"content"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newResumeResponse(doc database.ResumeDocument) resumeResponse {
	return resumeResponse{
		ID:        doc.ID,
		Title:     doc.Title,
		Content:   doc.Content,
		Status:    doc.Status,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// CreateResume 保存一份手工录入的结构化简历，超过限额则拒绝。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req createResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&database.ResumeDocument{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		Internal(c, "failed to count resumes")
		return
	}

	if h.maxResumes > 0 && count >= int64(h.maxResumes) {
		Forbidden(c, "resume limit reached")
		return
	}

	content, err := json.Marshal(req.Content)
	if err != nil {
		BadRequest(c, "invalid resume content")
		return
	}

	doc := database.ResumeDocument{
		Title:   req.Title,
		Content: datatypes.JSON(content),
		UserID:  userID,
		Status:  database.DocumentStatusParsed,
	}

	if err := h.db.WithContext(ctx).Create(&doc).Error; err != nil {
		Internal(c, "failed to create resume")
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(doc))
}

// ListResumes 列出当前用户的全部简历。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var docs []database.ResumeDocument
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&docs).Error; err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, resumeListItem{
			ID:        doc.ID,
			Title:     doc.Title,
			Status:    doc.Status,
			CreatedAt: doc.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetResume 返回单份简历。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	doc, ok := h.loadOwnedResume(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(doc))
}

type updateResumeRequest struct {
	Title   *string                  `json:"title"`
	Content *resume.StructuredResume `json:"content"`
}

// UpdateResume 更新标题或结构化内容。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	doc, ok := h.loadOwnedResume(c)
	if !ok {
		return
	}

	var req updateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	update := map[string]any{}
	if req.Title != nil {
		update["title"] = *req.Title
	}
	if req.Content != nil {
		content, err := json.Marshal(req.Content)
		if err != nil {
			BadRequest(c, "invalid resume content")
			return
		}
		update["content"] = datatypes.JSON(content)
		update["status"] = database.DocumentStatusParsed
	}
	if len(update) == 0 {
		BadRequest(c, "nothing to update")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(&doc).Updates(update).Error; err != nil {
		Internal(c, "failed to update resume")
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(doc))
}

// DeleteResume 删除简历。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	doc, ok := h.loadOwnedResume(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(&doc).Error; err != nil {
		Internal(c, "failed to delete resume")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ResumeHandler) loadOwnedResume(c *gin.Context) (database.ResumeDocument, bool) {
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
			NotFound(c, "resume not found")
			return doc, false
		}
		h.logger.Error("load resume", slog.Any("error", err))
		Internal(c, "internal error")
		return doc, false
	}
	return doc, true
}
