package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"careerpilot/internal/ai"
	"careerpilot/internal/api/middleware"
	"careerpilot/internal/cache"
	"careerpilot/internal/database"
	"careerpilot/internal/errcode"
	"careerpilot/internal/resume"
)

const generationCacheTTL = time.Hour

// GenerateHandler 负责调用外部生成服务的端点。
type GenerateHandler struct {
	db      *gorm.DB
	service *ai.Service
	cache   *cache.Store
	logger  *slog.Logger
}

// NewGenerateHandler 构造生成处理器。cacheStore 可为 nil。
func NewGenerateHandler(db *gorm.DB, service *ai.Service, cacheStore *cache.Store, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		db:      db,
		service: service,
		cache:   cacheStore,
		logger:  logger,
	}
}

type generateRequest struct {
	Resume         resume.StructuredResume `json:"resume" binding:"required"`
	JobDescription string                  `json:"job_description" binding:"required"`
	Preferences    ai.Preferences          `json:"preferences"`
}

// GenerateResume 根据职位描述重写整份简历。
func (h *GenerateHandler) GenerateResume(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	h.generate(c, "resume", req, func(genReq ai.GenerationRequest) (string, error) {
		return h.service.GenerateResume(c.Request.Context(), genReq)
	})
}

// EnhanceResume 在保留事实的前提下润色简历文本。
func (h *GenerateHandler) EnhanceResume(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	h.generate(c, "enhance", req, func(genReq ai.GenerationRequest) (string, error) {
		return h.service.EnhanceResume(c.Request.Context(), genReq)
	})
}

type coverLetterRequest struct {
	Resume         resume.StructuredResume `json:"resume" binding:"required"`
	JobTitle       string                  `json:"job_title" binding:"required"`
	Company        string                  `json:"company" binding:"required"`
	JobDescription string                  `json:"job_description" binding:"required"`
	Preferences    ai.Preferences          `json:"preferences"`
}

// GenerateCoverLetter 生成求职信并保存副本。
func (h *GenerateHandler) GenerateCoverLetter(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req coverLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	logger := h.loggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	genReq := ai.GenerationRequest{
		Resume:         req.Resume,
		JobTitle:       req.JobTitle,
		Company:        req.Company,
		JobDescription: req.JobDescription,
		Preferences:    req.Preferences,
	}

	content, err := h.service.GenerateCoverLetter(c.Request.Context(), genReq)
	if err != nil {
		h.replyGenerationError(c, logger, err)
		return
	}

	letter := database.CoverLetter{
		UserID:   userID,
		JobTitle: req.JobTitle,
		Company:  req.Company,
		Content:  content,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&letter).Error; err != nil {
		logger.Error("save cover letter failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      letter.ID,
		"content": content,
	})
}

// ListCoverLetters 列出用户生成过的求职信。
func (h *GenerateHandler) ListCoverLetters(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var letters []database.CoverLetter
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&letters).Error; err != nil {
		Internal(c, "failed to list cover letters")
		return
	}

	items := make([]gin.H, 0, len(letters))
	for _, letter := range letters {
		items = append(items, gin.H{
			"id":         letter.ID,
			"job_title":  letter.JobTitle,
			"company":    letter.Company,
			"content":    letter.Content,
			"created_at": letter.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *GenerateHandler) generate(c *gin.Context, kind string, req generateRequest, call func(ai.GenerationRequest) (string, error)) {
	logger := h.loggerFromContext(c)
	ctx := c.Request.Context()
	key := generationCacheKey(kind, req)

	// 相同输入直接复用缓存结果；缓存故障按未命中处理。
	if h.cache != nil {
		var cached string
		found, err := h.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn("generation cache read failed", slog.Any("error", err))
		}
		if found {
			c.JSON(http.StatusOK, gin.H{"content": cached, "cached": true})
			return
		}
	}

	content, err := call(ai.GenerationRequest{
		Resume:         req.Resume,
		JobDescription: req.JobDescription,
		Preferences:    req.Preferences,
	})
	if err != nil {
		h.replyGenerationError(c, logger, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, content, generationCacheTTL); err != nil {
			logger.Warn("generation cache write failed", slog.Any("error", err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

func (h *GenerateHandler) replyGenerationError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, errcode.ErrValidation):
		BadRequest(c, strings.TrimSpace(err.Error()))
	case errors.Is(err, errcode.ErrGenerationFailed):
		logger.Error("generation failed", slog.Any("error", err))
		BadGateway(c, "text generation failed")
	default:
		logger.Error("generation failed", slog.Any("error", err))
		Internal(c, "internal error")
	}
}

func (h *GenerateHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func generationCacheKey(kind string, req generateRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(append([]byte(kind+":"), payload...))
	return "gen:" + hex.EncodeToString(sum[:])
}
