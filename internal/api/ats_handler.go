package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"careerpilot/internal/api/middleware"
	"careerpilot/internal/ats"
	"careerpilot/internal/cache"
	"careerpilot/internal/database"
	"careerpilot/internal/resume"
)

const scoreCacheTTL = time.Hour

// ATSHandler 负责简历与职位描述的匹配打分。
type ATSHandler struct {
	db     *gorm.DB
	scorer *ats.Scorer
	cache  *cache.Store
	logger *slog.Logger
}

// NewATSHandler 构造打分处理器。cacheStore 可为 nil（直接计算）。
func NewATSHandler(db *gorm.DB, scorer *ats.Scorer, cacheStore *cache.Store, logger *slog.Logger) *ATSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ATSHandler{
		db:     db,
		scorer: scorer,
		cache:  cacheStore,
		logger: logger,
	}
}

type scoreRequest struct {
	Resume         resume.StructuredResume `json:"resume" binding:"required"`
	JobDescription string                  `json:"job_description" binding:"required"`
}

// Score 对请求体中的结构化简历打分。
func (h *ATSHandler) Score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.reply(c, req.Resume, req.JobDescription)
}

type scoreStoredRequest struct {
	JobDescription string `json:"job_description" binding:"required"`
}

// ScoreStored 对已存储的简历打分。
func (h *ATSHandler) ScoreStored(c *gin.Context) {
	var req scoreStoredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	doc, ok := h.loadOwnedParsedResume(c)
	if !ok {
		return
	}

	var structured resume.StructuredResume
	if err := json.Unmarshal(doc.Content, &structured); err != nil {
		h.logger.Error("decode stored resume", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.reply(c, structured, req.JobDescription)
}

func (h *ATSHandler) reply(c *gin.Context, structured resume.StructuredResume, jobDescription string) {
	ctx := c.Request.Context()
	key := scoreCacheKey(structured, jobDescription)

	if h.cache != nil {
		var cached ats.ScoreResult
		found, err := h.cache.Get(ctx, key, &cached)
		if err != nil {
			h.logger.Warn("score cache read failed", slog.Any("error", err))
		}
		if found {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	result := h.scorer.Score(structured, jobDescription)

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, result, scoreCacheTTL); err != nil {
			h.logger.Warn("score cache write failed", slog.Any("error", err))
		}
	}
	c.JSON(http.StatusOK, result)
}

func (h *ATSHandler) loadOwnedParsedResume(c *gin.Context) (database.ResumeDocument, bool) {
	var doc database.ResumeDocument

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return doc, false
	}

	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&doc).Error; err != nil {
		NotFound(c, "resume not found")
		return doc, false
	}
	if doc.Status != database.DocumentStatusParsed {
		Conflict(c, "resume is not parsed yet")
		return doc, false
	}
	return doc, true
}

func scoreCacheKey(structured resume.StructuredResume, jobDescription string) string {
	payload, _ := json.Marshal(structured)
	sum := sha256.Sum256(append(payload, []byte(jobDescription)...))
	return "score:" + hex.EncodeToString(sum[:])
}
