package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"careerpilot/internal/api/middleware"
	"careerpilot/internal/database"
	"careerpilot/internal/errcode"
)

// 可被接受的协议类型。
var allowedAgreementTypes = map[string]struct{}{
	"terms_of_service": {},
	"privacy_policy":   {},
}

// AgreementHandler 记录用户对服务条款等协议的接受。
type AgreementHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewAgreementHandler 构造协议处理器。
func NewAgreementHandler(db *gorm.DB, logger *slog.Logger) *AgreementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgreementHandler{db: db, logger: logger}
}

type acceptAgreementRequest struct {
	DocumentType string `json:"document_type"`
	Version      string `json:"version"`
}

func (r acceptAgreementRequest) validate() error {
	docType := strings.TrimSpace(r.DocumentType)
	if docType == "" {
		return fmt.Errorf("%w: document_type is required", errcode.ErrValidation)
	}
	if _, ok := allowedAgreementTypes[docType]; !ok {
		return fmt.Errorf("%w: unknown document_type %q", errcode.ErrValidation, docType)
	}
	if strings.TrimSpace(r.Version) == "" {
		return fmt.Errorf("%w: version is required", errcode.ErrValidation)
	}
	return nil
}

// Accept 记录一次协议接受，重复接受同一版本为幂等操作。
func (h *AgreementHandler) Accept(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req acceptAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	docType := strings.TrimSpace(req.DocumentType)
	version := strings.TrimSpace(req.Version)

	var existing database.Agreement
	err := h.db.WithContext(ctx).
		Where("user_id = ? AND document_type = ? AND version = ?", userID, docType, version).
		First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"accepted_at": existing.AcceptedAt})
		return
	}

	agreement := database.Agreement{
		UserID:       userID,
		DocumentType: docType,
		Version:      version,
		AcceptedAt:   time.Now().UTC(),
	}
	if err := h.db.WithContext(ctx).Create(&agreement).Error; err != nil {
		h.logger.Error("record agreement failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"accepted_at": agreement.AcceptedAt})
}

// List 返回用户接受过的协议。
func (h *AgreementHandler) List(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var agreements []database.Agreement
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("accepted_at DESC").
		Find(&agreements).Error; err != nil {
		Internal(c, "failed to list agreements")
		return
	}

	items := make([]gin.H, 0, len(agreements))
	for _, a := range agreements {
		items = append(items, gin.H{
			"document_type": a.DocumentType,
			"version":       a.Version,
			"accepted_at":   a.AcceptedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
