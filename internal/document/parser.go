package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"careerpilot/internal/cache"
	"careerpilot/internal/resume"
)

const parseCacheKeyPrefix = "parse:"

// DefaultParseTTL 是解析结果缓存的默认有效期。
const DefaultParseTTL = 24 * time.Hour

// Fingerprint 计算文档内容的确定性指纹，用作解析缓存的键。
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parser 将文档字节解析为结构化简历，并以内容指纹做结果缓存。
// 缓存后端故障只降级为未命中，不阻断解析流程。
type Parser struct {
	cache      *cache.Store
	normalizer *resume.Normalizer
	logger     *slog.Logger
	ttl        time.Duration
}

// NewParser 构造 Parser。cacheStore 可以为 nil（不做缓存）。
func NewParser(cacheStore *cache.Store, logger *slog.Logger, ttl time.Duration) *Parser {
	if ttl <= 0 {
		ttl = DefaultParseTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		cache:      cacheStore,
		normalizer: resume.NewNormalizer(),
		logger:     logger,
		ttl:        ttl,
	}
}

// Parse 返回文档对应的结构化简历。命中缓存时不触发文本抽取。
func (p *Parser) Parse(ctx context.Context, data []byte, mimeType string) (resume.StructuredResume, error) {
	key := parseCacheKeyPrefix + Fingerprint(data)

	if p.cache != nil {
		var cached resume.StructuredResume
		found, err := p.cache.Get(ctx, key, &cached)
		if err != nil {
			p.logger.Warn("parse cache lookup failed, treating as miss", slog.Any("error", err))
		} else if found {
			return cached, nil
		}
	}

	text, err := Extract(data, mimeType)
	if err != nil {
		return resume.StructuredResume{}, err
	}

	structured := p.normalizer.Normalize(text)

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, structured, p.ttl); err != nil {
			p.logger.Warn("parse cache write failed", slog.Any("error", err))
		}
	}

	return structured, nil
}
