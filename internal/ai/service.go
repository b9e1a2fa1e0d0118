package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"careerpilot/internal/errcode"
	"careerpilot/internal/resume"
)

// Preferences 是调用方对生成内容的定制偏好。
type Preferences struct {
	Tone       string   `json:"tone"`
	Length     string   `json:"length"`
	FocusAreas []string `json:"focusAreas"`
}

// GenerationRequest 汇总一次生成调用的输入，仅存在于请求生命周期内。
type GenerationRequest struct {
	Resume         resume.StructuredResume
	JobTitle       string
	Company        string
	JobDescription string
	Preferences    Preferences
}

// Service 负责生成类请求的编排：裁剪输入、构造提示词、
// 经熔断器调用外部服务。失败不做自动重试（运维可在外层另加退避）。
type Service struct {
	provider    Provider
	breaker     *gobreaker.CircuitBreaker[string]
	logger      *slog.Logger
	temperature float64
	maxTokens   int
}

// NewService 构造生成服务。熔断器在外部服务连续失败时快速短路，
// 短路期间的请求同样表现为 ErrGenerationFailed。
func NewService(provider Provider, logger *slog.Logger, temperature float64, maxTokens int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "text-generation",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Service{
		provider:    provider,
		breaker:     breaker,
		logger:      logger,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// GenerateResume 依据候选人数据与目标职位生成简历文本。
func (s *Service) GenerateResume(ctx context.Context, req GenerationRequest) (string, error) {
	return s.generate(ctx, systemPromptResume, userPromptResume, req, false)
}

// EnhanceResume 优化既有简历的表达与关键词覆盖。
func (s *Service) EnhanceResume(ctx context.Context, req GenerationRequest) (string, error) {
	return s.generate(ctx, systemPromptEnhance, userPromptEnhance, req, false)
}

// GenerateCoverLetter 生成针对目标公司与职位的求职信。
func (s *Service) GenerateCoverLetter(ctx context.Context, req GenerationRequest) (string, error) {
	return s.generate(ctx, systemPromptCoverLetter, userPromptCoverLetter, req, true)
}

func (s *Service) generate(ctx context.Context, systemPrompt, userTemplate string, req GenerationRequest, coverLetter bool) (string, error) {
	// 全空或占位内容的数组在此整体剔除，不会当作有效数据发送。
	pruned := resume.PruneForProvider(req.Resume)

	resumeJSON, err := marshalResume(pruned)
	if err != nil {
		return "", err
	}

	prefs := renderPreferences(req.Preferences)
	var userContent string
	if coverLetter {
		userContent = fmt.Sprintf(userTemplate, resumeJSON, req.JobTitle, req.Company, req.JobDescription, prefs)
	} else {
		userContent = fmt.Sprintf(userTemplate, resumeJSON, req.JobDescription, prefs)
	}

	text, err := s.breaker.Execute(func() (string, error) {
		return s.provider.Complete(ctx, CompletionRequest{
			Messages: []Message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userContent},
			},
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
		})
	})
	if err != nil {
		s.logger.Warn("provider call failed", slog.Any("error", err))
		if errors.Is(err, errcode.ErrGenerationFailed) {
			return "", err
		}
		// 熔断器短路等内部错误同样折算为生成失败。
		return "", fmt.Errorf("%w: %v", errcode.ErrGenerationFailed, err)
	}

	return text, nil
}
