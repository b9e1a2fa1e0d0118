package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"careerpilot/internal/errcode"
)

// Message 是发送给文本生成服务的一条对话消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest 描述一次文本生成调用。
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Provider 是外部文本生成服务的抽象。任何非成功响应或传输错误
// 都以 ErrGenerationFailed（或其包装）返回，调用方不做自动重试。
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// OpenAIProvider 调用 OpenAI 兼容的 chat completions 接口。
type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider 构造 Provider。timeout 约束整个 HTTP 往返，
// 超时同样表现为 ErrGenerationFailed。
func NewOpenAIProvider(baseURL, apiKey, model string, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete 发起一次生成调用并返回首个候选的文本内容。
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       p.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errcode.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 不透传服务方的响应体，只保留状态码。
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: provider returned status %d", errcode.ErrGenerationFailed, resp.StatusCode)
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", errcode.ErrGenerationFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: provider returned no choices", errcode.ErrGenerationFailed)
	}

	return parsed.Choices[0].Message.Content, nil
}
