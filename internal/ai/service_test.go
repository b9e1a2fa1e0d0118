package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"careerpilot/internal/errcode"
	"careerpilot/internal/resume"
)

func testRequest() GenerationRequest {
	return GenerationRequest{
		Resume: resume.StructuredResume{
			Name:        "Jane Doe",
			ContactInfo: "jane@example.com",
			Summary:     "Backend engineer",
			Skills:      []string{"Go", "Redis"},
			Experience: []resume.Experience{
				{Company: "Acme", Role: "Engineer", StartDate: "2020", EndDate: "2023"},
			},
		},
		JobTitle:       "Senior Engineer",
		Company:        "Initech",
		JobDescription: "Go services at scale",
		Preferences:    Preferences{Tone: "professional", Length: "one page"},
	}
}

func newProviderServer(t *testing.T, status int, content string, gotBody *[]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if gotBody != nil {
			*gotBody = body
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": content}},
				},
			})
		}
	}))
}

func newTestService(serverURL string) *Service {
	provider := NewOpenAIProvider(serverURL, "test-key", "test-model", 5*time.Second)
	return NewService(provider, slog.Default(), 0.7, 2048)
}

func TestGenerateResumeReturnsProviderText(t *testing.T) {
	var body []byte
	srv := newProviderServer(t, http.StatusOK, "generated resume text", &body)
	defer srv.Close()

	text, err := newTestService(srv.URL).GenerateResume(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "generated resume text" {
		t.Errorf("text = %q", text)
	}

	var wire struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature"`
		MaxTokens   int       `json:"max_tokens"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("decode wire request: %v", err)
	}
	if wire.Model != "test-model" || wire.MaxTokens != 2048 {
		t.Errorf("wire = %+v", wire)
	}
	if len(wire.Messages) != 2 || wire.Messages[0].Role != "system" || wire.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", wire.Messages)
	}
	user := wire.Messages[1].Content
	if !strings.Contains(user, "Jane Doe") || !strings.Contains(user, "Go services at scale") {
		t.Errorf("user message missing interpolated data: %q", user)
	}
	if !strings.Contains(user, "2020 to 2023") {
		t.Errorf("experience dates not rendered: %q", user)
	}
	if !strings.Contains(user, "Tone: professional") {
		t.Errorf("preferences not rendered: %q", user)
	}
}

// 全部为占位内容的 skills 不得出现在发送给提供方的负载中。
func TestGeneratePrunesPlaceholderSkills(t *testing.T) {
	var body []byte
	srv := newProviderServer(t, http.StatusOK, "ok", &body)
	defer srv.Close()

	req := testRequest()
	req.Resume.Skills = []string{"", "Placeholder", "placeholder entry"}

	if _, err := newTestService(srv.URL).GenerateResume(context.Background(), req); err != nil {
		t.Fatalf("generate: %v", err)
	}

	var wire struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("decode wire request: %v", err)
	}
	if strings.Contains(wire.Messages[1].Content, `"skills"`) {
		t.Errorf("placeholder skills leaked into provider payload: %q", wire.Messages[1].Content)
	}
}

func TestGenerateProviderFailureNoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestService(srv.URL).GenerateCoverLetter(context.Background(), testRequest())
	if !errors.Is(err, errcode.ErrGenerationFailed) {
		t.Errorf("got %v, want ErrGenerationFailed", err)
	}
	if calls != 1 {
		t.Errorf("provider called %d times, want exactly 1 (no automatic retry)", calls)
	}
}

func TestGenerateProviderUnreachable(t *testing.T) {
	srv := newProviderServer(t, http.StatusOK, "x", nil)
	srv.Close() // 立即关闭以模拟网络失败

	_, err := newTestService(srv.URL).EnhanceResume(context.Background(), testRequest())
	if !errors.Is(err, errcode.ErrGenerationFailed) {
		t.Errorf("got %v, want ErrGenerationFailed", err)
	}
}

func TestProviderEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "k", "m", time.Second)
	_, err := provider.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	if !errors.Is(err, errcode.ErrGenerationFailed) {
		t.Errorf("got %v, want ErrGenerationFailed", err)
	}
}
