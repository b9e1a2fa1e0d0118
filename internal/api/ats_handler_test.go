package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"careerpilot/internal/ats"
	"careerpilot/internal/database"
	"careerpilot/internal/resume"
)

func scoredResume() resume.StructuredResume {
	return resume.StructuredResume{
		Name:        "Jane Doe",
		ContactInfo: "jane@example.com | 555-123-4567",
		Summary:     "Backend engineer focused on reliable services.",
		Skills:      []string{"Go", "PostgreSQL", "Docker"},
		Experience: []resume.Experience{
			{Company: "Acme", Role: "Engineer", Responsibilities: []string{"Built APIs with Go and PostgreSQL"}},
		},
		Education:      []resume.Education{{Institution: "State University", Degree: "BSc"}},
		Certifications: []resume.Certification{},
	}
}

func TestScore_ReturnsBreakdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewATSHandler(db, ats.NewScorer(), nil, nil)

	payload, err := json.Marshal(scoreRequest{
		Resume:         scoredResume(),
		JobDescription: "Looking for Go and PostgreSQL experience with Docker and communication skills.",
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/ats/score", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", uint(1))

	h.Score(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var result ats.ScoreResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.OverallScore <= 0 || result.OverallScore > 100 {
		t.Fatalf("overall score out of range: %d", result.OverallScore)
	}
	if result.KeywordMatch != 100 {
		t.Fatalf("expected full keyword match, got %d%%", result.KeywordMatch)
	}
}

func TestScoreStored_RejectsUnparsedResume(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	doc := database.ResumeDocument{
		Title:  "resume.pdf",
		UserID: 1,
		Status: database.DocumentStatusProcessing,
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}

	h := NewATSHandler(db, ats.NewScorer(), nil, nil)

	payload, _ := json.Marshal(scoreStoredRequest{JobDescription: "Go needed"})
	req := httptest.NewRequest(http.MethodPost, "/v1/resumes/1/score", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set("userID", uint(1))

	h.ScoreStored(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestScoreStored_ScoresParsedResume(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	content, err := json.Marshal(scoredResume())
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	doc := database.ResumeDocument{
		Title:   "resume.pdf",
		UserID:  1,
		Content: datatypes.JSON(content),
		Status:  database.DocumentStatusParsed,
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}

	h := NewATSHandler(db, ats.NewScorer(), nil, nil)

	payload, _ := json.Marshal(scoreStoredRequest{JobDescription: "Go and PostgreSQL"})
	req := httptest.NewRequest(http.MethodPost, "/v1/resumes/1/score", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set("userID", uint(1))

	h.ScoreStored(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}
