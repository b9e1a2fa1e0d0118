package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"careerpilot/internal/database"
	"careerpilot/internal/document"
)

type fakeStorage struct {
	uploaded map[string][]byte
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

type fakeEnqueuer struct {
	enqueued []*asynq.Task
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.enqueued = append(e.enqueued, task)
	return &asynq.TaskInfo{}, nil
}

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:apitest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&database.User{},
		&database.ResumeDocument{},
		&database.CoverLetter{},
		&database.Agreement{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newMultipartUpload(t *testing.T, filename, mimeType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func uploadContext(t *testing.T, body *bytes.Buffer, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", uint(1))
	return c, w
}

func TestUploadDocument_RejectsUnsupportedFormatBeforeAnything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	storage := newFakeStorage()
	enqueuer := &fakeEnqueuer{}

	h := NewDocumentHandler(db, storage, enqueuer, nil, "", 0)

	body, contentType := newMultipartUpload(t, "photo.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	c, w := uploadContext(t, body, contentType)

	h.Upload(c)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 0 {
		t.Fatalf("nothing should be stored, got %d objects", len(storage.uploaded))
	}
	if len(enqueuer.enqueued) != 0 {
		t.Fatalf("no parse task should be enqueued, got %d", len(enqueuer.enqueued))
	}

	var count int64
	if err := db.Model(&database.ResumeDocument{}).Count(&count).Error; err != nil {
		t.Fatalf("count documents: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no document rows, got %d", count)
	}
}

func TestUploadDocument_AcceptsPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	storage := newFakeStorage()
	enqueuer := &fakeEnqueuer{}

	h := NewDocumentHandler(db, storage, enqueuer, nil, "", 0)

	content := []byte("%PDF-1.4 fake")
	body, contentType := newMultipartUpload(t, "resume.pdf", document.MimePDF, content)
	c, w := uploadContext(t, body, contentType)

	h.Upload(c)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 1 {
		t.Fatalf("expected 1 stored object, got %d", len(storage.uploaded))
	}
	if len(enqueuer.enqueued) != 1 {
		t.Fatalf("expected 1 parse task, got %d", len(enqueuer.enqueued))
	}

	var doc database.ResumeDocument
	if err := db.First(&doc).Error; err != nil {
		t.Fatalf("load document: %v", err)
	}
	if doc.Status != database.DocumentStatusProcessing {
		t.Fatalf("expected status %q got %q", database.DocumentStatusProcessing, doc.Status)
	}
	if doc.ContentHash != document.Fingerprint(content) {
		t.Fatalf("content hash mismatch")
	}
	if doc.MimeType != document.MimePDF {
		t.Fatalf("mime type mismatch: %q", doc.MimeType)
	}
}

func TestUploadDocument_EnforcesSizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	storage := newFakeStorage()
	enqueuer := &fakeEnqueuer{}

	h := NewDocumentHandler(db, storage, enqueuer, nil, "", 8)

	body, contentType := newMultipartUpload(t, "resume.pdf", document.MimePDF, []byte("%PDF-1.4 more than eight bytes"))
	c, w := uploadContext(t, body, contentType)

	h.Upload(c)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestDeleteDocument_RemovesObjectAndRow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	storage := newFakeStorage()
	enqueuer := &fakeEnqueuer{}

	doc := database.ResumeDocument{
		Title:     "resume.pdf",
		UserID:    1,
		ObjectKey: "resume-uploads/1/abc",
		MimeType:  document.MimePDF,
		Status:    database.DocumentStatusParsed,
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}
	storage.uploaded[doc.ObjectKey] = []byte("data")

	h := NewDocumentHandler(db, storage, enqueuer, nil, "", 0)

	req := httptest.NewRequest(http.MethodDelete, "/v1/documents/1", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set("userID", uint(1))

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != doc.ObjectKey {
		t.Fatalf("object not deleted: %v", storage.deleted)
	}

	var count int64
	if err := db.Model(&database.ResumeDocument{}).Count(&count).Error; err != nil {
		t.Fatalf("count documents: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no document rows, got %d", count)
	}
}

func TestGetDocument_OwnershipEnforced(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	doc := database.ResumeDocument{
		Title:     "resume.pdf",
		UserID:    2,
		ObjectKey: "resume-uploads/2/abc",
		MimeType:  document.MimePDF,
		Status:    database.DocumentStatusParsed,
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}

	h := NewDocumentHandler(db, newFakeStorage(), &fakeEnqueuer{}, nil, "", 0)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/1", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set("userID", uint(1))

	h.Get(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
