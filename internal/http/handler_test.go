package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/nurpe/pointage/internal/auth"
	"github.com/nurpe/pointage/internal/config"
	"github.com/nurpe/pointage/internal/excel"
	"github.com/nurpe/pointage/internal/http/middleware"
	"github.com/nurpe/pointage/internal/model"
	"github.com/nurpe/pointage/internal/pdf"
	"github.com/nurpe/pointage/internal/service"
	"github.com/nurpe/pointage/internal/store/memory"
)

type fakeStatusRepo struct {
	users int64
	err   error
}

func (f fakeStatusRepo) DatabaseTime(context.Context) (time.Time, error) {
	if f.err != nil {
		return time.Time{}, f.err
	}
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), nil
}

func (f fakeStatusRepo) CountUsers(context.Context) (int64, error) {
	return f.users, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Version:     "1.0.0",
		HTTP:        config.HTTPConfig{ClientURL: "http://localhost:5173", MaxBodyBytes: 8 << 20},
	}
}

func newTestRouter(t *testing.T, status fakeStatusRepo, authMiddleware gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()
	timesheets := service.NewTimesheetService(memory.New(), excel.NewGenerator(), pdf.NewGenerator(), log)
	handler := NewHandler(timesheets, service.NewStatusService(status, "1.0.0"), log)
	return NewRouter(handler, authMiddleware, testConfig(), log)
}

func do(t *testing.T, router http.Handler, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestRootAndSecurityHeaders(t *testing.T) {
	router := newTestRouter(t, fakeStatusRepo{}, nil)
	rr := do(t, router, http.MethodGet, "/", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	decode(t, rr, &body)
	if body["status"] != "running" || body["version"] != "1.0.0" {
		t.Errorf("body = %v", body)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing nosniff header")
	}
	if rr.Header().Get("X-Frame-Options") != "SAMEORIGIN" {
		t.Errorf("X-Frame-Options = %q", rr.Header().Get("X-Frame-Options"))
	}
}

func TestHealth(t *testing.T) {
	rr := do(t, newTestRouter(t, fakeStatusRepo{}, nil), http.MethodGet, "/api/health", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	decode(t, rr, &body)
	if body["database"] != "connected" {
		t.Errorf("body = %v", body)
	}

	rr = do(t, newTestRouter(t, fakeStatusRepo{err: errors.New("connection refused")}, nil), http.MethodGet, "/api/health", nil, "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	decode(t, rr, &body)
	if body["status"] != "ERROR" || body["database"] != "disconnected" || body["error"] != "connection refused" {
		t.Errorf("body = %v", body)
	}
}

func TestCountUsers(t *testing.T) {
	rr := do(t, newTestRouter(t, fakeStatusRepo{users: 3}, nil), http.MethodGet, "/api/test/users", nil, "")
	var body map[string]any
	decode(t, rr, &body)
	if rr.Code != http.StatusOK || body["totalUsers"] != float64(3) {
		t.Errorf("status = %d body = %v", rr.Code, body)
	}

	rr = do(t, newTestRouter(t, fakeStatusRepo{err: errors.New("no table")}, nil), http.MethodGet, "/api/test/users", nil, "")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestNotFoundEchoesRequest(t *testing.T) {
	rr := do(t, newTestRouter(t, fakeStatusRepo{}, nil), http.MethodPost, "/api/nowhere", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	decode(t, rr, &body)
	if body["path"] != "/api/nowhere" || body["method"] != "POST" {
		t.Errorf("body = %v", body)
	}
}

func TestPanicBecomes500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Recovery(zerolog.Nop(), false))
	router.GET("/boom", func(*gin.Context) { panic("boom") })

	rr := do(t, router, http.MethodGet, "/boom", nil, "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	decode(t, rr, &body)
	if body["message"] == "boom" {
		t.Error("panic text leaked outside development")
	}
}

func TestTimesheetFlow(t *testing.T) {
	router := newTestRouter(t, fakeStatusRepo{}, nil)

	rr := do(t, router, http.MethodGet, "/api/pointages/2024/3/export", nil, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty export status = %d, want 422", rr.Code)
	}

	rr = do(t, router, http.MethodPost, "/api/pointages/2024/3/entries", nil, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("add status = %d", rr.Code)
	}
	var entry model.TimeEntry
	decode(t, rr, &entry)

	patch := []byte(`{"date":"2024-03-01","startTime":"08:00","endTime":"16:30","pointCount":"85","workedHours":99}`)
	rr = do(t, router, http.MethodPatch, "/api/pointages/2024/3/entries/"+entry.ID.String(), patch, "application/json")
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status = %d body = %s", rr.Code, rr.Body.String())
	}
	decode(t, rr, &entry)
	if entry.WorkedHours != 8.5 {
		t.Errorf("WorkedHours = %v, want 8.5", entry.WorkedHours)
	}

	rr = do(t, router, http.MethodPut, "/api/settings/daily-rate", []byte(`{"dailyRate":"150"}`), "application/json")
	if rr.Code != http.StatusOK {
		t.Fatalf("rate status = %d", rr.Code)
	}

	rr = do(t, router, http.MethodGet, "/api/pointages/2024/3", nil, "")
	var state model.PeriodState
	decode(t, rr, &state)
	if len(state.Entries) != 1 || state.Summary.WorkedDays != 1 || state.Summary.TotalAmount.StringFixed(2) != "150.00" {
		t.Errorf("state = %+v", state)
	}

	rr = do(t, router, http.MethodGet, "/api/pointages/2024/3/export", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "Pointage_Mars_2024.xlsx") {
		t.Errorf("Content-Disposition = %q", rr.Header().Get("Content-Disposition"))
	}

	rr = do(t, router, http.MethodGet, "/api/pointages/2024/3/export/pdf", nil, "")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("pdf export status = %d type = %q", rr.Code, rr.Header().Get("Content-Type"))
	}

	rr = do(t, router, http.MethodDelete, "/api/pointages/2024/3/entries/"+entry.ID.String(), nil, "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rr.Code)
	}
	rr = do(t, router, http.MethodDelete, "/api/pointages/2024/3/entries/"+entry.ID.String(), nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rr.Code)
	}
}

func TestInvalidPeriodAndID(t *testing.T) {
	router := newTestRouter(t, fakeStatusRepo{}, nil)
	for _, path := range []string{"/api/pointages/2024/13", "/api/pointages/abc/3", "/api/pointages/2024/0/export"} {
		if rr := do(t, router, http.MethodGet, path, nil, ""); rr.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, rr.Code)
		}
	}
	rr := do(t, router, http.MethodPatch, "/api/pointages/2024/3/entries/not-a-uuid", []byte(`{}`), "application/json")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rr.Code)
	}
}

func multipartFile(t *testing.T, name, contentType string, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": name}))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), w.FormDataContentType()
}

func TestAttachmentRoutes(t *testing.T) {
	router := newTestRouter(t, fakeStatusRepo{}, nil)
	rr := do(t, router, http.MethodPost, "/api/pointages/2024/3/entries", nil, "")
	var entry model.TimeEntry
	decode(t, rr, &entry)
	base := "/api/pointages/2024/3/entries/" + entry.ID.String() + "/attachment"

	body, ct := multipartFile(t, "notes.txt", "text/plain", []byte("hello"))
	rr = do(t, router, http.MethodPost, base, body, ct)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("text upload status = %d, want 415", rr.Code)
	}

	pdfBytes := []byte("%PDF-1.4 bon de livraison")
	body, ct = multipartFile(t, "bon.pdf", "application/pdf", pdfBytes)
	rr = do(t, router, http.MethodPost, base, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("pdf upload status = %d body = %s", rr.Code, rr.Body.String())
	}
	decode(t, rr, &entry)
	if entry.FileName != "bon.pdf" || entry.FileType != "application/pdf" {
		t.Errorf("entry = %+v", entry)
	}

	rr = do(t, router, http.MethodGet, base, nil, "")
	if rr.Code != http.StatusOK || !bytes.Equal(rr.Body.Bytes(), pdfBytes) {
		t.Errorf("download status = %d body = %q", rr.Code, rr.Body.String())
	}

	rr = do(t, router, http.MethodDelete, base, nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("remove status = %d", rr.Code)
	}
	rr = do(t, router, http.MethodGet, base, nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("download after removal status = %d", rr.Code)
	}
}

func dispositionFileName(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	_, params, err := mime.ParseMediaType(rr.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("Content-Disposition %q: %v", rr.Header().Get("Content-Disposition"), err)
	}
	return params["filename"]
}

func TestDownloadFileNamesAreEscaped(t *testing.T) {
	router := newTestRouter(t, fakeStatusRepo{}, nil)
	rr := do(t, router, http.MethodPost, "/api/pointages/2024/2/entries", nil, "")
	var entry model.TimeEntry
	decode(t, rr, &entry)
	base := "/api/pointages/2024/2/entries/" + entry.ID.String() + "/attachment"

	name := `bon "A" Février.pdf`
	body, ct := multipartFile(t, name, "application/pdf", []byte("%PDF-1.4 bon"))
	if rr = do(t, router, http.MethodPost, base, body, ct); rr.Code != http.StatusOK {
		t.Fatalf("upload status = %d body = %s", rr.Code, rr.Body.String())
	}

	rr = do(t, router, http.MethodGet, base, nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("download status = %d", rr.Code)
	}
	if got := dispositionFileName(t, rr); got != name {
		t.Errorf("attachment filename = %q, want %q", got, name)
	}

	rr = do(t, router, http.MethodGet, "/api/pointages/2024/2/export", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status = %d", rr.Code)
	}
	if got := dispositionFileName(t, rr); got != "Pointage_Février_2024.xlsx" {
		t.Errorf("export filename = %q", got)
	}
}

func TestAttachmentOverCeilingIs413(t *testing.T) {
	router := newTestRouter(t, fakeStatusRepo{}, nil)
	rr := do(t, router, http.MethodPost, "/api/pointages/2024/3/entries", nil, "")
	var entry model.TimeEntry
	decode(t, rr, &entry)
	base := "/api/pointages/2024/3/entries/" + entry.ID.String() + "/attachment"

	data := append([]byte("%PDF-1.4 "), bytes.Repeat([]byte{'x'}, 5<<20-8)...)
	body, ct := multipartFile(t, "scan.pdf", "application/pdf", data)
	rr = do(t, router, http.MethodPost, base, body, ct)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversize upload status = %d, want 413", rr.Code)
	}

	rr = do(t, router, http.MethodGet, base, nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("rejected upload left an attachment, status = %d", rr.Code)
	}
}

func TestAuthScopesStateToSubject(t *testing.T) {
	parser := auth.NewParser("secret")
	router := newTestRouter(t, fakeStatusRepo{}, middleware.Auth(parser))

	if rr := do(t, router, http.MethodGet, "/api/pointages/2024/3", nil, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rr.Code)
	}
	if rr := do(t, router, http.MethodGet, "/api/health", nil, ""); rr.Code != http.StatusOK {
		t.Fatalf("health must stay public, status = %d", rr.Code)
	}

	request := func(subject, method, path string) *httptest.ResponseRecorder {
		token, err := parser.Issue(subject, model.RoleEmployee, jwt.RegisteredClaims{})
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	if rr := request("alice", http.MethodPost, "/api/pointages/2024/3/entries"); rr.Code != http.StatusCreated {
		t.Fatalf("alice add status = %d", rr.Code)
	}
	var state model.PeriodState
	rr := request("bob", http.MethodGet, "/api/pointages/2024/3")
	decode(t, rr, &state)
	if len(state.Entries) != 0 {
		t.Errorf("bob sees %d entries", len(state.Entries))
	}
	rr = request("alice", http.MethodGet, "/api/pointages/2024/3")
	decode(t, rr, &state)
	if len(state.Entries) != 1 {
		t.Errorf("alice sees %d entries", len(state.Entries))
	}
}
