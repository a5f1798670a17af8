package analyses_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"ats-backend/internal/analyses"
	"ats-backend/internal/shared/config"
	"ats-backend/internal/shared/server"
	"ats-backend/internal/uploads"
)

type countingLLM struct {
	calls  int
	output string
	err    error
}

func (c *countingLLM) Generate(ctx context.Context, prompt string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.output, nil
}

type testEnv struct {
	router    *gin.Engine
	uploadDir string
	llm       *countingLLM
	repo      *analyses.MemoryRepo
}

func newTestEnv(t *testing.T, extractResult string, client *countingLLM) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uploadDir := t.TempDir()
	store, err := uploads.New(uploadDir)
	if err != nil {
		t.Fatalf("uploads.New: %v", err)
	}

	engine := analyses.NewEngine(client, nil)
	engine.Sleep = func(d time.Duration) {}

	repo := analyses.NewMemoryRepo()
	svc := &analyses.Service{
		Store:       store,
		ExtractText: func(path string) string { return extractResult },
		Engine:      engine,
		Repo:        repo,
		Model:       "test-model",
	}

	cfg := config.Config{
		Port:            "0",
		Env:             "dev",
		CORSAllowOrigin: []string{"*"},
		UploadDir:       uploadDir,
	}
	router := server.NewRouter(cfg, analyses.NewHandler(svc))

	return testEnv{router: router, uploadDir: uploadDir, llm: client, repo: repo}
}

func analyzeRequest(t *testing.T, includeFile bool, jobDescription string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if includeFile {
		fileWriter, err := writer.CreateFormFile("resume", "resume.pdf")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fileWriter.Write([]byte("%PDF-1.4 fake body")); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.WriteField("job_description", jobDescription); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func assertUploadDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty upload dir, found %d files", len(entries))
	}
}

func TestAnalyzeMissingResumeFile(t *testing.T) {
	env := newTestEnv(t, "resume text", &countingLLM{output: "ok"})

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, analyzeRequest(t, false, "Go engineer"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if got := decodeError(t, resp); got != "Resume file missing" {
		t.Fatalf("unexpected error text %q", got)
	}
	if env.llm.calls != 0 {
		t.Fatalf("expected no remote calls, got %d", env.llm.calls)
	}
}

func TestAnalyzeMissingJobDescription(t *testing.T) {
	env := newTestEnv(t, "resume text", &countingLLM{output: "ok"})

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, analyzeRequest(t, true, "   \n\t "))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if got := decodeError(t, resp); got != "Job description required" {
		t.Fatalf("unexpected error text %q", got)
	}
	if env.llm.calls != 0 {
		t.Fatalf("expected no remote calls, got %d", env.llm.calls)
	}
}

func TestAnalyzeUnreadablePDFSkipsRemoteCall(t *testing.T) {
	env := newTestEnv(t, "", &countingLLM{output: "ok"})

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, analyzeRequest(t, true, "Go engineer"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if got := decodeError(t, resp); got != "Could not extract text from the uploaded PDF" {
		t.Fatalf("unexpected error text %q", got)
	}
	if env.llm.calls != 0 {
		t.Fatalf("expected no remote calls on extraction failure, got %d", env.llm.calls)
	}
	assertUploadDirEmpty(t, env.uploadDir)
}

func TestAnalyzeStorageFailureReturnsGenericError(t *testing.T) {
	env := newTestEnv(t, "resume text", &countingLLM{output: "ok"})
	if err := os.RemoveAll(env.uploadDir); err != nil {
		t.Fatalf("remove upload dir: %v", err)
	}

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, analyzeRequest(t, true, "Go engineer"))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if got := decodeError(t, resp); got != "Internal Server Error" {
		t.Fatalf("expected generic error body, got %q", got)
	}
	if env.llm.calls != 0 {
		t.Fatalf("expected no remote calls on storage failure, got %d", env.llm.calls)
	}
}

func TestAnalyzeSuccessTruncatesAndCleansUp(t *testing.T) {
	longText := strings.Repeat("résumé ", 1000) // well past 3000 runes
	env := newTestEnv(t, longText, &countingLLM{output: "ATS Match: 85%"})

	jd := strings.Repeat("j", 3500)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, analyzeRequest(t, true, jd))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		ParsedResume         string `json:"parsed_resume"`
		ParsedJobDescription string `json:"parsed_job_description"`
		ATSResult            string `json:"ats_result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if got := utf8.RuneCountInString(body.ParsedResume); got != 3000 {
		t.Fatalf("expected parsed_resume of 3000 runes, got %d", got)
	}
	if !strings.HasPrefix(longText, body.ParsedResume) {
		t.Fatal("parsed_resume is not a prefix of the extracted text")
	}
	if got := utf8.RuneCountInString(body.ParsedJobDescription); got != 3000 {
		t.Fatalf("expected parsed_job_description of 3000 runes, got %d", got)
	}
	if body.ATSResult != "ATS Match: 85%" {
		t.Fatalf("unexpected ats_result %q", body.ATSResult)
	}
	if env.llm.calls != 1 {
		t.Fatalf("expected 1 remote call, got %d", env.llm.calls)
	}
	assertUploadDirEmpty(t, env.uploadDir)
}

func TestAnalyzeIdenticalRequestsAreIndependent(t *testing.T) {
	env := newTestEnv(t, "resume text", &countingLLM{output: "ATS Match: 60%"})

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		env.router.ServeHTTP(resp, analyzeRequest(t, true, "Go engineer"))
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.Code)
		}
	}

	if env.llm.calls != 2 {
		t.Fatalf("expected 2 independent remote calls, got %d", env.llm.calls)
	}
	assertUploadDirEmpty(t, env.uploadDir)
}

func TestAnalyzeDegradedRemoteStillReturns200(t *testing.T) {
	env := newTestEnv(t, "resume text", &countingLLM{err: errors.New("rate limited")})

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, analyzeRequest(t, true, "Go engineer"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with degraded result, got %d", resp.Code)
	}

	var body struct {
		ATSResult string `json:"ats_result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ATSResult != analyses.OverloadedFallback {
		t.Fatalf("expected overload fallback, got %q", body.ATSResult)
	}
	if env.llm.calls != 5 {
		t.Fatalf("expected 5 attempts, got %d", env.llm.calls)
	}
	assertUploadDirEmpty(t, env.uploadDir)
}

func TestListReturnsRecordedAnalyses(t *testing.T) {
	env := newTestEnv(t, "resume text", &countingLLM{output: "ATS Match: 75%"})

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, analyzeRequest(t, true, "Go engineer"))
	if resp.Code != http.StatusOK {
		t.Fatalf("analyze: expected 200, got %d", resp.Code)
	}

	listResp := httptest.NewRecorder()
	env.router.ServeHTTP(listResp, httptest.NewRequest(http.MethodGet, "/analyses?limit=5", nil))
	if listResp.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", listResp.Code)
	}

	var body struct {
		Analyses []struct {
			ID       string `json:"id"`
			FileName string `json:"fileName"`
			Result   string `json:"result"`
		} `json:"analyses"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&body); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(body.Analyses) != 1 {
		t.Fatalf("expected 1 recorded analysis, got %d", len(body.Analyses))
	}
	if body.Analyses[0].FileName != "resume.pdf" {
		t.Fatalf("unexpected fileName %q", body.Analyses[0].FileName)
	}
	if body.Analyses[0].Result != "ATS Match: 75%" {
		t.Fatalf("unexpected result %q", body.Analyses[0].Result)
	}
}

func TestListRejectsBadLimit(t *testing.T) {
	env := newTestEnv(t, "resume text", &countingLLM{output: "ok"})

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/analyses?limit=0", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
