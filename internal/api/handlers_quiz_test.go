package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgallion1/quizgen/internal/config"
	"github.com/dgallion1/quizgen/internal/genai"
	"github.com/dgallion1/quizgen/internal/quiz"
)

// fakeModel is a deterministic stand-in for the completion service.
type fakeModel struct {
	response string
	err      error

	calls      int
	lastSystem string
	lastPrompt string
}

func (f *fakeModel) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

const modelResponse322 = `{
  "mcq": [
    {"question": "Q1?", "options": ["A) x", "B) y"], "correct_answer": "A"},
    {"question": "Q2?", "options": ["A) x", "B) y"], "correct_answer": "B"},
    {"question": "Q3?", "options": ["A) x", "B) y"], "correct_answer": "A", "explanation": "Why."}
  ],
  "short_answer": [
    {"question": "S1?", "expected_answer": "Because."},
    {"question": "S2?", "expected_answer": "Therefore."}
  ],
  "fill_in_the_blanks": [
    {"question": "The _____ runs.", "answer": "dog"},
    {"question": "The _____ sleeps.", "answer": "cat", "hint": "purrs"}
  ]
}`

// Two paragraphs, comfortably over the 100-character minimum.
const sampleDoc = `Photosynthesis is the process by which green plants convert sunlight into chemical energy stored in glucose.

Cellular respiration then releases that stored energy, powering growth, repair, and reproduction in the organism.`

func testConfig() config.Config {
	return config.Config{
		Port:            "0",
		AzureAPIKey:     "test-key",
		AzureDeployment: "gpt-4o",
		MaxUploadBytes:  10485760,
		MinTextChars:    100,
		MaxPromptChars:  8000,
	}
}

func newTestServer(model CompletionClient, cfg config.Config) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(model, nil, log, cfg)
}

// multipartUpload builds a multipart request body with a file part and
// optional extra form fields.
func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func postQuiz(srv *Server, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate-quiz", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	if success, ok := body["success"].(bool); !ok || success {
		t.Errorf("expected success=false in error body, got %v", body["success"])
	}
	if _, ok := body["error"].(string); !ok {
		t.Errorf("expected error message in body, got %v", body)
	}
	return body
}

func TestGenerateQuiz_Scenario(t *testing.T) {
	model := &fakeModel{response: modelResponse322}
	srv := newTestServer(model, testConfig())

	body, ct := multipartUpload(t, "biology.txt", []byte(sampleDoc), map[string]string{
		"num_mcq":          "3",
		"num_short_answer": "2",
		"num_fill_blanks":  "2",
	})
	rec := postQuiz(srv, body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res quiz.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !res.Success {
		t.Error("expected success=true")
	}
	if res.TotalQuestions != 7 {
		t.Errorf("expected total_questions=7, got %d", res.TotalQuestions)
	}
	if len(res.MCQQuestions) != 3 || len(res.ShortAnswers) != 2 || len(res.FillInBlanks) != 2 {
		t.Errorf("unexpected collection sizes: %d/%d/%d",
			len(res.MCQQuestions), len(res.ShortAnswers), len(res.FillInBlanks))
	}
	if !strings.Contains(res.Message, "biology.txt") {
		t.Errorf("message should name the document, got %q", res.Message)
	}

	if model.calls != 1 {
		t.Errorf("expected exactly one model call, got %d", model.calls)
	}
	if model.lastSystem != quiz.SystemPrompt {
		t.Errorf("unexpected system prompt: %q", model.lastSystem)
	}
	for _, want := range []string{
		"3 Multiple Choice Questions",
		"2 Short Answer Questions",
		"2 Fill in the Blank Questions",
		"Photosynthesis",
	} {
		if !strings.Contains(model.lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateQuiz_FencedModelOutput(t *testing.T) {
	model := &fakeModel{response: "```json\n" + modelResponse322 + "\n```"}
	srv := newTestServer(model, testConfig())

	body, ct := multipartUpload(t, "biology.txt", []byte(sampleDoc), nil)
	rec := postQuiz(srv, body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res quiz.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.TotalQuestions != 7 {
		t.Errorf("expected total_questions=7, got %d", res.TotalQuestions)
	}
}

func TestGenerateQuiz_DefaultCounts(t *testing.T) {
	model := &fakeModel{response: modelResponse322}
	srv := newTestServer(model, testConfig())

	body, ct := multipartUpload(t, "biology.txt", []byte(sampleDoc), nil)
	rec := postQuiz(srv, body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, want := range []string{
		"5 Multiple Choice Questions",
		"3 Short Answer Questions",
		"3 Fill in the Blank Questions",
	} {
		if !strings.Contains(model.lastPrompt, want) {
			t.Errorf("prompt missing default count line %q", want)
		}
	}
}

func TestGenerateQuiz_UnsupportedFileType(t *testing.T) {
	model := &fakeModel{response: modelResponse322}
	srv := newTestServer(model, testConfig())

	body, ct := multipartUpload(t, "image.png", []byte(sampleDoc), nil)
	rec := postQuiz(srv, body, ct)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	decodeErrorBody(t, rec)
	if model.calls != 0 {
		t.Errorf("model must not be called for unsupported file types, got %d calls", model.calls)
	}
}

func TestGenerateQuiz_MissingFile(t *testing.T) {
	srv := newTestServer(&fakeModel{}, testConfig())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("num_mcq", "3")
	mw.Close()

	rec := postQuiz(srv, &buf, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	decodeErrorBody(t, rec)
}

func TestGenerateQuiz_TextTooShort(t *testing.T) {
	model := &fakeModel{response: modelResponse322}
	srv := newTestServer(model, testConfig())

	body, ct := multipartUpload(t, "tiny.txt", []byte("Too short to quiz."), nil)
	rec := postQuiz(srv, body, ct)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	errBody := decodeErrorBody(t, rec)
	if !strings.Contains(errBody["error"].(string), "too short") {
		t.Errorf("expected text-too-short message, got %v", errBody["error"])
	}
	if model.calls != 0 {
		t.Errorf("model must not be called for short text, got %d calls", model.calls)
	}
}

func TestGenerateQuiz_UploadSizeBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 4096

	t.Run("exactly at cap accepted", func(t *testing.T) {
		model := &fakeModel{response: modelResponse322}
		srv := newTestServer(model, cfg)

		content := bytes.Repeat([]byte("a"), 4096)
		body, ct := multipartUpload(t, "exact.txt", content, nil)
		rec := postQuiz(srv, body, ct)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 at boundary, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("one byte over rejected", func(t *testing.T) {
		model := &fakeModel{response: modelResponse322}
		srv := newTestServer(model, cfg)

		content := bytes.Repeat([]byte("a"), 4097)
		body, ct := multipartUpload(t, "over.txt", content, nil)
		rec := postQuiz(srv, body, ct)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", rec.Code)
		}
		decodeErrorBody(t, rec)
		if model.calls != 0 {
			t.Errorf("model must not be called for oversized uploads, got %d calls", model.calls)
		}
	})
}

func TestGenerateQuiz_CountValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"mcq zero", map[string]string{"num_mcq": "0"}},
		{"mcq over max", map[string]string{"num_mcq": "11"}},
		{"short answer negative", map[string]string{"num_short_answer": "-2"}},
		{"fill blanks over max", map[string]string{"num_fill_blanks": "99"}},
		{"non-integer", map[string]string{"num_mcq": "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{response: modelResponse322}
			srv := newTestServer(model, testConfig())

			body, ct := multipartUpload(t, "doc.txt", []byte(sampleDoc), tt.fields)
			rec := postQuiz(srv, body, ct)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			decodeErrorBody(t, rec)
			if model.calls != 0 {
				t.Errorf("model must not be called for invalid counts, got %d calls", model.calls)
			}
		})
	}
}

func TestGenerateQuiz_ModelServiceFailure(t *testing.T) {
	model := &fakeModel{err: &genai.ServiceError{StatusCode: 429, Message: "quota exceeded"}}
	srv := newTestServer(model, testConfig())

	body, ct := multipartUpload(t, "doc.txt", []byte(sampleDoc), nil)
	rec := postQuiz(srv, body, ct)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	errBody := decodeErrorBody(t, rec)
	if !strings.Contains(errBody["error"].(string), "quota exceeded") {
		t.Errorf("service error should surface verbatim, got %v", errBody["error"])
	}
}

func TestGenerateQuiz_MalformedModelOutput(t *testing.T) {
	model := &fakeModel{response: "Sure! Here are your questions: 1) ..."}
	srv := newTestServer(model, testConfig())

	body, ct := multipartUpload(t, "doc.txt", []byte(sampleDoc), nil)
	rec := postQuiz(srv, body, ct)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	decodeErrorBody(t, rec)
}

func TestGenerateQuiz_SchemaViolation(t *testing.T) {
	// Valid JSON, but the MCQ record lacks correct_answer.
	model := &fakeModel{response: `{"mcq": [{"question": "Q?", "options": ["A) x"]}]}`}
	srv := newTestServer(model, testConfig())

	body, ct := multipartUpload(t, "doc.txt", []byte(sampleDoc), nil)
	rec := postQuiz(srv, body, ct)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	errBody := decodeErrorBody(t, rec)
	if !strings.Contains(errBody["error"].(string), "correct_answer") {
		t.Errorf("expected schema fault detail, got %v", errBody["error"])
	}
}

func TestGenerateQuiz_UnclassifiedErrorIsGeneric(t *testing.T) {
	model := &fakeModel{err: errors.New("socket melted: internal hostname db-3.private")}
	srv := newTestServer(model, testConfig())

	body, ct := multipartUpload(t, "doc.txt", []byte(sampleDoc), nil)
	rec := postQuiz(srv, body, ct)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	errBody := decodeErrorBody(t, rec)
	if errBody["error"].(string) != "internal server error" {
		t.Errorf("unclassified faults must not leak detail, got %v", errBody["error"])
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeModel{}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", body["status"])
	}
	if body["azure_configured"] != true {
		t.Errorf("expected azure_configured=true, got %v", body["azure_configured"])
	}
	if body["deployment"] != "gpt-4o" {
		t.Errorf("expected deployment gpt-4o, got %v", body["deployment"])
	}
}

func TestHealth_CredentialMissing(t *testing.T) {
	cfg := testConfig()
	cfg.AzureAPIKey = ""
	srv := newTestServer(&fakeModel{}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["azure_configured"] != false {
		t.Errorf("expected azure_configured=false, got %v", body["azure_configured"])
	}
}

func TestHome(t *testing.T) {
	srv := newTestServer(&fakeModel{}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/generate-quiz") {
		t.Errorf("capability listing should name the generate endpoint, got %s", rec.Body.String())
	}
}

func TestLLMStats_UnavailableWithoutClient(t *testing.T) {
	srv := newTestServer(&fakeModel{}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/stats/llm", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestLLMStats_Snapshot(t *testing.T) {
	stats := genai.NewRequestStats(0)
	stats.Record(150, 100, 50)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(&fakeModel{}, stats, log, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/stats/llm", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Deployment string              `json:"deployment"`
		Stats      genai.StatsSnapshot `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Deployment != "gpt-4o" {
		t.Errorf("expected deployment gpt-4o, got %q", body.Deployment)
	}
	if body.Stats.Count != 1 || body.Stats.PromptTokens != 100 {
		t.Errorf("unexpected stats snapshot: %+v", body.Stats)
	}
}
