package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/quizgen/internal/extractor"
	"github.com/dgallion1/quizgen/internal/genai"
	"github.com/dgallion1/quizgen/internal/quiz"
)

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !extractor.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	counts, err := formCounts(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file too large (max %d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	ext, err := extractor.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pdfExt, ok := ext.(*extractor.PDFExtractor); ok {
		pdfExt.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	text, err := ext.Extract(bytes.NewReader(data), filename)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(text) < s.cfg.MinTextChars {
		jsonError(w, fmt.Sprintf("document text too short: need at least %d characters", s.cfg.MinTextChars), http.StatusBadRequest)
		return
	}

	s.log.Info("generating quiz",
		"filename", filename,
		"text_chars", len(text),
		"num_mcq", counts.MCQ,
		"num_short_answer", counts.ShortAnswer,
		"num_fill_blanks", counts.FillBlanks,
	)

	prompt := quiz.BuildPrompt(text, counts, s.cfg.MaxPromptChars)
	raw, err := s.model.Complete(r.Context(), quiz.SystemPrompt, prompt)
	if err != nil {
		s.writeError(w, err)
		return
	}

	payload, err := quiz.Decode(raw)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := quiz.Shape(payload, filename)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// formCounts reads the three count fields, applying defaults for absent
// values and rejecting non-integers and values outside [1,10].
func formCounts(r *http.Request) (quiz.Counts, error) {
	counts := quiz.DefaultCounts()
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"num_mcq", &counts.MCQ},
		{"num_short_answer", &counts.ShortAnswer},
		{"num_fill_blanks", &counts.FillBlanks},
	} {
		v := r.FormValue(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return counts, fmt.Errorf("%s must be an integer, got %q", f.name, v)
		}
		*f.dst = n
	}
	if err := counts.Validate(); err != nil {
		return counts, err
	}
	return counts, nil
}

// writeError maps pipeline failures to user-facing responses. Unreadable
// documents are client errors; model-side failures are server errors and
// surface verbatim. Anything unrecognized gets a generic 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var readErr *extractor.ReadError
	var svcErr *genai.ServiceError
	var malformedErr *quiz.MalformedOutputError
	var schemaErr *quiz.SchemaError

	switch {
	case errors.As(err, &readErr):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &svcErr):
		jsonError(w, err.Error(), http.StatusBadGateway)
	case errors.As(err, &malformedErr):
		jsonError(w, err.Error(), http.StatusInternalServerError)
	case errors.As(err, &schemaErr):
		jsonError(w, err.Error(), http.StatusInternalServerError)
	default:
		s.log.Error("unclassified pipeline error", "error", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   msg,
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
