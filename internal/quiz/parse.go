package quiz

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// MalformedOutputError reports a model completion that is not decodable as
// the expected JSON structure. The model is not contractually guaranteed to
// honor the schema instruction, so this is an expected failure mode.
type MalformedOutputError struct {
	Err error
	Raw string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("parse model output: %v (raw: %s)", e.Err, truncate(e.Raw, 200))
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// Payload holds the three decoded question lists. Records stay raw so that
// shaping can report which record is at fault.
type Payload struct {
	MCQ          []json.RawMessage `json:"mcq"`
	ShortAnswer  []json.RawMessage `json:"short_answer"`
	FillInBlanks []json.RawMessage `json:"fill_in_the_blanks"`
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// Decode strips an optional wrapping code fence from a raw completion and
// decodes the remainder into the three named question lists.
func Decode(raw string) (*Payload, error) {
	cleaned := stripCodeBlock(raw)

	var p Payload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, &MalformedOutputError{Err: err, Raw: cleaned}
	}
	return &p, nil
}

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
