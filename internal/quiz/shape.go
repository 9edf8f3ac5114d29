package quiz

import (
	"encoding/json"
	"fmt"
)

// SchemaError reports a decoded record that lacks a required field or has a
// field of the wrong shape.
type SchemaError struct {
	List   string
	Index  int
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid %s record %d: %s", e.List, e.Index, e.Reason)
}

// Shape constructs the typed question collections from a decoded payload and
// builds the final result envelope. Missing lists default to empty.
func Shape(p *Payload, filename string) (*Result, error) {
	mcqs := make([]MCQQuestion, 0, len(p.MCQ))
	for i, raw := range p.MCQ {
		var q MCQQuestion
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, &SchemaError{List: "mcq", Index: i, Reason: err.Error()}
		}
		switch {
		case q.Question == "":
			return nil, &SchemaError{List: "mcq", Index: i, Reason: "missing question"}
		case len(q.Options) == 0:
			return nil, &SchemaError{List: "mcq", Index: i, Reason: "missing options"}
		case q.CorrectAnswer == "":
			return nil, &SchemaError{List: "mcq", Index: i, Reason: "missing correct_answer"}
		}
		mcqs = append(mcqs, q)
	}

	shorts := make([]ShortAnswerQuestion, 0, len(p.ShortAnswer))
	for i, raw := range p.ShortAnswer {
		var q ShortAnswerQuestion
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, &SchemaError{List: "short_answer", Index: i, Reason: err.Error()}
		}
		switch {
		case q.Question == "":
			return nil, &SchemaError{List: "short_answer", Index: i, Reason: "missing question"}
		case q.ExpectedAnswer == "":
			return nil, &SchemaError{List: "short_answer", Index: i, Reason: "missing expected_answer"}
		}
		shorts = append(shorts, q)
	}

	blanks := make([]FillInBlank, 0, len(p.FillInBlanks))
	for i, raw := range p.FillInBlanks {
		var q FillInBlank
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, &SchemaError{List: "fill_in_the_blanks", Index: i, Reason: err.Error()}
		}
		switch {
		case q.Question == "":
			return nil, &SchemaError{List: "fill_in_the_blanks", Index: i, Reason: "missing question"}
		case q.Answer == "":
			return nil, &SchemaError{List: "fill_in_the_blanks", Index: i, Reason: "missing answer"}
		}
		blanks = append(blanks, q)
	}

	total := len(mcqs) + len(shorts) + len(blanks)

	return &Result{
		Success:        true,
		Message:        fmt.Sprintf("Successfully generated %d questions from %s", total, filename),
		MCQQuestions:   mcqs,
		ShortAnswers:   shorts,
		FillInBlanks:   blanks,
		TotalQuestions: total,
	}, nil
}
