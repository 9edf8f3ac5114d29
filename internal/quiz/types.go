package quiz

import "fmt"

// MCQQuestion is a multiple-choice question with labelled options and one
// correct label.
type MCQQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// ShortAnswerQuestion pairs a question with the answer it expects.
type ShortAnswerQuestion struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expected_answer"`
}

// FillInBlank is a question containing a blank placeholder plus the text
// that fills it.
type FillInBlank struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Hint     string `json:"hint,omitempty"`
}

// Result is the final quiz envelope returned to the caller.
type Result struct {
	Success        bool                  `json:"success"`
	Message        string                `json:"message"`
	MCQQuestions   []MCQQuestion         `json:"mcq_questions"`
	ShortAnswers   []ShortAnswerQuestion `json:"short_answer_questions"`
	FillInBlanks   []FillInBlank         `json:"fill_in_the_blanks"`
	TotalQuestions int                   `json:"total_questions"`
}

// Count bounds per category.
const (
	MinCount = 1
	MaxCount = 10
)

// Default counts when the form omits them.
const (
	DefaultMCQ         = 5
	DefaultShortAnswer = 3
	DefaultFillBlanks  = 3
)

// Counts is the number of questions requested per category.
type Counts struct {
	MCQ         int
	ShortAnswer int
	FillBlanks  int
}

// DefaultCounts returns the counts used when the request omits them.
func DefaultCounts() Counts {
	return Counts{MCQ: DefaultMCQ, ShortAnswer: DefaultShortAnswer, FillBlanks: DefaultFillBlanks}
}

// Validate checks each count is within [MinCount, MaxCount].
func (c Counts) Validate() error {
	for _, f := range []struct {
		name string
		n    int
	}{
		{"num_mcq", c.MCQ},
		{"num_short_answer", c.ShortAnswer},
		{"num_fill_blanks", c.FillBlanks},
	} {
		if f.n < MinCount || f.n > MaxCount {
			return fmt.Errorf("%s must be between %d and %d, got %d", f.name, MinCount, MaxCount, f.n)
		}
	}
	return nil
}
