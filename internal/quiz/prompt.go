package quiz

import (
	"fmt"
	"strings"
)

// SystemPrompt is the fixed instruction sent alongside every generation
// request.
const SystemPrompt = "You are an expert educator who creates high-quality assessment questions. Always respond with valid JSON only."

const schemaExample = `{
  "mcq": [
    {
      "question": "Question text?",
      "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"],
      "correct_answer": "A",
      "explanation": "Brief explanation"
    }
  ],
  "short_answer": [
    {
      "question": "Question text?",
      "expected_answer": "Expected answer in 2-3 sentences"
    }
  ],
  "fill_in_the_blanks": [
    {
      "question": "The capital of France is _____.",
      "answer": "Paris",
      "hint": "A European city"
    }
  ]
}`

// BuildPrompt formats the extracted text and requested counts into the
// single generation instruction. Text beyond maxChars is cut off to bound
// request size and cost.
func BuildPrompt(text string, c Counts, maxChars int) string {
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}

	var sb strings.Builder
	sb.WriteString("Based on the following text, generate questions in THREE categories:\n\n")
	sb.WriteString("TEXT:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nGenerate exactly:\n")
	sb.WriteString(fmt.Sprintf("1. %d Multiple Choice Questions (MCQ)\n", c.MCQ))
	sb.WriteString(fmt.Sprintf("2. %d Short Answer Questions\n", c.ShortAnswer))
	sb.WriteString(fmt.Sprintf("3. %d Fill in the Blank Questions\n", c.FillBlanks))
	sb.WriteString("\nReturn your response as a VALID JSON object with this EXACT structure:\n")
	sb.WriteString(schemaExample)
	sb.WriteString("\n\nIMPORTANT: Return ONLY valid JSON, no extra text or markdown.")
	return sb.String()
}
