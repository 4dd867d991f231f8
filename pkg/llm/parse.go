package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when a reply contains no decodable JSON object.
var ErrNoJSON = errors.New("no JSON object found in reply")

// QuizQuestion is one parsed multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// QuizPayload is the structured quiz reply.
type QuizPayload struct {
	Questions []QuizQuestion `json:"questions"`
}

// Correction is one proofreading edit.
type Correction struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Reason    string `json:"reason"`
}

// ProofreadPayload is the structured proofreading reply.
type ProofreadPayload struct {
	CorrectedText string       `json:"corrected_text"`
	Corrections   []Correction `json:"corrections"`
	Confidence    float64      `json:"confidence"`
}

// ExtractJSONObject finds the first balanced {...} block in a reply.
// Models wrap JSON in prose and code fences; this tolerates both.
// Braces inside JSON strings are ignored during matching.
func ExtractJSONObject(reply string) (string, error) {
	start := strings.IndexByte(reply, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(reply); i++ {
		c := reply[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return reply[start : i+1], nil
				}
			}
		}
	}
	return "", ErrNoJSON
}

// ParseQuiz decodes a quiz reply and validates its shape: each question
// needs exactly 4 options and a correct_answer in 0..3. Invalid
// questions are dropped; an empty result is an error.
func ParseQuiz(reply string) (*QuizPayload, error) {
	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return nil, err
	}

	var payload QuizPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}

	valid := payload.Questions[:0]
	for _, q := range payload.Questions {
		if q.Question == "" || len(q.Options) != 4 {
			continue
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
			continue
		}
		valid = append(valid, q)
	}
	payload.Questions = valid

	if len(payload.Questions) == 0 {
		return nil, errors.New("quiz reply contained no valid questions")
	}
	return &payload, nil
}

// ParseProofread decodes a proofreading reply. A missing corrected_text
// is an error; confidence is clamped to [0,1].
func ParseProofread(reply string) (*ProofreadPayload, error) {
	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return nil, err
	}

	var payload ProofreadPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}
	if payload.CorrectedText == "" {
		return nil, errors.New("proofread reply missing corrected_text")
	}
	if payload.Confidence < 0 {
		payload.Confidence = 0
	}
	if payload.Confidence > 1 {
		payload.Confidence = 1
	}
	return &payload, nil
}
