package exam

import "strings"

// SubjectiveMax is the display maximum for the externally graded part.
// Nothing in the core enforces it.
const SubjectiveMax = 20

type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type Question struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"q"`
	Options    []Option `json:"options"`
	CorrectKey string   `json:"answer,omitempty"` // stripped when served to learners
}

// HasOption reports whether key names one of the question's options.
func (q Question) HasOption(key string) bool {
	for _, o := range q.Options {
		if o.Key == key {
			return true
		}
	}
	return false
}

type Test struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Duration  string     `json:"duration"` // free-form label, e.g. "30m"
	Questions []Question `json:"mcqs"`
}

// MaxMCQ is the highest reachable multiple-choice score.
func (t Test) MaxMCQ() int { return len(t.Questions) }

// MaxTotal is MaxMCQ plus the subjective display maximum.
func (t Test) MaxTotal() int { return t.MaxMCQ() + SubjectiveMax }

// Public returns a copy without answer keys.
func (t Test) Public() Test {
	out := t
	out.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		q.Options = append([]Option(nil), q.Options...)
		q.CorrectKey = ""
		out.Questions[i] = q
	}
	return out
}

// Answers maps question id -> chosen option key. Unanswered questions are absent.
type Answers map[string]string

// UploadRef is an opaque reference to a stored upload; empty means none.
type UploadRef string

type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (id Identity) Trimmed() Identity {
	return Identity{Name: strings.TrimSpace(id.Name), Email: strings.TrimSpace(id.Email)}
}

// Valid reports whether both fields are non-empty after trimming.
func (id Identity) Valid() bool {
	t := id.Trimmed()
	return t.Name != "" && t.Email != ""
}

// Result is one scored attempt. It is never modified after creation.
type Result struct {
	ID              string    `json:"id"`
	TestID          string    `json:"testId"`
	LearnerName     string    `json:"studentName"`
	LearnerEmail    string    `json:"studentEmail"`
	TestName        string    `json:"testName"`
	CreatedAt       Timestamp `json:"date"`
	MCQScore        int       `json:"mcqScore"`
	SubjectiveScore int       `json:"subjectiveScore"`
	Total           int       `json:"total"`
}
