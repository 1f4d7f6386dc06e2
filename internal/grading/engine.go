package grading

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/evalify/internal/exam"
)

// ErrInvalidSubmission is returned when the learner's name or email is
// empty after trimming. No result is produced.
var ErrInvalidSubmission = errors.New("learner name and email are required")

type Clock func() time.Time

// IDFunc derives a result id from the test id and the creation time.
type IDFunc func(testID string, at time.Time) string

// Engine scores attempts. The zero value is not usable; call NewEngine.
type Engine struct {
	now   Clock
	newID IDFunc
}

// Engine options

type Option func(*Engine)

func WithClock(c Clock) Option   { return func(e *Engine) { e.now = c } }
func WithIDFunc(f IDFunc) Option { return func(e *Engine) { e.newID = f } }

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now, newID: ResultID}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ResultID is "<testID>-<unix millis>-<8 hex>". The random suffix keeps ids
// unique when two submissions land in the same millisecond.
func ResultID(testID string, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", testID, at.UnixMilli(), suffix)
}

// MCQScore counts questions whose chosen key equals the correct key.
// Answers for unknown question ids are ignored.
func MCQScore(t exam.Test, answers exam.Answers) int {
	score := 0
	for _, q := range t.Questions {
		if chosen, ok := answers[q.ID]; ok && chosen == q.CorrectKey {
			score++
		}
	}
	return score
}

// Score builds the immutable result of one attempt. subjective comes from
// an external grader and is not bounded above; negative values count as 0.
func (e *Engine) Score(t exam.Test, who exam.Identity, answers exam.Answers, subjective int) (exam.Result, error) {
	if !who.Valid() {
		return exam.Result{}, ErrInvalidSubmission
	}
	who = who.Trimmed()
	if subjective < 0 {
		subjective = 0
	}
	mcq := MCQScore(t, answers)
	now := e.now()
	return exam.Result{
		ID:              e.newID(t.ID, now),
		TestID:          t.ID,
		LearnerName:     who.Name,
		LearnerEmail:    who.Email,
		TestName:        t.Name,
		CreatedAt:       exam.At(now),
		MCQScore:        mcq,
		SubjectiveScore: subjective,
		Total:           mcq + subjective,
	}, nil
}
