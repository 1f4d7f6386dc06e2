// Package attempt coordinates one learner attempt from test selection to
// submission.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/mind-engage/evalify/internal/exam"
	"github.com/mind-engage/evalify/internal/grading"
)

type State int

const (
	Browsing State = iota
	Attempting
	Submitted
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Attempting:
		return "attempting"
	case Submitted:
		return "submitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{Browsing, Attempting, Submitted} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

var ErrNotAttempting = errors.New("no attempt in progress")

// Recorder stores scored results. *ledger.Ledger satisfies it.
type Recorder interface {
	Append(ctx context.Context, r exam.Result) error
}

type Deps struct {
	Engine    *grading.Engine
	Evaluator grading.Evaluator
	Ledger    Recorder
}

// Session holds at most one in-flight attempt. Every state change goes
// through apply.
type Session struct {
	deps Deps

	mu      sync.Mutex
	state   State
	test    exam.Test
	who     exam.Identity
	answers exam.Answers
	upload  exam.UploadRef
	result  *exam.Result
}

func NewSession(d Deps) *Session {
	if d.Engine == nil {
		d.Engine = grading.NewEngine()
	}
	if d.Evaluator == nil {
		d.Evaluator = grading.DefaultFixedScore
	}
	return &Session{deps: d, state: Browsing, answers: exam.Answers{}}
}

type eventKind int

const (
	evSelect eventKind = iota
	evBrowse
	evName
	evEmail
	evAnswer
	evUpload
	evSubmitted
)

type event struct {
	kind   eventKind
	test   exam.Test
	text   string
	qid    string
	result exam.Result
}

// apply is the transition function. The caller holds s.mu.
func (s *Session) apply(e event) error {
	switch e.kind {
	case evSelect:
		s.state = Attempting
		s.test = e.test
		s.who = exam.Identity{}
		s.answers = exam.Answers{}
		s.upload = ""
		s.result = nil
		return nil
	case evBrowse:
		s.state = Browsing
		return nil
	}

	if s.state != Attempting {
		return ErrNotAttempting
	}
	switch e.kind {
	case evName:
		s.who.Name = e.text
	case evEmail:
		s.who.Email = e.text
	case evAnswer:
		if e.qid == "" {
			return fmt.Errorf("answer: empty question id")
		}
		s.answers[e.qid] = e.text
	case evUpload:
		s.upload = exam.UploadRef(e.text)
	case evSubmitted:
		r := e.result
		s.result = &r
		s.state = Submitted
	default:
		return fmt.Errorf("unknown event %d", e.kind)
	}
	return nil
}

func (s *Session) do(e event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(e)
}

// Select starts a fresh attempt at t from any state. All transient fields
// are cleared, also when t is the test already being attempted.
func (s *Session) Select(t exam.Test) { _ = s.do(event{kind: evSelect, test: t}) }

// Browse returns to the test list. Fields are left as they are; the next
// Select clears them.
func (s *Session) Browse() { _ = s.do(event{kind: evBrowse}) }

func (s *Session) SetName(name string) error { return s.do(event{kind: evName, text: name}) }

func (s *Session) SetEmail(email string) error { return s.do(event{kind: evEmail, text: email}) }

func (s *Session) Answer(questionID, key string) error {
	return s.do(event{kind: evAnswer, qid: questionID, text: key})
}

func (s *Session) AttachUpload(ref exam.UploadRef) error {
	return s.do(event{kind: evUpload, text: string(ref)})
}

// Submit scores the attempt and appends it to the ledger. A missing name or
// email returns grading.ErrInvalidSubmission and changes nothing. A ledger
// failure keeps the attempt open so it can be submitted again.
func (s *Session) Submit(ctx context.Context) (exam.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Attempting {
		return exam.Result{}, ErrNotAttempting
	}
	if !s.who.Valid() {
		return exam.Result{}, grading.ErrInvalidSubmission
	}

	ec := grading.EvalContext{TestID: s.test.ID, TestName: s.test.Name, Learner: s.who.Trimmed()}
	subjective, err := s.deps.Evaluator.Evaluate(ctx, s.upload, ec)
	if err != nil {
		log.Printf("attempt: evaluate upload %q for %s: %v; subjective score 0", s.upload, s.test.ID, err)
		subjective = 0
	}

	r, err := s.deps.Engine.Score(s.test, s.who, s.answers, subjective)
	if err != nil {
		return exam.Result{}, err
	}
	if s.deps.Ledger != nil {
		if err := s.deps.Ledger.Append(ctx, r); err != nil {
			return exam.Result{}, fmt.Errorf("record result: %w", err)
		}
	}
	if err := s.apply(event{kind: evSubmitted, result: r}); err != nil {
		return exam.Result{}, err
	}
	return r, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result is the submitted result, if any.
func (s *Session) Result() (exam.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return exam.Result{}, false
	}
	return *s.result, true
}

// View is a read-only snapshot for display.
type View struct {
	State   State          `json:"state"`
	TestID  string         `json:"test_id,omitempty"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Answers exam.Answers   `json:"answers"`
	Upload  exam.UploadRef `json:"upload,omitempty"`
	Result  *exam.Result   `json:"result,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		State:   s.state,
		TestID:  s.test.ID,
		Name:    s.who.Name,
		Email:   s.who.Email,
		Answers: make(exam.Answers, len(s.answers)),
		Upload:  s.upload,
	}
	for k, a := range s.answers {
		v.Answers[k] = a
	}
	if s.result != nil {
		r := *s.result
		v.Result = &r
	}
	return v
}

// TestID is the test of the current or last attempt, empty while nothing
// was selected yet.
func (s *Session) TestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.test.ID
}
