package formats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mind-engage/evalify/internal/exam"
)

const (
	DefaultDuration = "30m"
	DefaultPrompt   = "Untitled Question"
	DefaultName     = "Untitled Test"
	DefaultKey      = "opt0"
)

// Issue codes reported by NormalizeReport.
const (
	IssueMissingID        = "missing_id"
	IssueMissingName      = "missing_name"
	IssueMissingQuestion  = "missing_question_id"
	IssueMissingPrompt    = "missing_prompt"
	IssueMissingAnswer    = "missing_answer"
	IssueUnresolvedAnswer = "unresolved_answer"
	IssueAnswerMismatch   = "answer_mismatch"
)

// Issue describes a defaulted or reconciled field. QuestionIndex is -1 for
// test-level issues.
type Issue struct {
	TestIndex     int    `json:"test_index"`
	QuestionIndex int    `json:"question_index"`
	Code          string `json:"code"`
	Detail        string `json:"detail,omitempty"`
}

func (i Issue) String() string {
	if i.QuestionIndex < 0 {
		return fmt.Sprintf("test[%d]: %s %s", i.TestIndex, i.Code, i.Detail)
	}
	return fmt.Sprintf("test[%d].q[%d]: %s %s", i.TestIndex, i.QuestionIndex, i.Code, i.Detail)
}

// OptionKey is the positional key assigned to the n-th option.
func OptionKey(n int) string { return "opt" + strconv.Itoa(n) }

// Normalize converts upstream records into canonical tests. It never fails:
// anything missing is replaced by a default.
func Normalize(raw []RawTest) []exam.Test {
	tests, _ := NormalizeReport(raw)
	return tests
}

// NormalizeReport is Normalize plus a list of everything that was defaulted.
func NormalizeReport(raw []RawTest) ([]exam.Test, []Issue) {
	n := normalizer{}
	out := make([]exam.Test, 0, len(raw))
	for i, rt := range raw {
		out = append(out, n.test(i, rt))
	}
	return out, n.issues
}

type normalizer struct {
	issues []Issue
}

func (n *normalizer) report(ti, qi int, code, detail string) {
	n.issues = append(n.issues, Issue{TestIndex: ti, QuestionIndex: qi, Code: code, Detail: detail})
}

func (n *normalizer) test(i int, rt RawTest) exam.Test {
	t := exam.Test{
		ID:       orDefault(rt.ID, fmt.Sprintf("test-%d", i)),
		Name:     orDefault(rt.Name, DefaultName),
		Duration: orDefault(rt.Duration, DefaultDuration),
	}
	if present(rt.ID) == "" {
		n.report(i, -1, IssueMissingID, "using "+t.ID)
	}
	if present(rt.Name) == "" {
		n.report(i, -1, IssueMissingName, "")
	}
	t.Questions = make([]exam.Question, 0, len(rt.Questions))
	for j, rq := range rt.Questions {
		t.Questions = append(t.Questions, n.question(i, j, rq))
	}
	return t
}

func (n *normalizer) question(ti, qi int, rq RawQuestion) exam.Question {
	q := exam.Question{ID: orDefault(rq.ID, "q"+strconv.Itoa(qi))}
	if present(rq.ID) == "" {
		n.report(ti, qi, IssueMissingQuestion, "using "+q.ID)
	}

	switch {
	case rq.Question != nil:
		q.Prompt = *rq.Question
	case rq.Q != nil:
		q.Prompt = *rq.Q
	default:
		q.Prompt = DefaultPrompt
		n.report(ti, qi, IssueMissingPrompt, "")
	}

	q.Options = make([]exam.Option, len(rq.Options))
	for k, o := range rq.Options {
		// both arms carry their label in Text; the key depends only on position
		q.Options[k] = exam.Option{Key: OptionKey(k), Label: o.Text}
	}

	q.CorrectKey = n.resolve(ti, qi, rq, q)
	return q
}

// resolve picks the correct key: numeric index first, then the string
// answer, then DefaultKey. A key that names no option falls back to DefaultKey.
func (n *normalizer) resolve(ti, qi int, rq RawQuestion, q exam.Question) string {
	var key string
	switch {
	case rq.CorrectIndex != nil:
		key = OptionKey(*rq.CorrectIndex)
		if rq.Answer != nil && *rq.Answer != key {
			n.report(ti, qi, IssueAnswerMismatch, fmt.Sprintf("correctIndex=%d answer=%q, using %s", *rq.CorrectIndex, *rq.Answer, key))
		}
	case rq.Answer != nil:
		key = *rq.Answer
	default:
		n.report(ti, qi, IssueMissingAnswer, "using "+DefaultKey)
		return DefaultKey
	}
	if len(q.Options) > 0 && !q.HasOption(key) {
		n.report(ti, qi, IssueUnresolvedAnswer, fmt.Sprintf("%q is not an option key, using %s", key, DefaultKey))
		return DefaultKey
	}
	return key
}

func present(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// orDefault keeps a present value exactly as given; blank counts as missing.
func orDefault(p *string, def string) string {
	if present(p) != "" {
		return *p
	}
	return def
}
