package attempt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/evalify/internal/exam"
	"github.com/mind-engage/evalify/internal/grading"
	"github.com/mind-engage/evalify/internal/ledger"
	"github.com/mind-engage/evalify/internal/storage"
)

func basics() exam.Test {
	opts := []exam.Option{{Key: "opt0", Label: "A"}, {Key: "opt1", Label: "B"}}
	return exam.Test{
		ID: "t1", Name: "Basics", Duration: "30m",
		Questions: []exam.Question{
			{ID: "q1", Prompt: "one", Options: opts, CorrectKey: "opt0"},
			{ID: "q2", Prompt: "two", Options: opts, CorrectKey: "opt1"},
		},
	}
}

type failingRecorder struct{ err error }

func (f failingRecorder) Append(context.Context, exam.Result) error { return f.err }

func newSession(t *testing.T) (*Session, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(storage.NewMemoryKV(), "")
	eng := grading.NewEngine(grading.WithClock(func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}))
	return NewSession(Deps{Engine: eng, Evaluator: grading.Fixed(14), Ledger: l}), l
}

func TestSession_StartsBrowsing(t *testing.T) {
	s, _ := newSession(t)
	assert.Equal(t, Browsing, s.State())
	assert.ErrorIs(t, s.SetName("Ada"), ErrNotAttempting)
	assert.ErrorIs(t, s.Answer("q1", "opt0"), ErrNotAttempting)
	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotAttempting)
}

func TestSession_SubmitAppendsToLedger(t *testing.T) {
	s, l := newSession(t)
	s.Select(basics())
	require.Equal(t, Attempting, s.State())
	require.NoError(t, s.SetName("Ada"))
	require.NoError(t, s.SetEmail("ada@x.com"))
	require.NoError(t, s.Answer("q1", "opt0"))
	require.NoError(t, s.Answer("q2", "opt0"))

	r, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, r.MCQScore)
	assert.Equal(t, 14, r.SubjectiveScore)
	assert.Equal(t, 15, r.Total)
	assert.Equal(t, Submitted, s.State())

	all := l.All()
	require.NotEmpty(t, all)
	assert.Equal(t, r.ID, all[0].ID)

	got, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, r, got)

	assert.ErrorIs(t, s.Answer("q1", "opt1"), ErrNotAttempting, "submitted is terminal")
	_, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotAttempting)
}

func TestSession_InvalidSubmitChangesNothing(t *testing.T) {
	s, l := newSession(t)
	s.Select(basics())
	require.NoError(t, s.SetName("   "))
	require.NoError(t, s.SetEmail("ada@x.com"))
	require.NoError(t, s.Answer("q1", "opt0"))
	before := s.View()

	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, grading.ErrInvalidSubmission)
	assert.Equal(t, Attempting, s.State())
	assert.Equal(t, before, s.View())
	assert.Empty(t, l.All())
}

func TestSession_ReselectResets(t *testing.T) {
	s, _ := newSession(t)
	s.Select(basics())
	require.NoError(t, s.SetName("Ada"))
	require.NoError(t, s.SetEmail("ada@x.com"))
	require.NoError(t, s.Answer("q1", "opt0"))
	require.NoError(t, s.AttachUpload("uploads/x.png"))

	s.Browse()
	assert.Equal(t, Browsing, s.State())
	assert.Equal(t, "Ada", s.View().Name, "browse does not clear")

	s.Select(basics())
	v := s.View()
	assert.Equal(t, Attempting, v.State)
	assert.Empty(t, v.Name)
	assert.Empty(t, v.Email)
	assert.Empty(t, v.Answers)
	assert.Empty(t, v.Upload)
	assert.Nil(t, v.Result)
}

func TestSession_SelectAfterSubmit(t *testing.T) {
	s, l := newSession(t)
	s.Select(basics())
	require.NoError(t, s.SetName("Ada"))
	require.NoError(t, s.SetEmail("ada@x.com"))
	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	s.Select(basics())
	assert.Equal(t, Attempting, s.State())
	_, ok := s.Result()
	assert.False(t, ok)
	assert.Len(t, l.All(), 1)
}

func TestSession_LedgerFailureKeepsAttempt(t *testing.T) {
	s := NewSession(Deps{Evaluator: grading.Fixed(14), Ledger: failingRecorder{errors.New("disk full")}})
	s.Select(basics())
	require.NoError(t, s.SetName("Ada"))
	require.NoError(t, s.SetEmail("ada@x.com"))

	_, err := s.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, Attempting, s.State())
	_, ok := s.Result()
	assert.False(t, ok)
}

func TestSession_EvaluatorErrorScoresZero(t *testing.T) {
	var gotRef exam.UploadRef
	var gotCtx grading.EvalContext
	ev := grading.EvaluatorFunc(func(_ context.Context, ref exam.UploadRef, ec grading.EvalContext) (int, error) {
		gotRef, gotCtx = ref, ec
		return 0, errors.New("grader down")
	})
	s := NewSession(Deps{Evaluator: ev})
	s.Select(basics())
	require.NoError(t, s.SetName(" Ada "))
	require.NoError(t, s.SetEmail("ada@x.com"))
	require.NoError(t, s.Answer("q2", "opt1"))
	require.NoError(t, s.AttachUpload("uploads/a.png"))

	r, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, r.SubjectiveScore)
	assert.Equal(t, 1, r.Total)
	assert.Equal(t, exam.UploadRef("uploads/a.png"), gotRef)
	assert.Equal(t, "Ada", gotCtx.Learner.Name)
	assert.Equal(t, "t1", gotCtx.TestID)
}

func TestManager(t *testing.T) {
	m := NewManager(Deps{})
	id, s := m.Open()
	require.NotEmpty(t, id)
	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	m.Close(id)
	_, err = m.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStateText(t *testing.T) {
	b, err := Submitted.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "submitted", string(b))

	var st State
	require.NoError(t, st.UnmarshalText([]byte("attempting")))
	assert.Equal(t, Attempting, st)
	assert.Error(t, st.UnmarshalText([]byte("done")))
}
