package grading

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/evalify/internal/exam"
	"github.com/mind-engage/evalify/internal/storage"
)

func twoQuestionTest() exam.Test {
	opts := []exam.Option{{Key: "opt0", Label: "A"}, {Key: "opt1", Label: "B"}}
	return exam.Test{
		ID:       "t1",
		Name:     "Basics",
		Duration: "30m",
		Questions: []exam.Question{
			{ID: "q1", Prompt: "one", Options: opts, CorrectKey: "opt0"},
			{ID: "q2", Prompt: "two", Options: opts, CorrectKey: "opt1"},
		},
	}
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedEngine() *Engine {
	return NewEngine(
		WithClock(func() time.Time { return fixedNow }),
		WithIDFunc(func(testID string, at time.Time) string { return testID + "-fixed" }),
	)
}

func TestMCQScore(t *testing.T) {
	tst := twoQuestionTest()
	cases := []struct {
		name    string
		answers exam.Answers
		want    int
	}{
		{"one right one wrong", exam.Answers{"q1": "opt0", "q2": "opt0"}, 1},
		{"all right", exam.Answers{"q1": "opt0", "q2": "opt1"}, 2},
		{"none answered", nil, 0},
		{"unknown ids ignored", exam.Answers{"q9": "opt0", "q2": "opt1"}, 1},
		{"unknown key", exam.Answers{"q1": "optX"}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, MCQScore(tst, c.answers))
		})
	}
}

func TestScore_Totals(t *testing.T) {
	r, err := fixedEngine().Score(twoQuestionTest(),
		exam.Identity{Name: " Ada ", Email: "ada@x.com"},
		exam.Answers{"q1": "opt0", "q2": "opt0"}, 14)
	require.NoError(t, err)

	assert.Equal(t, "t1-fixed", r.ID)
	assert.Equal(t, "t1", r.TestID)
	assert.Equal(t, "Basics", r.TestName)
	assert.Equal(t, "Ada", r.LearnerName)
	assert.Equal(t, "ada@x.com", r.LearnerEmail)
	assert.Equal(t, fixedNow, r.CreatedAt.Time)
	assert.Equal(t, 1, r.MCQScore)
	assert.Equal(t, 14, r.SubjectiveScore)
	assert.Equal(t, 15, r.Total)
}

func TestScore_SubjectiveBounds(t *testing.T) {
	who := exam.Identity{Name: "Ada", Email: "ada@x.com"}
	r, err := fixedEngine().Score(twoQuestionTest(), who, nil, 35)
	require.NoError(t, err)
	assert.Equal(t, 35, r.SubjectiveScore, "values above the display max pass through")

	r, err = fixedEngine().Score(twoQuestionTest(), who, nil, -3)
	require.NoError(t, err)
	assert.Equal(t, 0, r.SubjectiveScore)
	assert.Equal(t, 0, r.Total)
}

func TestScore_RefusesMissingIdentity(t *testing.T) {
	for _, who := range []exam.Identity{
		{Name: "", Email: "ada@x.com"},
		{Name: "Ada", Email: "  "},
		{},
	} {
		r, err := fixedEngine().Score(twoQuestionTest(), who, exam.Answers{"q1": "opt0"}, 14)
		assert.ErrorIs(t, err, ErrInvalidSubmission)
		assert.Equal(t, exam.Result{}, r)
	}
}

func TestScore_Deterministic(t *testing.T) {
	e := NewEngine()
	tst := twoQuestionTest()
	ans := exam.Answers{"q1": "opt0", "q2": "opt1"}
	who := exam.Identity{Name: "Ada", Email: "ada@x.com"}
	first, err := e.Score(tst, who, ans, 0)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		r, err := e.Score(tst, who, ans, 0)
		require.NoError(t, err)
		assert.Equal(t, first.MCQScore, r.MCQScore)
	}
}

func TestResultID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		id := ResultID("t1", fixedNow)
		require.False(t, seen[id], id)
		seen[id] = true
		assert.True(t, strings.HasPrefix(id, "t1-1714564800000-"), id)
		assert.Len(t, id, len("t1-1714564800000-")+8)
	}
}

type fakeOCR struct {
	text string
	err  error
	got  string
}

func (f *fakeOCR) Extract(_ context.Context, r io.Reader) (string, error) {
	b, _ := io.ReadAll(r)
	f.got = string(b)
	return f.text, f.err
}

func TestFixed(t *testing.T) {
	n, err := DefaultFixedScore.Evaluate(context.Background(), "", EvalContext{})
	require.NoError(t, err)
	assert.Equal(t, 14, n)
}

func TestOCREvaluator(t *testing.T) {
	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	ref, err := blobs.Put("uploads/a.png", strings.NewReader("pixels"))
	require.NoError(t, err)
	ctx := context.Background()

	ocr := &fakeOCR{text: "Photosynthesis needs LIGHT, water and carbon dioxde."}
	ev := NewOCREvaluator(ocr, blobs, WithKeywords([]string{"light", "water", "carbon dioxide", "chlorophyll"}))

	n, err := ev.Evaluate(ctx, exam.UploadRef(ref), EvalContext{TestID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "pixels", ocr.got)
	// light, water match exactly; "carbon dioxide" is multi-word so no fuzzy match
	assert.Equal(t, 10, n)

	ev = NewOCREvaluator(ocr, blobs, WithKeywords([]string{"dioxide", "chlorophyll"}))
	n, err = ev.Evaluate(ctx, exam.UploadRef(ref), EvalContext{})
	require.NoError(t, err)
	assert.Equal(t, 10, n, "one edit away still counts")

	n, err = ev.Evaluate(ctx, "", EvalContext{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = ev.Evaluate(ctx, "uploads/missing.png", EvalContext{})
	assert.Error(t, err)

	boom := errors.New("boom")
	ev = NewOCREvaluator(&fakeOCR{err: boom}, blobs, WithKeywords([]string{"x"}))
	_, err = ev.Evaluate(ctx, exam.UploadRef(ref), EvalContext{})
	assert.ErrorIs(t, err, boom)
}

func TestKeywordScore_NoKeywords(t *testing.T) {
	assert.Equal(t, 0, keywordScore("anything", nil, 20, 1))
	assert.Equal(t, 0, keywordScore("   ", []string{"a"}, 20, 1))
	assert.Equal(t, 6, keywordScore("alpha beta", []string{"alpha", "gamma", "delta"}, 20, 0), "rounds down")
}

func TestNormalizeAndLevenshtein(t *testing.T) {
	assert.Equal(t, "hello world", normalize("  Hello,   WORLD! "))
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 1, levenshtein("dioxde", "dioxide"))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}
