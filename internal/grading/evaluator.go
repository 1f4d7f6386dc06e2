package grading

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mind-engage/evalify/internal/exam"
	"github.com/mind-engage/evalify/internal/storage"
)

// EvalContext identifies what an upload belongs to.
type EvalContext struct {
	TestID   string
	TestName string
	Learner  exam.Identity
}

// Evaluator is the upload-evaluation collaborator: it turns an opaque
// upload reference into the subjective score.
type Evaluator interface {
	Evaluate(ctx context.Context, ref exam.UploadRef, ec EvalContext) (int, error)
}

type EvaluatorFunc func(ctx context.Context, ref exam.UploadRef, ec EvalContext) (int, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, ref exam.UploadRef, ec EvalContext) (int, error) {
	return f(ctx, ref, ec)
}

// Fixed awards the same subjective score to every attempt, with or without
// an upload. It stands in until a real grader is configured.
type Fixed int

// DefaultFixedScore matches the placeholder the dashboard has always shown.
const DefaultFixedScore Fixed = 14

func (f Fixed) Evaluate(context.Context, exam.UploadRef, EvalContext) (int, error) {
	return int(f), nil
}

type OCR interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}

// OCREvaluator reads an uploaded handwritten answer and scores it by the
// share of expected keywords found in the extracted text.
type OCREvaluator struct {
	ocr      OCR
	blobs    storage.BlobStore
	keywords func(EvalContext) []string
	max      int
	maxEdit  int
}

type OCROption func(*OCREvaluator)

// WithKeywords sets one keyword list for every test.
func WithKeywords(kw []string) OCROption {
	return func(o *OCREvaluator) { o.keywords = func(EvalContext) []string { return kw } }
}

// WithKeywordSource picks keywords per attempt.
func WithKeywordSource(f func(EvalContext) []string) OCROption {
	return func(o *OCREvaluator) { o.keywords = f }
}

// WithMaxEditDistance lets single-word keywords match OCR text with up to n edits.
func WithMaxEditDistance(n int) OCROption { return func(o *OCREvaluator) { o.maxEdit = n } }

func WithMaxScore(n int) OCROption { return func(o *OCREvaluator) { o.max = n } }

func NewOCREvaluator(ocr OCR, blobs storage.BlobStore, opts ...OCROption) *OCREvaluator {
	o := &OCREvaluator{
		ocr:      ocr,
		blobs:    blobs,
		keywords: func(EvalContext) []string { return nil },
		max:      exam.SubjectiveMax,
		maxEdit:  1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluate returns 0 when there is no upload.
func (o *OCREvaluator) Evaluate(ctx context.Context, ref exam.UploadRef, ec EvalContext) (int, error) {
	if ref == "" {
		return 0, nil
	}
	rc, err := o.blobs.Get(string(ref))
	if err != nil {
		return 0, fmt.Errorf("open upload %s: %w", ref, err)
	}
	defer rc.Close()

	text, err := o.ocr.Extract(ctx, rc)
	if err != nil {
		return 0, fmt.Errorf("ocr %s: %w", ref, err)
	}
	return keywordScore(text, o.keywords(ec), o.max, o.maxEdit), nil
}

// keywordScore scales the share of keywords present in text to max,
// rounding down.
func keywordScore(text string, required []string, max, maxEdit int) int {
	if len(required) == 0 || strings.TrimSpace(text) == "" {
		return 0
	}
	norm := normalize(text)
	words := strings.Fields(norm)
	found := 0
	for _, k := range required {
		nk := normalize(k)
		if nk == "" {
			continue
		}
		if strings.Contains(norm, nk) || (maxEdit > 0 && !strings.Contains(nk, " ") && nearWord(words, nk, maxEdit)) {
			found++
		}
	}
	return max * found / len(required)
}

func nearWord(words []string, target string, maxEdit int) bool {
	for _, w := range words {
		if levenshtein(w, target) <= maxEdit {
			return true
		}
	}
	return false
}
