package formats

import (
	"context"
	"errors"
	"io"
	"math"

	"github.com/tidwall/gjson"
)

// ProfileJSON is the feed shape written by the authoring dashboard: a JSON
// array of tests with questions under "mcqs".
const ProfileJSON = "evalify.v1"

func init() {
	Register(ProfileJSON, JSONDecoder{})
}

var ErrNotArray = errors.New("feed is not a JSON array")

type JSONDecoder struct{}

func (JSONDecoder) Decode(_ context.Context, r io.Reader) ([]RawTest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(data)
}

// DecodeJSON parses a feed document. Individual records of the wrong type
// are kept as empty records so positional ids stay stable.
func DecodeJSON(data []byte) ([]RawTest, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("feed is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, ErrNotArray
	}
	records := root.Array()
	out := make([]RawTest, 0, len(records))
	for _, rec := range records {
		out = append(out, decodeTest(rec))
	}
	return out, nil
}

func decodeTest(rec gjson.Result) RawTest {
	if !rec.IsObject() {
		return RawTest{}
	}
	t := RawTest{
		ID:       scalar(rec.Get("id")),
		Name:     scalar(rec.Get("name")),
		Duration: scalar(rec.Get("duration")),
	}
	qs := rec.Get("mcqs")
	if !qs.IsArray() {
		qs = rec.Get("questions")
	}
	if qs.IsArray() {
		for _, q := range qs.Array() {
			t.Questions = append(t.Questions, decodeQuestion(q))
		}
	}
	return t
}

func decodeQuestion(rec gjson.Result) RawQuestion {
	if !rec.IsObject() {
		return RawQuestion{}
	}
	q := RawQuestion{
		ID:       scalar(rec.Get("id")),
		Question: scalar(rec.Get("question")),
		Q:        scalar(rec.Get("q")),
	}
	if opts := rec.Get("options"); opts.IsArray() {
		for _, o := range opts.Array() {
			q.Options = append(q.Options, decodeOption(o))
		}
	}
	if ci := rec.Get("correctIndex"); ci.Type == gjson.Number {
		// an index beyond int32 cannot name an option and is not converted
		if f := ci.Float(); f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
			q.CorrectIndex = intPtr(int(f))
		}
	}
	if a := rec.Get("answer"); a.Type == gjson.String {
		q.Answer = strPtr(a.Str)
	}
	return q
}

func decodeOption(o gjson.Result) RawOption {
	switch {
	case o.Type == gjson.String:
		return TextOption(o.Str)
	case o.IsObject():
		return LabelOption(o.Get("label").String())
	case o.Type == gjson.Number:
		return TextOption(o.Raw)
	default:
		return LabelOption("")
	}
}

// scalar reads strings and numbers as text; null, missing and composite
// values count as absent.
func scalar(v gjson.Result) *string {
	switch v.Type {
	case gjson.String:
		return strPtr(v.Str)
	case gjson.Number:
		return strPtr(v.Raw)
	default:
		return nil
	}
}
