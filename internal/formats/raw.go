package formats

import "encoding/json"

// RawTest is one upstream test record as an authoring tool produced it.
// Nil pointers mean the field was absent (or null) in the source.
type RawTest struct {
	ID        *string
	Name      *string
	Duration  *string
	Questions []RawQuestion
}

type RawQuestion struct {
	ID       *string
	Question *string // preferred prompt field
	Q        *string // legacy prompt field
	Options  []RawOption

	// CorrectIndex is set only when the source value was a number.
	CorrectIndex *int
	// Answer is set only when the source value was a string.
	Answer *string
}

// OptionKind discriminates the two option shapes authoring tools emit.
type OptionKind int

const (
	OptionText   OptionKind = iota // "Paris"
	OptionObject                   // {"label": "Paris"}
)

type RawOption struct {
	Kind OptionKind
	Text string // the string itself, or the object's label
}

func TextOption(s string) RawOption  { return RawOption{Kind: OptionText, Text: s} }
func LabelOption(s string) RawOption { return RawOption{Kind: OptionObject, Text: s} }

// MarshalJSON writes the option back in the shape it arrived in.
func (o RawOption) MarshalJSON() ([]byte, error) {
	if o.Kind == OptionObject {
		return json.Marshal(struct {
			Label string `json:"label"`
		}{o.Text})
	}
	return json.Marshal(o.Text)
}

// MarshalJSON emits the authoring feed shape so a feed can be written back
// to the durable slot and read by any consumer of that slot.
func (q RawQuestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           *string     `json:"id,omitempty"`
		Question     *string     `json:"question,omitempty"`
		Q            *string     `json:"q,omitempty"`
		Options      []RawOption `json:"options"`
		CorrectIndex *int        `json:"correctIndex,omitempty"`
		Answer       *string     `json:"answer,omitempty"`
	}{q.ID, q.Question, q.Q, nonNilOptions(q.Options), q.CorrectIndex, q.Answer})
}

func (t RawTest) MarshalJSON() ([]byte, error) {
	qs := t.Questions
	if qs == nil {
		qs = []RawQuestion{}
	}
	return json.Marshal(struct {
		ID       *string       `json:"id,omitempty"`
		Name     *string       `json:"name,omitempty"`
		Duration *string       `json:"duration,omitempty"`
		MCQs     []RawQuestion `json:"mcqs"`
	}{t.ID, t.Name, t.Duration, qs})
}

func nonNilOptions(o []RawOption) []RawOption {
	if o == nil {
		return []RawOption{}
	}
	return o
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
