package pipeline

import "fmt"

// Field names one slot of State.
type Field int

const (
	FieldTopic Field = iota
	FieldResearch
	FieldDraft
	FieldReview
	FieldResult
)

var fieldNames = [...]string{"topic", "research", "draft", "review", "result"}

func (f Field) String() string {
	if f.valid() {
		return fieldNames[f]
	}
	return fmt.Sprintf("field(%d)", int(f))
}

func (f Field) valid() bool {
	return f >= FieldTopic && f <= FieldResult
}

// State is the record threaded through every stage of one run. It is created
// per run and owned by that run only.
type State struct {
	Topic    string   `json:"topic"`
	Research string   `json:"research"`
	Draft    string   `json:"draft"`
	Review   string   `json:"review"`
	Result   string   `json:"result"`
	Logs     []string `json:"logs"`
}

func NewState(topic string) *State {
	return &State{Topic: topic}
}

func (s *State) Get(f Field) string {
	switch f {
	case FieldTopic:
		return s.Topic
	case FieldResearch:
		return s.Research
	case FieldDraft:
		return s.Draft
	case FieldReview:
		return s.Review
	case FieldResult:
		return s.Result
	}
	return ""
}

// Set stores v in f. Unknown fields are ignored.
func (s *State) Set(f Field, v string) {
	switch f {
	case FieldTopic:
		s.Topic = v
	case FieldResearch:
		s.Research = v
	case FieldDraft:
		s.Draft = v
	case FieldReview:
		s.Review = v
	case FieldResult:
		s.Result = v
	}
}
