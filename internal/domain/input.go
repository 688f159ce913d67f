package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Flag is a JSON boolean that remembers whether a real boolean was supplied.
// Anything other than true or false decodes as unset instead of failing the body.
type Flag struct {
	Value bool
	Set   bool
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*f = Flag{Value: true, Set: true}
	case "false":
		*f = Flag{Value: false, Set: true}
	default:
		*f = Flag{}
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Timer accepts the timer setting as either a JSON string or number.
type Timer string

func (t *Timer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timer(s)
		return nil
	}
	if string(data) == "null" {
		*t = ""
		return nil
	}
	*t = Timer(data)
	return nil
}

// OptionInput is an option as submitted by a quiz author.
type OptionInput struct {
	Text      string `json:"text"`
	ImageURL  string `json:"imageUrl"`
	IsCorrect Flag   `json:"isCorrect"`
}

// QuestionInput is a question as submitted by a quiz author.
type QuestionInput struct {
	QuestionName string        `json:"questionName"`
	OptionType   string        `json:"optionType"`
	TimerOption  Timer         `json:"timerOption"`
	Options      []OptionInput `json:"options"`
}

// QuizInput is the body of a create request.
type QuizInput struct {
	QuizName  string          `json:"quizName"`
	QuizType  string          `json:"quizType"`
	Questions []QuestionInput `json:"questions"`
}

// ParseQuizType maps the accepted spellings onto QuizType. "QNA" is an alias of "Q&A".
// Unknown values pass through so the schema layer can report them.
func ParseQuizType(raw string) QuizType {
	switch strings.TrimSpace(raw) {
	case "Q&A", "QNA", "QnA":
		return QuizTypeQNA
	case "Poll":
		return QuizTypePoll
	default:
		return QuizType(strings.TrimSpace(raw))
	}
}

// BuildQuestions converts checked input into stored questions with zeroed counters.
func BuildQuestions(in []QuestionInput) []Question {
	questions := make([]Question, 0, len(in))
	for _, q := range in {
		options := make([]Option, 0, len(q.Options))
		for _, opt := range q.Options {
			o := Option{
				Text:     opt.Text,
				ImageURL: opt.ImageURL,
			}
			if opt.IsCorrect.Set {
				v := opt.IsCorrect.Value
				o.IsCorrect = &v
			}
			options = append(options, o)
		}
		questions = append(questions, Question{
			QuestionName: strings.TrimSpace(q.QuestionName),
			OptionType:   OptionType(q.OptionType),
			TimerOption:  strings.TrimSpace(string(q.TimerOption)),
			Options:      options,
		})
	}
	return questions
}

// Build converts checked input into a quiz owned by owner.
func (in QuizInput) Build(owner string) Quiz {
	return Quiz{
		QuizName:  strings.TrimSpace(in.QuizName),
		QuizType:  ParseQuizType(in.QuizType),
		Questions: BuildQuestions(in.Questions),
		Owner:     owner,
	}
}
