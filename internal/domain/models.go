package domain

import "time"

// QuizType selects between scored quizzes and polls.
type QuizType string

const (
	QuizTypeQNA  QuizType = "Q&A"
	QuizTypePoll QuizType = "Poll"
)

// OptionType decides which option fields are required.
type OptionType string

const (
	OptionTypeText         OptionType = "text"
	OptionTypeImage        OptionType = "image"
	OptionTypeTextAndImage OptionType = "text_and_image"
)

const (
	MinQuestions = 1
	MaxQuestions = 5
	MinOptions   = 2
	MaxOptions   = 4

	// TrendingMinViews is the exclusive view threshold for the dashboard.
	TrendingMinViews = 10
)

// User is an account. Password holds the bcrypt hash and is never serialized.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Option is a possible answer of a question.
type Option struct {
	Text          string `json:"text,omitempty" bson:"text,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	IsCorrect     *bool  `json:"isCorrect,omitempty" bson:"isCorrect,omitempty"`
	TotalAttempts int    `json:"totalAttempts" bson:"totalAttempts"`
}

// Correct reports whether the option is marked as the right answer.
func (o Option) Correct() bool {
	return o.IsCorrect != nil && *o.IsCorrect
}

// Question holds 2-4 options and its attempt counters.
type Question struct {
	QuestionName           string     `json:"questionName" bson:"questionName" validate:"required"`
	OptionType             OptionType `json:"optionType" bson:"optionType" validate:"required,oneof=text image text_and_image"`
	TimerOption            string     `json:"timerOption,omitempty" bson:"timerOption,omitempty" validate:"omitempty,oneof=off 5 10"`
	Options                []Option   `json:"options" bson:"options" validate:"min=2,max=4"`
	TotalAttempts          int        `json:"totalAttempts" bson:"totalAttempts"`
	TotalCorrectAttempts   int        `json:"totalCorrectAttempts" bson:"totalCorrectAttempts"`
	TotalIncorrectAttempts int        `json:"totalIncorrectAttempts" bson:"totalIncorrectAttempts"`
}

// CorrectIndex returns the first option marked correct, or -1.
func (q Question) CorrectIndex() int {
	for i, opt := range q.Options {
		if opt.Correct() {
			return i
		}
	}
	return -1
}

// Quiz is a collection of questions owned by a user.
type Quiz struct {
	ID        string     `json:"_id"`
	QuizName  string     `json:"quizName" validate:"required"`
	QuizType  QuizType   `json:"quizType" validate:"required,oneof=Q&A Poll"`
	Questions []Question `json:"questions" validate:"min=1,max=5,dive"`
	Owner     string     `json:"owner,omitempty"`
	Views     int        `json:"views"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// QuizView is the public projection returned by a quiz lookup.
type QuizView struct {
	ID             string     `json:"_id"`
	QuizName       string     `json:"quizName"`
	QuizType       QuizType   `json:"quizType"`
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"totalQuestions"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// View projects the quiz for public consumption.
func (q Quiz) View() QuizView {
	return QuizView{
		ID:             q.ID,
		QuizName:       q.QuizName,
		QuizType:       q.QuizType,
		Questions:      q.Questions,
		TotalQuestions: len(q.Questions),
		CreatedAt:      q.CreatedAt,
	}
}

// ResetCounters zeroes every attempt counter of the given questions in place.
func ResetCounters(questions []Question) {
	for i := range questions {
		questions[i].TotalAttempts = 0
		questions[i].TotalCorrectAttempts = 0
		questions[i].TotalIncorrectAttempts = 0
		for j := range questions[i].Options {
			questions[i].Options[j].TotalAttempts = 0
		}
	}
}

// CloneQuestions deep-copies questions so callers can mutate counters safely.
func CloneQuestions(questions []Question) []Question {
	if questions == nil {
		return nil
	}
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q
		out[i].Options = make([]Option, len(q.Options))
		for j, opt := range q.Options {
			if opt.IsCorrect != nil {
				v := *opt.IsCorrect
				opt.IsCorrect = &v
			}
			out[i].Options[j] = opt
		}
	}
	return out
}

// Clone deep-copies the quiz.
func (q Quiz) Clone() Quiz {
	q.Questions = CloneQuestions(q.Questions)
	return q
}
