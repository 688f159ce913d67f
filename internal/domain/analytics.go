package domain

import (
	"sort"
	"time"
)

// TrendingQuiz is one entry of the owner dashboard.
type TrendingQuiz struct {
	ID        string     `json:"_id" bson:"_id"`
	QuizName  string     `json:"quizName" bson:"quizName"`
	QuizType  QuizType   `json:"quizType" bson:"quizType"`
	Questions []Question `json:"questions" bson:"questions"`
	Views     int        `json:"views" bson:"views"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
}

// TrendingSummary aggregates the owner's quizzes above the view threshold.
type TrendingSummary struct {
	TotalQuizzes    int            `json:"totalQuizzes"`
	TotalQuestions  int            `json:"totalQuestions"`
	TotalViews      int            `json:"totalViews"`
	TrendingQuizzes []TrendingQuiz `json:"trendingQuizzes"`
}

// OptionAnalysis exposes only the attempt count of an option.
type OptionAnalysis struct {
	TotalAttempts int `json:"totalAttempts" bson:"totalAttempts"`
}

// QuestionAnalysis is the per-question attempt breakdown.
type QuestionAnalysis struct {
	QuestionName           string           `json:"questionName" bson:"questionName"`
	TotalAttempts          int              `json:"totalAttempts" bson:"totalAttempts"`
	TotalCorrectAttempts   int              `json:"totalCorrectAttempts" bson:"totalCorrectAttempts"`
	TotalIncorrectAttempts int              `json:"totalIncorrectAttempts" bson:"totalIncorrectAttempts"`
	Options                []OptionAnalysis `json:"options" bson:"options"`
}

// QuizAnalysis is the owner-only analytics view of one quiz.
type QuizAnalysis struct {
	ID        string             `json:"_id"`
	QuizName  string             `json:"quizName"`
	CreatedAt time.Time          `json:"createdAt"`
	Views     int                `json:"views"`
	Questions []QuestionAnalysis `json:"questions"`
}

// SelectTrending keeps quizzes with more than minViews views, most viewed first.
func SelectTrending(quizzes []Quiz, minViews int) []Quiz {
	out := make([]Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		if q.Views > minViews {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Views > out[j].Views
	})
	return out
}

// SummarizeTrending folds already selected and ordered quizzes into a summary.
func SummarizeTrending(quizzes []Quiz) TrendingSummary {
	summary := TrendingSummary{TrendingQuizzes: make([]TrendingQuiz, 0, len(quizzes))}
	for _, q := range quizzes {
		summary.TotalQuizzes++
		summary.TotalQuestions += len(q.Questions)
		summary.TotalViews += q.Views
		summary.TrendingQuizzes = append(summary.TrendingQuizzes, TrendingQuiz{
			ID:        q.ID,
			QuizName:  q.QuizName,
			QuizType:  q.QuizType,
			Questions: q.Questions,
			Views:     q.Views,
			CreatedAt: q.CreatedAt,
		})
	}
	return summary
}

// Analyze projects the attempt counters of quiz.
func Analyze(quiz Quiz) QuizAnalysis {
	a := QuizAnalysis{
		ID:        quiz.ID,
		QuizName:  quiz.QuizName,
		CreatedAt: quiz.CreatedAt,
		Views:     quiz.Views,
		Questions: make([]QuestionAnalysis, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		qa := QuestionAnalysis{
			QuestionName:           q.QuestionName,
			TotalAttempts:          q.TotalAttempts,
			TotalCorrectAttempts:   q.TotalCorrectAttempts,
			TotalIncorrectAttempts: q.TotalIncorrectAttempts,
			Options:                make([]OptionAnalysis, 0, len(q.Options)),
		}
		for _, opt := range q.Options {
			qa.Options = append(qa.Options, OptionAnalysis{TotalAttempts: opt.TotalAttempts})
		}
		a.Questions = append(a.Questions, qa)
	}
	return a
}
