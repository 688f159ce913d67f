package http

import (
	"net/http"

	"quizzie-service/internal/app"
	"quizzie-service/internal/domain"

	"github.com/go-chi/chi/v5"
)

type updateQuizRequest struct {
	Questions []domain.QuestionInput `json:"questions"`
}

// attemptRequest holds one chosen option index per question; null skips a question.
type attemptRequest struct {
	Answers []*int `json:"answers"`
}

type QuizHandler struct {
	quizzes *app.QuizService
}

func NewQuizHandler(quizzes *app.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.QuizInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.quizzes.Create(r.Context(), identityFrom(r.Context()).ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, quiz, "Quiz created successfully")
}

func (h *QuizHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.quizzes.Trending(r.Context(), identityFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, summary, "All trending quizzes")
}

func (h *QuizHandler) History(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.History(r.Context(), identityFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, quizzes, "all quizzes")
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.quizzes.Delete(r.Context(), chi.URLParam(r, "quizID"), identityFrom(r.Context()).ID); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", "quiz deleted successfully")
}

func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in updateQuizRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.quizzes.Update(r.Context(), chi.URLParam(r, "quizID"), identityFrom(r.Context()).ID, in.Questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, quiz, "Quiz updated successfully")
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.quizzes.Get(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, view, "quiz fetch successfully")
}

func (h *QuizHandler) AttemptQNA(w http.ResponseWriter, r *http.Request) {
	var in attemptRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	score, err := h.quizzes.RecordQNA(r.Context(), chi.URLParam(r, "quizID"), in.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, score, "Congrats Quiz is completed")
}

func (h *QuizHandler) AttemptPoll(w http.ResponseWriter, r *http.Request) {
	var in attemptRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := h.quizzes.RecordPoll(r.Context(), chi.URLParam(r, "quizID"), in.Answers); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", "Thank you for participating in the Poll")
}

func (h *QuizHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.quizzes.Analysis(r.Context(), chi.URLParam(r, "quizID"), identityFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, analysis, "Question analysis retrieved successfully")
}
