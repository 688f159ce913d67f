package memory

import (
	"context"
	"testing"
	"time"

	"quizzie-service/internal/domain"
)

func TestStoreOwnershipHidesForeignQuizzes(t *testing.T) {
	store := NewStore()
	quiz := seedQuiz(t, store)
	ctx := context.Background()

	if _, err := store.FindOwnedQuiz(ctx, quiz.ID, "someone-else"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
	if err := store.DeleteQuiz(ctx, quiz.ID, "someone-else"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected not found on foreign delete, got %v", err)
	}
	if _, err := store.QuestionAnalysis(ctx, quiz.ID, "someone-else"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected not found on foreign analysis, got %v", err)
	}
	if err := store.DeleteQuiz(ctx, quiz.ID, "owner-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.LoadQuiz(ctx, quiz.ID); err != domain.ErrQuizNotFound {
		t.Fatalf("expected deleted quiz to be gone, got %v", err)
	}
}

func TestStoreApplyTallyChecksRevision(t *testing.T) {
	store := NewStore()
	quiz := seedQuiz(t, store)
	ctx := context.Background()
	tally := domain.TallyQNA(quiz, []*int{intp(1)})

	if err := store.ApplyTally(ctx, quiz.ID, quiz.UpdatedAt.Add(time.Second), tally); err != domain.ErrStaleQuiz {
		t.Fatalf("expected stale error, got %v", err)
	}
	if err := store.ApplyTally(ctx, quiz.ID, quiz.UpdatedAt, tally); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, _ := store.LoadQuiz(ctx, quiz.ID)
	if got.Questions[0].TotalCorrectAttempts != 1 {
		t.Fatalf("expected correct attempt recorded, got %+v", got.Questions[0])
	}
}

func TestStoreReplaceQuestionsResetsCounters(t *testing.T) {
	store := NewStore()
	quiz := seedQuiz(t, store)
	ctx := context.Background()
	_ = store.ApplyTally(ctx, quiz.ID, quiz.UpdatedAt, domain.TallyQNA(quiz, []*int{intp(1)}))

	loaded, _ := store.LoadQuiz(ctx, quiz.ID)
	updated, err := store.ReplaceQuestions(ctx, quiz.ID, "owner-1", loaded.Questions, time.Unix(200, 0))
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if updated.Questions[0].TotalAttempts != 0 || updated.Questions[0].TotalCorrectAttempts != 0 {
		t.Fatalf("expected counters reset, got %+v", updated.Questions[0])
	}
	if !updated.UpdatedAt.Equal(time.Unix(200, 0)) {
		t.Fatalf("expected new revision, got %v", updated.UpdatedAt)
	}
}

func TestStoreUsersUniqueEmail(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	alice, err := store.CreateUser(ctx, domain.User{Name: "alice", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateUser(ctx, domain.User{Name: "other", Email: "a@example.com"}); err != domain.ErrEmailTaken {
		t.Fatalf("expected email taken, got %v", err)
	}
	bob, _ := store.CreateUser(ctx, domain.User{Name: "bob", Email: "b@example.com"})
	bob.Email = alice.Email
	if _, err := store.UpdateUser(ctx, bob); err != domain.ErrEmailTaken {
		t.Fatalf("expected email taken on update, got %v", err)
	}
}

func TestStoreListByOwnerOrdersByCreation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for _, ts := range []int64{300, 100, 200} {
		_, _ = store.CreateQuiz(ctx, domain.Quiz{QuizName: "q", Owner: "o", CreatedAt: time.Unix(ts, 0)})
	}
	_, _ = store.CreateQuiz(ctx, domain.Quiz{QuizName: "foreign", Owner: "x", CreatedAt: time.Unix(50, 0)})

	list, err := store.ListByOwner(ctx, "o")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].CreatedAt.Unix() != 100 || list[2].CreatedAt.Unix() != 300 {
		t.Fatalf("unexpected order %+v", list)
	}
}

func intp(v int) *int { return &v }
