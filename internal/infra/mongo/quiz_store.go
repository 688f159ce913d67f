package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizzie-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type quizDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	QuizName  string             `bson:"quizName"`
	QuizType  string             `bson:"quizType"`
	Questions []domain.Question  `bson:"questions"`
	Owner     primitive.ObjectID `bson:"owner"`
	Views     int                `bson:"views"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d quizDoc) toDomain() domain.Quiz {
	questions := d.Questions
	if questions == nil {
		questions = []domain.Question{}
	}
	return domain.Quiz{
		ID:        d.ID.Hex(),
		QuizName:  d.QuizName,
		QuizType:  domain.QuizType(d.QuizType),
		Questions: questions,
		Owner:     d.Owner.Hex(),
		Views:     d.Views,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// QuizStore keeps quizzes as documents with embedded questions.
type QuizStore struct {
	coll *mongo.Collection
}

func NewQuizStore(db *mongo.Database) *QuizStore {
	return &QuizStore{coll: db.Collection(quizzesCollection)}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	owner, err := primitive.ObjectIDFromHex(quiz.Owner)
	if err != nil {
		return domain.Quiz{}, domain.ErrInvalidSession
	}
	doc := quizDoc{
		ID:        primitive.NewObjectID(),
		QuizName:  quiz.QuizName,
		QuizType:  string(quiz.QuizType),
		Questions: domain.CloneQuestions(quiz.Questions),
		Owner:     owner,
		Views:     quiz.Views,
		CreatedAt: quiz.CreatedAt,
		UpdatedAt: quiz.UpdatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	id, err := primitive.ObjectIDFromHex(quizID)
	if err != nil {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *QuizStore) FindOwnedQuiz(ctx context.Context, quizID, ownerID string) (domain.Quiz, error) {
	filter, ok := ownedFilter(quizID, ownerID)
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.findOne(ctx, filter)
}

func (s *QuizStore) ReplaceQuestions(ctx context.Context, quizID, ownerID string, questions []domain.Question, updatedAt time.Time) (domain.Quiz, error) {
	filter, ok := ownedFilter(quizID, ownerID)
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	questions = domain.CloneQuestions(questions)
	domain.ResetCounters(questions)
	update := bson.M{"$set": bson.M{"questions": questions, "updatedAt": updatedAt}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc quizDoc
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("replace questions: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID, ownerID string) error {
	filter, ok := ownedFilter(quizID, ownerID)
	if !ok {
		return domain.ErrQuizNotFound
	}
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) IncrementViews(ctx context.Context, quizID string) error {
	id, err := primitive.ObjectIDFromHex(quizID)
	if err != nil {
		return domain.ErrQuizNotFound
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// ApplyTally issues a single $inc guarded by the revision, so concurrent
// submissions never overwrite each other.
func (s *QuizStore) ApplyTally(ctx context.Context, quizID string, revision time.Time, tally domain.Tally) error {
	id, err := primitive.ObjectIDFromHex(quizID)
	if err != nil {
		return domain.ErrQuizNotFound
	}
	inc := incrementsFor(tally)
	if len(inc) == 0 {
		return nil
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id, "updatedAt": revision}, bson.M{"$inc": inc})
	if err != nil {
		return fmt.Errorf("apply tally: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("check quiz: %w", err)
	}
	if n == 0 {
		return domain.ErrQuizNotFound
	}
	return domain.ErrStaleQuiz
}

func incrementsFor(tally domain.Tally) bson.M {
	inc := bson.M{}
	add := func(path string, n int) {
		if n != 0 {
			inc[path] = n
		}
	}
	for i, qt := range tally.Questions {
		prefix := fmt.Sprintf("questions.%d.", i)
		add(prefix+"totalAttempts", qt.Attempts)
		add(prefix+"totalCorrectAttempts", qt.Correct)
		add(prefix+"totalIncorrectAttempts", qt.Incorrect)
		for j, n := range qt.OptionAttempts {
			add(fmt.Sprintf("%soptions.%d.totalAttempts", prefix, j), n)
		}
	}
	return inc
}

func (s *QuizStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []domain.Quiz{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return decodeAll(ctx, cur)
}

// Trending filters and orders in the database, then folds the totals.
func (s *QuizStore) Trending(ctx context.Context, ownerID string, minViews int) (domain.TrendingSummary, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return domain.SummarizeTrending(nil), nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"owner": owner, "views": bson.M{"$gt": minViews}}}},
		{{Key: "$sort", Value: bson.D{{Key: "views", Value: -1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.TrendingSummary{}, fmt.Errorf("aggregate trending: %w", err)
	}
	quizzes, err := decodeAll(ctx, cur)
	if err != nil {
		return domain.TrendingSummary{}, err
	}
	return domain.SummarizeTrending(quizzes), nil
}

func (s *QuizStore) QuestionAnalysis(ctx context.Context, quizID, ownerID string) (domain.QuizAnalysis, error) {
	filter, ok := ownedFilter(quizID, ownerID)
	if !ok {
		return domain.QuizAnalysis{}, domain.ErrQuizNotFound
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$project", Value: bson.M{
			"quizName":                         1,
			"views":                            1,
			"createdAt":                        1,
			"updatedAt":                        1,
			"owner":                            1,
			"questions.questionName":           1,
			"questions.totalAttempts":          1,
			"questions.totalCorrectAttempts":   1,
			"questions.totalIncorrectAttempts": 1,
			"questions.options.totalAttempts":  1,
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.QuizAnalysis{}, fmt.Errorf("aggregate analysis: %w", err)
	}
	quizzes, err := decodeAll(ctx, cur)
	if err != nil {
		return domain.QuizAnalysis{}, err
	}
	if len(quizzes) == 0 {
		return domain.QuizAnalysis{}, domain.ErrQuizNotFound
	}
	return domain.Analyze(quizzes[0]), nil
}

func (s *QuizStore) findOne(ctx context.Context, filter bson.M) (domain.Quiz, error) {
	var doc quizDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("find quiz: %w", err)
	}
	return doc.toDomain(), nil
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]domain.Quiz, error) {
	defer cur.Close(ctx)
	var docs []quizDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func ownedFilter(quizID, ownerID string) (bson.M, bool) {
	id, err := primitive.ObjectIDFromHex(quizID)
	if err != nil {
		return nil, false
	}
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": id, "owner": owner}, true
}
