package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizzer-backend/internal/config"
	"quizzer-backend/internal/llm"
	"quizzer-backend/internal/models"
	"quizzer-backend/internal/repository"
	"quizzer-backend/internal/repository/memstore"
)

func fastRetry() llm.RetryPolicy {
	return llm.RetryPolicy{MaxAttempts: 3, InitialWait: time.Millisecond, Multiplier: 1}
}

func newAI(mock *llm.MockProvider) *llm.Client {
	return llm.NewClient(mock, zap.NewNop(), llm.ClientOptions{Retry: fastRetry()})
}

func quizJSON(t *testing.T, qs ...models.Question) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"questions": qs})
	require.NoError(t, err)
	return string(raw)
}

func sampleQuestions() []models.Question {
	return []models.Question{
		{QuestionID: 1, QuestionText: "2+2?", Type: models.QuestionMultipleChoice, Options: []string{"3", "4"}, CorrectAnswer: "4", Difficulty: "easy"},
		{QuestionID: 2, QuestionText: "The sun is a star.", Type: models.QuestionTrueFalse, CorrectAnswer: "True", Difficulty: "easy"},
		{QuestionID: 3, QuestionText: "Capital of France?", Type: models.QuestionShortAnswer, CorrectAnswer: "Paris", Difficulty: "medium"},
	}
}

type env struct {
	store    *memstore.Store
	mock     *llm.MockProvider
	settings config.QuizSettings
	cache    *fakeCache
	queue    *fakeQueue
}

func newEnv() *env {
	return &env{
		store:    memstore.New(),
		mock:     llm.NewMockProvider(),
		settings: config.DefaultQuizSettings(),
		cache:    newFakeCache(),
		queue:    &fakeQueue{},
	}
}

func (e *env) quizService() *QuizService {
	return NewQuizService(e.store.Quizzes, NewDifficultyEstimator(e.store.Submissions, e.settings), newAI(e.mock), e.settings, nil, zap.NewNop())
}

func (e *env) submissionService() *SubmissionService {
	notifier := NewResultNotifier(e.store.Users, e.queue, true, zap.NewNop())
	return NewSubmissionService(e.store.Quizzes, e.store.Submissions, NewTipService(newAI(e.mock)), e.cache, notifier, nil, zap.NewNop())
}

func (e *env) queryService() *QueryService {
	return NewQueryService(e.store.Quizzes, e.store.Submissions, e.cache, e.settings, nil, zap.NewNop())
}

func (e *env) seedQuiz(t *testing.T, user *models.User, grade, subject string) *models.Quiz {
	t.Helper()
	q := &models.Quiz{UserID: user.ID, GradeLevel: grade, Subject: subject, Questions: sampleQuestions(), DifficultyAdjustment: "medium"}
	require.NoError(t, e.store.Quizzes.Create(context.Background(), q))
	return q
}

func (e *env) seedUser(t *testing.T, name string, email string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "x"}
	if email != "" {
		u.Email = &email
	}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	return u
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]*models.LeaderboardEntry
	versions    map[string]int64
	invalidated []string
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]*models.LeaderboardEntry), versions: make(map[string]int64)}
}

func (c *fakeCache) Version(_ context.Context, grade, subject string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[grade+"|"+subject], nil
}

func (c *fakeCache) Get(_ context.Context, grade, subject string) ([]*models.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	entries, ok := c.entries[grade+"|"+subject]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return entries, nil
}

func (c *fakeCache) Set(_ context.Context, grade, subject string, version int64, entries []*models.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[grade+"|"+subject] != version {
		return nil
	}
	c.entries[grade+"|"+subject] = entries
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, grade, subject string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, grade+"|"+subject)
	c.versions[grade+"|"+subject]++
	c.invalidated = append(c.invalidated, grade+"|"+subject)
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []*models.NotificationJob
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job *models.NotificationJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newSubmission(quizID, userID uuid.UUID, score float64) *models.Submission {
	return &models.Submission{QuizID: quizID, UserID: userID, FinalScore: score, MaxScore: 3, UserAnswers: json.RawMessage(`[]`)}
}
