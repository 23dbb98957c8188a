// Package memstore keeps users, quizzes and submissions in process memory with
// the same ordering and filtering rules as the postgres repositories. Lookups of
// unknown ids return pgx.ErrNoRows so callers treat both stores alike.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quizzer-backend/internal/models"
	"quizzer-backend/internal/repository"
)

type Store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]models.User
	usernames   map[string]uuid.UUID
	quizzes     map[uuid.UUID]models.Quiz
	submissions []models.Submission
	now         func() time.Time
	last        time.Time

	Users       *UserStore
	Quizzes     *QuizStore
	Submissions *SubmissionStore
}

func New() *Store {
	s := &Store{
		users:     make(map[uuid.UUID]models.User),
		usernames: make(map[string]uuid.UUID),
		quizzes:   make(map[uuid.UUID]models.Quiz),
		now:       time.Now,
	}
	s.Users = &UserStore{s: s}
	s.Quizzes = &QuizStore{s: s}
	s.Submissions = &SubmissionStore{s: s}
	return s
}

// SetClock replaces the time source used for created_at style columns.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// stamp returns a strictly increasing UTC timestamp. Caller holds the lock.
func (s *Store) stamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

type UserStore struct{ s *Store }

func (u *UserStore) Create(_ context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, exists := u.s.usernames[user.Username]; exists {
		return repository.ErrDuplicate
	}
	user.ID = uuid.New()
	user.CreatedAt = u.s.stamp()
	u.s.users[user.ID] = *user
	u.s.usernames[user.Username] = user.ID
	return nil
}

func (u *UserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	id, ok := u.s.usernames[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user := u.s.users[id]
	return &user, nil
}

func (u *UserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (u *UserStore) UpdateEmail(_ context.Context, userID uuid.UUID, email string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[userID]
	if !ok {
		return nil
	}
	user.Email = &email
	u.s.users[userID] = user
	return nil
}

type QuizStore struct{ s *Store }

func (q *QuizStore) Create(_ context.Context, quiz *models.Quiz) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	quiz.ID = uuid.New()
	quiz.GeneratedAt = q.s.stamp()
	stored := *quiz
	stored.Questions = append([]models.Question(nil), quiz.Questions...)
	q.s.quizzes[quiz.ID] = stored
	return nil
}

func (q *QuizStore) GetByID(_ context.Context, id uuid.UUID) (*models.Quiz, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	quiz, ok := q.s.quizzes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	quiz.Questions = append([]models.Question(nil), quiz.Questions...)
	return &quiz, nil
}

type SubmissionStore struct{ s *Store }

func (ss *SubmissionStore) Create(_ context.Context, sub *models.Submission) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	sub.ID = uuid.New()
	sub.CompletedAt = ss.s.stamp()
	stored := *sub
	stored.UserAnswers = append(json.RawMessage(nil), sub.UserAnswers...)
	ss.s.submissions = append(ss.s.submissions, stored)
	return nil
}

// newestFirst returns copies of the submissions matching keep, completed_at desc.
func (ss *SubmissionStore) newestFirst(keep func(models.Submission) bool) []models.Submission {
	var out []models.Submission
	for _, sub := range ss.s.submissions {
		if keep(sub) {
			out = append(out, sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out
}

func (ss *SubmissionStore) RecentScores(_ context.Context, userID uuid.UUID, limit int) ([]float64, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	subs := ss.newestFirst(func(sub models.Submission) bool { return sub.UserID == userID })
	scores := []float64{}
	for i := 0; i < len(subs) && i < limit; i++ {
		scores = append(scores, subs[i].FinalScore)
	}
	return scores, nil
}

func (ss *SubmissionStore) ListByQuizAndUser(_ context.Context, quizID, userID uuid.UUID) ([]*models.Submission, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	subs := ss.newestFirst(func(sub models.Submission) bool {
		return sub.QuizID == quizID && sub.UserID == userID
	})
	out := make([]*models.Submission, len(subs))
	for i := range subs {
		out[i] = &subs[i]
	}
	return out, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (ss *SubmissionStore) History(_ context.Context, userID uuid.UUID, f models.HistoryFilter) ([]*models.HistoryEntry, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	subs := ss.newestFirst(func(sub models.Submission) bool {
		if sub.UserID != userID {
			return false
		}
		quiz, ok := ss.s.quizzes[sub.QuizID]
		if !ok {
			return false
		}
		if f.Grade != "" && !containsFold(quiz.GradeLevel, f.Grade) {
			return false
		}
		if f.Subject != "" && !containsFold(quiz.Subject, f.Subject) {
			return false
		}
		if f.MinScore != nil && sub.FinalScore < *f.MinScore {
			return false
		}
		if f.From != nil && sub.CompletedAt.Before(*f.From) {
			return false
		}
		if f.To != nil && sub.CompletedAt.After(*f.To) {
			return false
		}
		return true
	})

	entries := make([]*models.HistoryEntry, 0, len(subs))
	for _, sub := range subs {
		quiz := ss.s.quizzes[sub.QuizID]
		entries = append(entries, &models.HistoryEntry{
			SubmissionID:  sub.ID,
			QuizID:        sub.QuizID,
			GradeLevel:    quiz.GradeLevel,
			Subject:       quiz.Subject,
			FinalScore:    sub.FinalScore,
			MaxScore:      sub.MaxScore,
			AISuggestions: sub.AISuggestions,
			CompletedAt:   sub.CompletedAt,
		})
	}
	return entries, nil
}

func (ss *SubmissionStore) Leaderboard(_ context.Context, grade, subject string, limit int) ([]*models.LeaderboardEntry, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	var subs []models.Submission
	for _, sub := range ss.s.submissions {
		quiz, ok := ss.s.quizzes[sub.QuizID]
		if !ok || quiz.GradeLevel != grade || quiz.Subject != subject {
			continue
		}
		if _, ok := ss.s.users[sub.UserID]; !ok {
			continue
		}
		subs = append(subs, sub)
	}
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].FinalScore != subs[j].FinalScore {
			return subs[i].FinalScore > subs[j].FinalScore
		}
		return subs[i].CompletedAt.Before(subs[j].CompletedAt)
	})

	entries := []*models.LeaderboardEntry{}
	for i := 0; i < len(subs) && i < limit; i++ {
		entries = append(entries, &models.LeaderboardEntry{
			Rank:        i + 1,
			Username:    ss.s.users[subs[i].UserID].Username,
			FinalScore:  subs[i].FinalScore,
			CompletedAt: subs[i].CompletedAt,
			GradeLevel:  grade,
			Subject:     subject,
		})
	}
	return entries, nil
}
