package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizzer-backend/internal/config"
	"quizzer-backend/internal/models"
	"quizzer-backend/internal/observability"
	"quizzer-backend/internal/repository"
)

// HistoryQuery is the raw query string form of the history filters.
type HistoryQuery struct {
	Grade   string
	Subject string
	Marks   string
	From    string
	To      string
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999999999, t.Location())
}

// ParseHistoryQuery validates dates and ignores a non-numeric marks value.
// from is used as given; to is moved to the end of its day.
func ParseHistoryQuery(q HistoryQuery) (models.HistoryFilter, error) {
	f := models.HistoryFilter{
		Grade:   strings.TrimSpace(q.Grade),
		Subject: strings.TrimSpace(q.Subject),
	}

	if marks := strings.TrimSpace(q.Marks); marks != "" {
		if v, err := strconv.ParseFloat(marks, 64); err == nil {
			f.MinScore = &v
		}
	}

	fields := make(map[string]string)
	if raw := strings.TrimSpace(q.From); raw != "" {
		if t, ok := parseDate(raw); ok {
			from := t
			f.From = &from
		} else {
			fields["from"] = "Invalid date, expected YYYY-MM-DD"
		}
	}
	if raw := strings.TrimSpace(q.To); raw != "" {
		if t, ok := parseDate(raw); ok {
			to := endOfDay(t)
			f.To = &to
		} else {
			fields["to"] = "Invalid date, expected YYYY-MM-DD"
		}
	}
	if len(fields) > 0 {
		return models.HistoryFilter{}, &ValidationError{Message: "Invalid date filter.", Fields: fields}
	}
	return f, nil
}

type QueryService struct {
	quizzes     QuizStore
	submissions SubmissionStore
	cache       LeaderboardCache
	settings    config.QuizSettings
	metrics     *observability.Metrics
	log         *zap.Logger
}

func NewQueryService(quizzes QuizStore, submissions SubmissionStore, cache LeaderboardCache, settings config.QuizSettings, metrics *observability.Metrics, log *zap.Logger) *QueryService {
	return &QueryService{
		quizzes:     quizzes,
		submissions: submissions,
		cache:       cache,
		settings:    settings,
		metrics:     metrics,
		log:         log.Named("query"),
	}
}

func (s *QueryService) History(ctx context.Context, userID uuid.UUID, q HistoryQuery) ([]*models.HistoryEntry, error) {
	filter, err := ParseHistoryQuery(q)
	if err != nil {
		return nil, err
	}
	entries, err := s.submissions.History(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

// Retry returns the quiz and the caller's previous attempts at it, newest first.
func (s *QueryService) Retry(ctx context.Context, quizID, userID uuid.UUID) (*models.Quiz, []*models.Submission, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, nil, notFoundOr(err, "Quiz not found.")
	}
	subs, err := s.submissions.ListByQuizAndUser(ctx, quizID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load past submissions: %w", err)
	}
	return quiz, subs, nil
}

// Leaderboard serves the top scores for an exact grade and subject pair,
// reading through the cache when one is configured.
func (s *QueryService) Leaderboard(ctx context.Context, grade, subject string) ([]*models.LeaderboardEntry, error) {
	grade = strings.TrimSpace(grade)
	subject = strings.TrimSpace(subject)
	if grade == "" || subject == "" {
		return nil, &ValidationError{Message: "Grade and subject must be provided as query parameters."}
	}
	if !s.settings.IsSupportedGrade(grade) || !s.settings.IsSupportedSubject(subject) {
		return nil, &ValidationError{
			Message: "Invalid grade or subject provided.",
			Fields: map[string]string{
				"supported_grades":   strings.Join(s.settings.SupportedGrades(), ", "),
				"supported_subjects": strings.Join(s.settings.SupportedSubjects(), ", "),
			},
		}
	}

	// The version is read before the store so a concurrent submission
	// invalidates this read's cache write.
	var version int64
	cacheable := false
	if s.cache != nil {
		v, err := s.cache.Version(ctx, grade, subject)
		if err != nil {
			s.log.Warn("leaderboard cache version read failed", zap.Error(err))
		} else {
			version, cacheable = v, true
		}

		entries, err := s.cache.Get(ctx, grade, subject)
		switch {
		case err == nil:
			s.metrics.LeaderboardLookup("hit")
			return entries, nil
		case errors.Is(err, repository.ErrCacheMiss):
			s.metrics.LeaderboardLookup("miss")
		default:
			s.metrics.LeaderboardLookup("error")
			s.log.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}

	entries, err := s.submissions.Leaderboard(ctx, grade, subject, s.settings.LeaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	if cacheable {
		if err := s.cache.Set(ctx, grade, subject, version, entries); err != nil {
			s.log.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}
	return entries, nil
}

func (s *QueryService) LeaderboardLimit() int {
	return s.settings.LeaderboardLimit
}
