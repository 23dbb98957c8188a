package config

import "strings"

// QuizSettings holds the quiz rules shared by the generator, grader and
// leaderboard. It is built once at startup and only exposes copies of its
// slices, so components can hold it by value.
type QuizSettings struct {
	MinQuestions      int
	MaxQuestions      int
	DefaultQuestions  int
	RecentWindow      int
	LowThreshold      float64
	HighThreshold     float64
	LeaderboardLimit  int
	supportedGrades   []string
	supportedSubjects []string
}

var (
	defaultGrades = []string{
		"5th Grade", "8th Grade", "10th Grade", "12th Grade", "College Freshman",
	}
	defaultSubjects = []string{
		"Chemistry", "Biology", "Physics", "History",
		"Mathematics", "Geography", "Literature", "Computer Science",
	}
)

// DefaultQuizSettings returns the built-in rules without reading the environment.
func DefaultQuizSettings() QuizSettings {
	return NewQuizSettings(40, 80, defaultGrades, defaultSubjects)
}

// NewQuizSettings builds settings with the given difficulty thresholds and enumerations.
func NewQuizSettings(low, high float64, grades, subjects []string) QuizSettings {
	return QuizSettings{
		MinQuestions:      1,
		MaxQuestions:      10,
		DefaultQuestions:  5,
		RecentWindow:      5,
		LowThreshold:      low,
		HighThreshold:     high,
		LeaderboardLimit:  10,
		supportedGrades:   append([]string(nil), grades...),
		supportedSubjects: append([]string(nil), subjects...),
	}
}

func loadQuizSettings() QuizSettings {
	s := NewQuizSettings(
		getEnvAsFloatOrDefault("DIFFICULTY_LOW_THRESHOLD", 40),
		getEnvAsFloatOrDefault("DIFFICULTY_HIGH_THRESHOLD", 80),
		getEnvAsListOrDefault("SUPPORTED_GRADES", defaultGrades),
		getEnvAsListOrDefault("SUPPORTED_SUBJECTS", defaultSubjects),
	)
	s.LeaderboardLimit = getEnvAsIntOrDefault("LEADERBOARD_LIMIT", s.LeaderboardLimit)
	s.DefaultQuestions = getEnvAsIntOrDefault("DEFAULT_NUM_QUESTIONS", s.DefaultQuestions)
	return s
}

func (s QuizSettings) SupportedGrades() []string {
	return append([]string(nil), s.supportedGrades...)
}

func (s QuizSettings) SupportedSubjects() []string {
	return append([]string(nil), s.supportedSubjects...)
}

// IsSupportedGrade matches exactly, as leaderboard rows are keyed on the stored value.
func (s QuizSettings) IsSupportedGrade(grade string) bool {
	return contains(s.supportedGrades, grade)
}

func (s QuizSettings) IsSupportedSubject(subject string) bool {
	return contains(s.supportedSubjects, subject)
}

func contains(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
