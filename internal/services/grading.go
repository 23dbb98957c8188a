package services

import (
	"math"
	"strconv"
	"strings"

	"quizzer-backend/internal/models"
)

const perfectScoreMessage = "Excellent work! You achieved a perfect score and need no suggestions."

type GradeResult struct {
	Correct  int
	Total    int
	Score    float64
	Mistakes []models.Mistake
}

// Grade compares answers with the quiz key. Question ids match on their string
// form; answers match case-insensitively after trimming. A missing or empty
// answer is a mistake.
func Grade(questions []models.Question, answers []models.SubmittedAnswer) GradeResult {
	byID := make(map[string]string, len(answers))
	for _, a := range answers {
		id := strings.TrimSpace(string(a.QuestionID))
		if _, dup := byID[id]; dup {
			continue
		}
		byID[id] = string(a.Answer)
	}

	res := GradeResult{Total: len(questions), Mistakes: []models.Mistake{}}
	for _, q := range questions {
		given, answered := byID[strconv.Itoa(q.QuestionID)]
		if answered && strings.TrimSpace(given) != "" &&
			strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(q.CorrectAnswer)) {
			res.Correct++
			continue
		}
		res.Mistakes = append(res.Mistakes, models.Mistake{
			QuestionText:  q.QuestionText,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    given,
		})
	}

	if res.Total > 0 {
		res.Score = 100 * float64(res.Correct) / float64(res.Total)
	}
	return res
}

// roundScore rounds to two decimals for responses. Stored scores keep full precision.
func roundScore(score float64) float64 {
	return math.Round(score*100) / 100
}
