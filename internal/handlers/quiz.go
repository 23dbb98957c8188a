package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quizzer-backend/internal/middleware"
	"quizzer-backend/internal/models"
	"quizzer-backend/internal/services"
)

type QuizHandler struct {
	*ErrorHandler
	quizService       *services.QuizService
	submissionService *services.SubmissionService
	queryService      *services.QueryService
	tipService        *services.TipService
}

func NewQuizHandler(
	errs *ErrorHandler,
	quizService *services.QuizService,
	submissionService *services.SubmissionService,
	queryService *services.QueryService,
	tipService *services.TipService,
) *QuizHandler {
	return &QuizHandler{
		ErrorHandler:      errs,
		quizService:       quizService,
		submissionService: submissionService,
		queryService:      queryService,
		tipService:        tipService,
	}
}

func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, "Invalid request body")
		return
	}

	userID := middleware.GetUserID(r.Context())
	quiz, err := h.quizService.Generate(r.Context(), userID, req.GradeLevel, req.Subject, req.NumQuestions)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.GenerateQuizResponse{
		Message:              "Quiz generated successfully. Start the quiz!",
		QuizID:               quiz.ID,
		Questions:            models.PublicQuestions(quiz.Questions),
		DifficultyAdjustment: quiz.DifficultyAdjustment,
		GeneratedAt:          quiz.GeneratedAt,
	})
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, "Invalid request body")
		return
	}

	quizIDStr := strings.TrimSpace(req.QuizID)
	if quizIDStr == "" || len(req.Answers) == 0 {
		h.badRequest(w, r, "Quiz ID and an array of answers are required.")
		return
	}
	quizID, err := uuid.Parse(quizIDStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Invalid quiz ID",
			map[string]string{"quiz_id": "Must be a UUID"}, r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	res, err := h.submissionService.Submit(r.Context(), userID, quizID, req.Answers)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SubmitQuizResponse{
		Message:        "Quiz submitted and evaluated successfully.",
		Score:          res.RoundedScore(),
		TotalQuestions: res.Grade.Total,
		CorrectCount:   res.Grade.Correct,
		AISuggestions:  res.Submission.AISuggestions,
		SubmissionID:   res.Submission.ID,
	})
}

func (h *QuizHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := middleware.GetUserID(r.Context())

	history, err := h.queryService.History(r.Context(), userID, services.HistoryQuery{
		Grade:   q.Get("grade"),
		Subject: q.Get("subject"),
		Marks:   q.Get("marks"),
		From:    q.Get("from"),
		To:      q.Get("to"),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.HistoryResponse{
		Message: "Quiz history retrieved successfully.",
		History: history,
	})
}

func (h *QuizHandler) Retry(w http.ResponseWriter, r *http.Request) {
	quizID, err := uuid.Parse(chi.URLParam(r, "quizId"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found.", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	quiz, subs, err := h.queryService.Retry(r.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.RetryResponse{
		Message: "Quiz details for retry retrieved successfully. Re-submit answers to re-evaluate.",
		QuizDetails: models.RetryDetails{
			QuizID:          quiz.ID,
			GradeLevel:      quiz.GradeLevel,
			Subject:         quiz.Subject,
			Questions:       models.PublicQuestions(quiz.Questions),
			PastSubmissions: subs,
		},
	})
}

// Hint uses only the query parameters; the quizId path segment is not looked up.
func (h *QuizHandler) Hint(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hint, err := h.tipService.Hint(r.Context(), q.Get("question_text"), q.Get("subject"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.HintResponse{
		Message: "Hint generated successfully.",
		Hint:    hint,
	})
}
