package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"quizzer-backend/internal/middleware"
	"quizzer-backend/internal/models"
	"quizzer-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetRequestID(r.Context()),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	resp := errorResp(code, message, r)
	resp.Error.Fields = fields
	return resp
}

// ErrorHandler maps service errors onto the JSON error envelope.
type ErrorHandler struct {
	log           *zap.Logger
	exposeDetails bool
}

// NewErrorHandler hides internal error text from clients unless exposeDetails is set.
func NewErrorHandler(log *zap.Logger, exposeDetails bool) *ErrorHandler {
	return &ErrorHandler{log: log.Named("http"), exposeDetails: exposeDetails}
}

func (h *ErrorHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *services.ValidationError
		nf  *services.NotFoundError
		ue  *services.UnauthorizedError
		fe  *services.ForbiddenError
		rle *services.RateLimitError
		ge  *services.GenerationError
	)

	switch {
	case errors.As(err, &ve):
		msg := ve.Message
		if msg == "" {
			msg = "Validation failed"
		}
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", msg, ve.Fields, r))
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", nf.Message, r))
	case errors.As(err, &ue):
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", ue.Message, r))
	case errors.As(err, &fe):
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", fe.Message, r))
	case errors.As(err, &rle):
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", rle.Message, r))
	case errors.As(err, &ge):
		h.log.Error("ai generation failed", zap.String("request_id", middleware.GetRequestID(r.Context())), zap.Error(err))
		resp := errorResp("AI_GENERATION_FAILED", ge.Message, r)
		resp.Error.Details = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
	default:
		h.log.Error("unhandled error", zap.String("request_id", middleware.GetRequestID(r.Context())), zap.Error(err))
		resp := errorResp("INTERNAL_ERROR", "An unexpected error occurred", r)
		if h.exposeDetails {
			resp.Error.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func (h *ErrorHandler) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", message, r))
}
