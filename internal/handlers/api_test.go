package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizzer-backend/internal/config"
	"quizzer-backend/internal/handlers"
	"quizzer-backend/internal/llm"
	"quizzer-backend/internal/middleware"
	"quizzer-backend/internal/models"
	"quizzer-backend/internal/repository/memstore"
	"quizzer-backend/internal/router"
	"quizzer-backend/internal/services"
)

const tipsText = "Review the capitals of Europe."

type testAPI struct {
	server *httptest.Server
	store  *memstore.Store
	mock   *llm.MockProvider
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	log := zap.NewNop()
	settings := config.DefaultQuizSettings()
	store := memstore.New()
	mock := llm.NewMockProvider()
	mock.Respond = func(req llm.Request) (*llm.Response, error) {
		if req.Schema != nil {
			raw, err := json.Marshal(map[string]any{"questions": sampleQuestions()})
			if err != nil {
				return nil, err
			}
			return &llm.Response{Content: string(raw), StopReason: llm.StopEnd}, nil
		}
		return &llm.Response{Content: tipsText, StopReason: llm.StopEnd}, nil
	}
	ai := llm.NewClient(mock, log, llm.ClientOptions{
		Retry: llm.RetryPolicy{MaxAttempts: 2, InitialWait: time.Millisecond, Multiplier: 1},
	})

	jwtAuth := middleware.NewJWTAuth("test-secret", time.Hour)
	tips := services.NewTipService(ai)
	quizzes := services.NewQuizService(store.Quizzes, services.NewDifficultyEstimator(store.Submissions, settings), ai, settings, nil, log)
	submissions := services.NewSubmissionService(store.Quizzes, store.Submissions, tips, nil, nil, nil, log)
	queries := services.NewQueryService(store.Quizzes, store.Submissions, nil, settings, nil, log)
	errs := handlers.NewErrorHandler(log, true)

	h := router.New(router.Deps{
		Log:                log,
		JWTAuth:            jwtAuth,
		AllowedOrigins:     []string{"*"},
		AuthHandler:        handlers.NewAuthHandler(errs, services.NewAuthService(store.Users, jwtAuth, false, log)),
		QuizHandler:        handlers.NewQuizHandler(errs, quizzes, submissions, queries, tips),
		LeaderboardHandler: handlers.NewLeaderboardHandler(errs, queries),
		MetaHandler:        handlers.NewMetaHandler(map[string]handlers.Pinger{}),
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testAPI{server: srv, store: store, mock: mock}
}

func sampleQuestions() []models.Question {
	return []models.Question{
		{QuestionID: 1, QuestionText: "Which organelle makes ATP?", Type: models.QuestionMultipleChoice, Options: []string{"Nucleus", "Mitochondria"}, CorrectAnswer: "Mitochondria", Difficulty: "easy"},
		{QuestionID: 2, QuestionText: "Plants perform photosynthesis.", Type: models.QuestionTrueFalse, CorrectAnswer: "True", Difficulty: "easy"},
		{QuestionID: 3, QuestionText: "Capital of France?", Type: models.QuestionShortAnswer, CorrectAnswer: "Paris", Difficulty: "medium"},
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (a *testAPI) login(t *testing.T, username string) string {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: username, Password: "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out models.LoginResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (a *testAPI) generate(t *testing.T, token string) models.GenerateQuizResponse {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/api/quiz/generate", token, map[string]any{
		"grade_level":   "8th Grade",
		"subject":       "Biology",
		"num_questions": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var out models.GenerateQuizResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func (a *testAPI) submit(t *testing.T, token string, quizID uuid.UUID, answers []map[string]any) models.SubmitQuizResponse {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/api/quiz/submit", token, map[string]any{
		"quiz_id": quizID.String(),
		"answers": answers,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out models.SubmitQuizResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestAPI_GenerateHidesCorrectAnswers(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "alice")

	resp, body := api.do(t, http.MethodPost, "/api/quiz/generate", token, map[string]any{
		"grade_level":   "8th Grade",
		"subject":       "Biology",
		"num_questions": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "correct_answer")

	var out models.GenerateQuizResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Questions, 3)
	assert.NotEqual(t, uuid.Nil, out.QuizID)
	assert.Equal(t, "medium", out.DifficultyAdjustment)
	assert.Equal(t, "Quiz generated successfully. Start the quiz!", out.Message)

	req, ok := api.mock.LastCall()
	require.True(t, ok)
	assert.Contains(t, req.Prompt, "3-question quiz")
	assert.Contains(t, req.Prompt, "8th Grade")
}

func TestAPI_GenerateRequiresGradeAndSubject(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "alice")

	resp, body := api.do(t, http.MethodPost, "/api/quiz/generate", token, map[string]any{"subject": "Biology"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "grade_level")
	assert.Equal(t, 0, api.mock.CallCount())
}

func TestAPI_SubmitPartialScore(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "alice")
	quiz := api.generate(t, token)

	out := api.submit(t, token, quiz.QuizID, []map[string]any{
		{"question_id": 1, "answer": "  mitochondria "},
		{"question_id": 2, "answer": "TRUE"},
		{"question_id": 3, "answer": "London"},
	})

	assert.Equal(t, 66.67, out.Score)
	assert.Equal(t, 2, out.CorrectCount)
	assert.Equal(t, 3, out.TotalQuestions)
	assert.Equal(t, tipsText, out.AISuggestions)
	assert.Equal(t, "Quiz submitted and evaluated successfully.", out.Message)

	req, ok := api.mock.LastCall()
	require.True(t, ok)
	assert.Contains(t, req.Prompt, "London")
}

func TestAPI_SubmitPerfectScoreSkipsAI(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "alice")
	quiz := api.generate(t, token)
	callsBefore := api.mock.CallCount()

	out := api.submit(t, token, quiz.QuizID, []map[string]any{
		{"question_id": 1, "answer": "Mitochondria"},
		{"question_id": "2", "answer": "true"},
		{"question_id": 3, "answer": "paris"},
	})

	assert.Equal(t, float64(100), out.Score)
	assert.Equal(t, "Excellent work! You achieved a perfect score and need no suggestions.", out.AISuggestions)
	assert.Equal(t, callsBefore, api.mock.CallCount())
}

func TestAPI_SubmitValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "alice")

	resp, _ := api.do(t, http.MethodPost, "/api/quiz/submit", token, map[string]any{"quiz_id": uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/api/quiz/submit", token, map[string]any{"quiz_id": "not-a-uuid", "answers": []any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/api/quiz/submit", token, map[string]any{"quiz_id": uuid.NewString(), "answers": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/api/quiz/submit", token, map[string]any{"quiz_id": uuid.NewString(), "answers": []any{}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_LeaderboardRejectsUnsupportedValues(t *testing.T) {
	api := newTestAPI(t)

	q := url.Values{"grade": {"3rd Grade"}, "subject": {"Biology"}}
	resp, body := api.do(t, http.MethodGet, "/api/leaderboard?"+q.Encode(), "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid grade or subject provided.")

	resp, _ = api.do(t, http.MethodGet, "/api/leaderboard?grade=8th+Grade", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_LeaderboardRanksSubmissions(t *testing.T) {
	api := newTestAPI(t)
	alice := api.login(t, "alice")
	bob := api.login(t, "bob")

	quiz := api.generate(t, alice)
	api.submit(t, alice, quiz.QuizID, []map[string]any{{"question_id": 1, "answer": "Mitochondria"}})
	api.submit(t, bob, quiz.QuizID, []map[string]any{
		{"question_id": 1, "answer": "Mitochondria"},
		{"question_id": 2, "answer": "True"},
		{"question_id": 3, "answer": "Paris"},
	})

	q := url.Values{"grade": {"8th Grade"}, "subject": {"Biology"}}
	resp, body := api.do(t, http.MethodGet, "/api/leaderboard?"+q.Encode(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out models.LeaderboardResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Leaderboard, 2)
	assert.Equal(t, "bob", out.Leaderboard[0].Username)
	assert.Equal(t, 1, out.Leaderboard[0].Rank)
	assert.Equal(t, "alice", out.Leaderboard[1].Username)
	assert.Equal(t, "Top 10 scores for 8th Grade Biology", out.Message)
}

func TestAPI_HistoryAndRetry(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "alice")
	quiz := api.generate(t, token)
	api.submit(t, token, quiz.QuizID, []map[string]any{{"question_id": 1, "answer": "Mitochondria"}})

	resp, body := api.do(t, http.MethodGet, "/api/quiz/history?subject=bio&marks=10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var history models.HistoryResponse
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history.History, 1)
	assert.Equal(t, quiz.QuizID, history.History[0].QuizID)

	resp, body = api.do(t, http.MethodGet, "/api/quiz/history?marks=90", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &history))
	assert.Empty(t, history.History)

	resp, _ = api.do(t, http.MethodGet, "/api/quiz/history?from=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = api.do(t, http.MethodGet, "/api/quiz/retry/"+quiz.QuizID.String(), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "correct_answer")
	var retry models.RetryResponse
	require.NoError(t, json.Unmarshal(body, &retry))
	assert.Len(t, retry.QuizDetails.Questions, 3)
	assert.Len(t, retry.QuizDetails.PastSubmissions, 1)

	resp, _ = api.do(t, http.MethodGet, "/api/quiz/retry/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = api.do(t, http.MethodGet, "/api/quiz/retry/garbage", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Hint(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "alice")

	q := url.Values{"question_text": {"Capital of France?"}, "subject": {"Geography"}}
	resp, body := api.do(t, http.MethodGet, "/api/quiz/hint/"+uuid.NewString()+"?"+q.Encode(), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out models.HintResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, tipsText, out.Hint)

	resp, _ = api.do(t, http.MethodGet, "/api/quiz/hint/"+uuid.NewString()+"?subject=Geography", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GenerationFailure(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "alice")
	api.mock.Respond = func(llm.Request) (*llm.Response, error) {
		return nil, errors.New("model overloaded")
	}

	resp, body := api.do(t, http.MethodPost, "/api/quiz/generate", token, map[string]any{
		"grade_level": "8th Grade",
		"subject":     "Biology",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "AI_GENERATION_FAILED")
	assert.Equal(t, 2, api.mock.CallCount())

}

func TestAPI_AuthRequired(t *testing.T) {
	api := newTestAPI(t)

	resp, _ := api.do(t, http.MethodGet, "/api/quiz/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := api.do(t, http.MethodGet, "/api/quiz/history", "garbage.token.here", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "FORBIDDEN"))

	req, err := http.NewRequest(http.MethodGet, api.server.URL+"/api/quiz/history", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Basic YWxpY2U6cHc=")
	basic, err := api.server.Client().Do(req)
	require.NoError(t, err)
	basic.Body.Close()
	assert.Equal(t, http.StatusForbidden, basic.StatusCode)
}

func TestAPI_MetaRoutes(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	resp, body = api.do(t, http.MethodGet, "/api", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/api/quiz/generate")

	resp, body = api.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND")
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

func TestMetaHandler_HealthDegraded(t *testing.T) {
	meta := handlers.NewMetaHandler(map[string]handlers.Pinger{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("down") },
	})
	rr := httptest.NewRecorder()
	meta.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"redis":"down"`)
	assert.Contains(t, rr.Body.String(), `"postgres":"ok"`)
}
