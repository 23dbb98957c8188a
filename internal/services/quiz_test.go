package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizzer-backend/internal/llm"
	"quizzer-backend/internal/models"
)

func TestQuizService_GeneratePersistsQuiz(t *testing.T) {
	e := newEnv()
	e.mock.AddResponse(llm.MockResponse{Content: quizJSON(t, sampleQuestions()...)})
	userID := uuid.New()

	quiz, err := e.quizService().Generate(context.Background(), userID, "5th Grade", "Mathematics", 3)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, quiz.ID)
	assert.Equal(t, "medium", quiz.DifficultyAdjustment)
	assert.Len(t, quiz.Questions, 3)
	assert.False(t, quiz.GeneratedAt.IsZero())

	stored, err := e.store.Quizzes.GetByID(context.Background(), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paris", stored.Questions[2].CorrectAnswer)

	req, ok := e.mock.LastCall()
	require.True(t, ok)
	assert.Contains(t, req.Prompt, "3-question quiz")
	assert.Contains(t, req.Prompt, `"Mathematics"`)
	assert.Contains(t, req.Prompt, difficultyNeutral)
	assert.NotNil(t, req.Schema)
}

func TestQuizService_DefaultQuestionCount(t *testing.T) {
	e := newEnv()
	e.mock.AddResponse(llm.MockResponse{Content: quizJSON(t, sampleQuestions()...)})

	_, err := e.quizService().Generate(context.Background(), uuid.New(), "5th Grade", "Mathematics", 0)
	require.NoError(t, err)

	req, _ := e.mock.LastCall()
	assert.Contains(t, req.Prompt, "5-question quiz")
}

func TestQuizService_MissingFields(t *testing.T) {
	e := newEnv()
	_, err := e.quizService().Generate(context.Background(), uuid.New(), " ", "", 5)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "grade_level")
	assert.Contains(t, ve.Fields, "subject")
	assert.Equal(t, 0, e.mock.CallCount())
}

func TestQuizService_GenerationFailureAfterRetries(t *testing.T) {
	e := newEnv()
	e.mock.Respond = func(llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: "I cannot produce JSON today"}, nil
	}

	_, err := e.quizService().Generate(context.Background(), uuid.New(), "5th Grade", "Mathematics", 3)

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.True(t, errors.Is(err, llm.ErrGenerationFailed))
	assert.Equal(t, 3, e.mock.CallCount())
}

func TestQuizService_AcceptsIntegralFloatIDs(t *testing.T) {
	e := newEnv()
	e.mock.AddResponse(llm.MockResponse{Content: `{"questions":[
		{"question_id":1.0,"question_text":"A?","type":"true_false","correct_answer":"True","difficulty":"easy"},
		{"question_id":2.0,"question_text":"B?","type":"short_answer","correct_answer":"b","difficulty":"easy"}]}`})

	quiz, err := e.quizService().Generate(context.Background(), uuid.New(), "5th Grade", "Mathematics", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, e.mock.CallCount())
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, 1, quiz.Questions[0].QuestionID)
	assert.Equal(t, 2, quiz.Questions[1].QuestionID)
}

func TestQuizService_RetryDoesNotKeepFailedAttemptFields(t *testing.T) {
	e := newEnv()
	// Valid against the schema, but the id does not fit an int question id.
	e.mock.AddResponse(llm.MockResponse{Content: `{"questions":[
		{"options":["STALE1","STALE2"],"question_text":"A?","type":"multiple_choice","correct_answer":"x","difficulty":"easy","question_id":10000000000}]}`})
	e.mock.AddResponse(llm.MockResponse{Content: `{"questions":[
		{"question_id":1,"question_text":"B?","type":"multiple_choice","correct_answer":"y","difficulty":"easy"}]}`})

	quiz, err := e.quizService().Generate(context.Background(), uuid.New(), "5th Grade", "Mathematics", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, e.mock.CallCount())
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "B?", quiz.Questions[0].QuestionText)
	assert.Equal(t, "y", quiz.Questions[0].CorrectAnswer)
	assert.Nil(t, quiz.Questions[0].Options)

	stored, err := e.store.Quizzes.GetByID(context.Background(), quiz.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Questions[0].Options)
}

func TestNormalizeQuestions(t *testing.T) {
	in := []models.Question{
		{QuestionID: 1, Type: models.QuestionTrueFalse, Options: []string{"True", "False"}},
		{QuestionID: 1, Type: models.QuestionMultipleChoice, Options: []string{"a", "b"}},
		{QuestionID: 0, Type: models.QuestionShortAnswer},
	}

	out := normalizeQuestions(in)
	assert.Nil(t, out[0].Options)
	assert.Equal(t, []string{"a", "b"}, out[1].Options)
	assert.Equal(t, []int{1, 2, 3}, []int{out[0].QuestionID, out[1].QuestionID, out[2].QuestionID})

	kept := normalizeQuestions([]models.Question{{QuestionID: 7}, {QuestionID: 3}})
	assert.Equal(t, 7, kept[0].QuestionID)
	assert.Equal(t, 3, kept[1].QuestionID)
}

func TestQuizService_GetByIDNotFound(t *testing.T) {
	e := newEnv()
	_, err := e.quizService().GetByID(context.Background(), uuid.New())

	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}
