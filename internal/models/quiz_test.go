package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_DecodesIntegralFloatID(t *testing.T) {
	var q Question
	require.NoError(t, json.Unmarshal([]byte(`{"question_id":2.0,"question_text":"A?","type":"true_false","correct_answer":"True","difficulty":"easy"}`), &q))
	assert.Equal(t, 2, q.QuestionID)
	assert.Equal(t, "A?", q.QuestionText)
	assert.Equal(t, "True", q.CorrectAnswer)
}

func TestQuestion_RejectsFractionalID(t *testing.T) {
	var q Question
	assert.Error(t, json.Unmarshal([]byte(`{"question_id":1.5,"question_text":"A?"}`), &q))
}

func TestQuestion_MissingIDIsZero(t *testing.T) {
	var q Question
	require.NoError(t, json.Unmarshal([]byte(`{"question_text":"A?","options":["x","y"]}`), &q))
	assert.Equal(t, 0, q.QuestionID)
	assert.Equal(t, []string{"x", "y"}, q.Options)
}

func TestQuestion_EncodesUnchanged(t *testing.T) {
	raw, err := json.Marshal(Question{QuestionID: 3, QuestionText: "Q", Type: QuestionShortAnswer, CorrectAnswer: "A", Difficulty: "hard"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"question_id":3,"question_text":"Q","type":"short_answer","correct_answer":"A","difficulty":"hard"}`, string(raw))
}
