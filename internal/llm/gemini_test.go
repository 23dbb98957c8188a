package llm

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_id": map[string]any{"type": "integer"},
						"type": map[string]any{
							"type": "string",
							"enum": []any{"multiple_choice", "true_false"},
						},
					},
					"required": []string{"question_id", "type"},
				},
			},
		},
		"required": []any{"questions"},
	}

	s := buildGeminiSchema(def)
	require.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"questions"}, s.Required)

	questions := s.Properties["questions"]
	require.NotNil(t, questions)
	assert.Equal(t, genai.TypeArray, questions.Type)

	item := questions.Items
	require.NotNil(t, item)
	assert.Equal(t, []string{"question_id", "type"}, item.Required)
	assert.Equal(t, genai.TypeInteger, item.Properties["question_id"].Type)
	assert.Equal(t, []string{"multiple_choice", "true_false"}, item.Properties["type"].Enum)
}

func TestConfigureGeminiModel(t *testing.T) {
	model := &genai.GenerativeModel{}
	configureGeminiModel(model, Request{System: "be brief", Schema: pairSchema, MaxTokens: 100})

	require.NotNil(t, model.SystemInstruction)
	assert.Equal(t, genai.Text("be brief"), model.SystemInstruction.Parts[0])
	assert.Equal(t, "application/json", model.ResponseMIMEType)
	require.NotNil(t, model.ResponseSchema)
	assert.Equal(t, genai.TypeObject, model.ResponseSchema.Type)
	require.NotNil(t, model.Temperature)
	assert.InDelta(t, 0.3, *model.Temperature, 0.0001)
	require.NotNil(t, model.MaxOutputTokens)
	assert.Equal(t, int32(100), *model.MaxOutputTokens)
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("hello "), genai.Text("world")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, "hello world", extractText(resp))
	assert.Equal(t, "", extractText(&genai.GenerateContentResponse{}))
}

func TestGeminiStopReason(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMaxTokens}}}
	assert.Equal(t, StopMaxTokens, geminiStopReason(resp))

	resp.Candidates[0].FinishReason = genai.FinishReasonStop
	assert.Equal(t, StopEnd, geminiStopReason(resp))
}

func TestMapGeminiError(t *testing.T) {
	var rl *ErrRateLimit
	assert.ErrorAs(t, mapGeminiError(&googleapi.Error{Code: http.StatusTooManyRequests}), &rl)

	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, mapGeminiError(&googleapi.Error{Code: http.StatusServiceUnavailable}), &unavail)
	assert.ErrorAs(t, mapGeminiError(errors.New("dial tcp: refused")), &unavail)

	var inv *ErrInvalidResponse
	assert.ErrorAs(t, mapGeminiError(&genai.BlockedError{}), &inv)
}
