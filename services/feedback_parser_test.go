package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedbackResponseJSON(t *testing.T) {
	raw := `{
		"feedback": "Solid interview overall.",
		"overallScore": 78,
		"strengths": ["Clear explanations", "Good fundamentals"],
		"improvements": ["More depth on databases"],
		"questionResponses": [{"question": "What is a goroutine?", "response": "A lightweight thread.", "score": 80}]
	}`

	draft := ParseFeedbackResponse(raw, "int-1", "user-1")

	assert.Equal(t, "int-1", draft.InterviewID)
	assert.Equal(t, "user-1", draft.UserID)
	assert.Equal(t, "Solid interview overall.", draft.Feedback)
	assert.True(t, draft.HasScore)
	assert.Equal(t, 78.0, draft.OverallScore)
	assert.Equal(t, []string{"Clear explanations", "Good fundamentals"}, draft.Strengths)
	assert.Equal(t, []string{"More depth on databases"}, draft.Improvements)
	require.Len(t, draft.QuestionResponses, 1)
	assert.Equal(t, "What is a goroutine?", draft.QuestionResponses[0].Question)
	// Missing array fields default to empty, never nil
	assert.NotNil(t, draft.Recommendations)
	assert.Empty(t, draft.Recommendations)
}

func TestParseFeedbackResponseJSONScoreAlias(t *testing.T) {
	draft := ParseFeedbackResponse(`{"score": 55}`, "int-1", "user-1")
	assert.True(t, draft.HasScore)
	assert.Equal(t, 55.0, draft.OverallScore)
}

func TestParseFeedbackResponseFreeTextScore(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"score with fraction", "The candidate did well. Score: 87/10", 87},
		{"overall score", "Overall Score: 64", 64},
		{"decimal score", "score= 7.5 / 10", 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := ParseFeedbackResponse(tt.raw, "int-1", "user-1")
			assert.True(t, draft.HasScore)
			assert.Equal(t, tt.want, draft.OverallScore)
			assert.Equal(t, tt.raw, draft.Feedback)
		})
	}
}

func TestParseFeedbackResponseFreeTextSections(t *testing.T) {
	raw := "Strengths: Good communicator.\n\nImprovements: Needs more examples."

	draft := ParseFeedbackResponse(raw, "int-1", "user-1")

	assert.Equal(t, []string{"Good communicator."}, draft.Strengths)
	assert.Equal(t, []string{"Needs more examples."}, draft.Improvements)
	assert.Equal(t, raw, draft.Feedback)
	assert.False(t, draft.HasScore)
}

func TestParseFeedbackResponseFreeTextBullets(t *testing.T) {
	raw := "Recommendations: • practice system design • read up on indexing\n\nDone."

	draft := ParseFeedbackResponse(raw, "int-1", "user-1")

	assert.Equal(t, []string{"practice system design", "read up on indexing"}, draft.Recommendations)
}

func TestParseFeedbackResponseNoMatches(t *testing.T) {
	raw := "nothing structured here"

	draft := ParseFeedbackResponse(raw, "int-1", "user-1")

	assert.Equal(t, raw, draft.Feedback)
	assert.False(t, draft.HasScore)
	assert.Empty(t, draft.Strengths)
	assert.Empty(t, draft.Improvements)
	assert.Empty(t, draft.Recommendations)
	assert.NotNil(t, draft.QuestionResponses)
}
