package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// FeedbackDraft is the structured form extracted from a raw model response.
// Array fields are always non-nil; a zero OverallScore with HasScore=false
// means no score could be extracted.
type FeedbackDraft struct {
	InterviewID       string             `json:"interview_id"`
	UserID            string             `json:"user_id"`
	Feedback          string             `json:"feedback"`
	OverallScore      float64            `json:"overall_score,omitempty"`
	HasScore          bool               `json:"-"`
	QuestionResponses []QuestionResponse `json:"question_responses"`
	Strengths         []string           `json:"strengths"`
	Improvements      []string           `json:"improvements"`
	Recommendations   []string           `json:"recommendations"`
}

type QuestionResponse struct {
	Question string   `json:"question"`
	Response string   `json:"response"`
	Score    *float64 `json:"score,omitempty"`
}

// rawFeedbackPayload is the JSON shape models tend to return when asked for
// structured feedback
type rawFeedbackPayload struct {
	Feedback          string             `json:"feedback"`
	OverallScore      *float64           `json:"overallScore"`
	Score             *float64           `json:"score"`
	QuestionResponses []QuestionResponse `json:"questionResponses"`
	Strengths         []string           `json:"strengths"`
	Improvements      []string           `json:"improvements"`
	Recommendations   []string           `json:"recommendations"`
}

// Free-text extraction patterns. Section bodies run until a blank line, a new
// line starting with a capital letter, or the end of the text.
var (
	scorePattern           = regexp.MustCompile(`(?i)(?:overall\s+score|score)[:=]\s*(\d+(?:\.\d+)?)\s*(?:/\s*10)?`)
	strengthsPattern       = regexp.MustCompile(`(?is)(?:strengths?|positive\s+aspects?)[:=]\s*(.*?)(?:\n\s*\n|\n[A-Z]|\z)`)
	improvementsPattern    = regexp.MustCompile(`(?is)(?:improvements?|areas?\s+for\s+improvement|weaknesses?)[:=]\s*(.*?)(?:\n\s*\n|\n[A-Z]|\z)`)
	recommendationsPattern = regexp.MustCompile(`(?is)(?:recommendations?|suggestions?)[:=]\s*(.*?)(?:\n\s*\n|\n[A-Z]|\z)`)
	bulletSplitPattern     = regexp.MustCompile(`[•\-\n]`)
)

// ParseFeedbackResponse extracts structured feedback from a raw model
// response. The JSON path is primary; free text falls back to best-effort
// pattern extraction. This function never fails: unmatched fields stay at
// their zero values with array fields defaulting to empty slices.
func ParseFeedbackResponse(raw, interviewID, userID string) FeedbackDraft {
	draft := FeedbackDraft{
		InterviewID:       interviewID,
		UserID:            userID,
		Feedback:          raw,
		QuestionResponses: []QuestionResponse{},
		Strengths:         []string{},
		Improvements:      []string{},
		Recommendations:   []string{},
	}

	var payload rawFeedbackPayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		if payload.Feedback != "" {
			draft.Feedback = payload.Feedback
		}
		switch {
		case payload.OverallScore != nil:
			draft.OverallScore = *payload.OverallScore
			draft.HasScore = true
		case payload.Score != nil:
			draft.OverallScore = *payload.Score
			draft.HasScore = true
		}
		if payload.QuestionResponses != nil {
			draft.QuestionResponses = payload.QuestionResponses
		}
		if payload.Strengths != nil {
			draft.Strengths = payload.Strengths
		}
		if payload.Improvements != nil {
			draft.Improvements = payload.Improvements
		}
		if payload.Recommendations != nil {
			draft.Recommendations = payload.Recommendations
		}
		return draft
	}

	// Not JSON: the whole text is the feedback body, with score and section
	// lists pulled out independently when their patterns match
	if m := scorePattern.FindStringSubmatch(raw); m != nil {
		if score, err := strconv.ParseFloat(m[1], 64); err == nil {
			draft.OverallScore = score
			draft.HasScore = true
		}
	}
	if m := strengthsPattern.FindStringSubmatch(raw); m != nil {
		draft.Strengths = splitSectionItems(m[1])
	}
	if m := improvementsPattern.FindStringSubmatch(raw); m != nil {
		draft.Improvements = splitSectionItems(m[1])
	}
	if m := recommendationsPattern.FindStringSubmatch(raw); m != nil {
		draft.Recommendations = splitSectionItems(m[1])
	}

	return draft
}

// splitSectionItems breaks a section body on bullet characters, hyphens and
// newlines, trimming whitespace and discarding empty entries
func splitSectionItems(body string) []string {
	parts := bulletSplitPattern.Split(body, -1)
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
