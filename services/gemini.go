package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prepwise/backend/models"

	"google.golang.org/genai"
)

const ModelName = "gemini-2.5-flash"

// Minimum meaningful lengths for feedback text fields. Shorter values are
// replaced with placeholders rather than failing the generation.
const (
	minStrengthsLength = 10
	minImprovementLen  = 10
	minFinalAssessment = 20
)

// Placeholder strings written when the model returns text fields without
// meaningful content
const (
	placeholderStrengths = "Unable to identify specific strengths from the interview. Please ensure the interview covers relevant topics and provides detailed responses."
	placeholderAreas     = "Unable to identify specific areas for improvement. Please ensure the interview is comprehensive and covers technical and behavioral aspects."
	placeholderFinal     = "Unable to provide a comprehensive assessment based on the available interview data."
)

// GeminiService handles all Gemini AI operations
type GeminiService struct {
	genaiClient *genai.Client
}

func NewGeminiService(apiKey string) *GeminiService {
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		slog.Error("Failed to create genai client", "error", err)
		return nil
	}

	return &GeminiService{genaiClient: genaiClient}
}

// FeedbackObject is the schema-constrained evaluation returned by the model
type FeedbackObject struct {
	TotalScore          int                   `json:"totalScore"`
	CategoryScores      models.CategoryScores `json:"categoryScores"`
	Strengths           string                `json:"strengths"`
	AreasForImprovement string                `json:"areasForImprovement"`
	FinalAssessment     string                `json:"finalAssessment"`
}

// feedbackResponseSchema constrains structured generation to the exact
// evaluation shape: a total score, the five fixed categories, and three
// non-empty text fields
var feedbackResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"totalScore": {Type: genai.TypeInteger, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)},
		"categoryScores": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				models.CategoryCommunicationSkills:  {Type: genai.TypeInteger, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)},
				models.CategoryTechnicalKnowledge:   {Type: genai.TypeInteger, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)},
				models.CategoryProblemSolving:       {Type: genai.TypeInteger, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)},
				models.CategoryCulturalFit:          {Type: genai.TypeInteger, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)},
				models.CategoryConfidenceAndClarity: {Type: genai.TypeInteger, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)},
			},
			Required: []string{
				models.CategoryCommunicationSkills,
				models.CategoryTechnicalKnowledge,
				models.CategoryProblemSolving,
				models.CategoryCulturalFit,
				models.CategoryConfidenceAndClarity,
			},
		},
		"strengths":           {Type: genai.TypeString},
		"areasForImprovement": {Type: genai.TypeString},
		"finalAssessment":     {Type: genai.TypeString},
	},
	Required: []string{"totalScore", "categoryScores", "strengths", "areasForImprovement", "finalAssessment"},
}

// GenerateFeedbackObject evaluates a formatted interview transcript with
// structured generation and decodes the conforming JSON object
func (g *GeminiService) GenerateFeedbackObject(ctx context.Context, role, formattedTranscript string) (*FeedbackObject, error) {
	if g.genaiClient == nil {
		return nil, fmt.Errorf("genai client not initialized")
	}

	prompt := fmt.Sprintf(`You are an AI interviewer analyzing a mock interview for a %s position. Your task is to evaluate the candidate based on structured categories. Be thorough and detailed in your analysis. Don't be lenient with the candidate. If there are mistakes or areas for improvement, point them out clearly.

Interview Transcript:
%s

IMPORTANT INSTRUCTIONS:
1. You MUST provide specific, detailed feedback for each category
2. Strengths should be concrete examples from the interview (minimum 2-3 sentences)
3. Areas for improvement should be specific and actionable (minimum 2-3 sentences)
4. Final assessment should be comprehensive (minimum 3-4 sentences)
5. Do NOT leave any field empty or with generic responses

Please score the candidate from 0 to 100 in the following areas:
- **Communication Skills**: Clarity, articulation, structured responses, ability to explain technical concepts clearly
- **Technical Knowledge**: Understanding of relevant concepts, tools, methodologies
- **Problem-Solving**: Ability to analyze problems, propose solutions, think through complex scenarios
- **Cultural & Role Fit**: Alignment with company values, understanding of the role, professional demeanor
- **Confidence & Clarity**: Confidence in responses, engagement level, clarity of thought process

Provide specific examples from the transcript to support your scores and feedback.`, role, formattedTranscript)

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(
			fmt.Sprintf("You are a professional interviewer with expertise in %s roles. You must provide detailed, specific feedback based on the interview transcript. Never provide empty or generic responses. Always reference specific parts of the conversation when giving feedback.", role),
			genai.RoleUser,
		),
		ResponseMIMEType: "application/json",
		ResponseSchema:   feedbackResponseSchema,
	}

	result, err := g.genaiClient.Models.GenerateContent(
		ctx,
		ModelName,
		genai.Text(prompt),
		config,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate feedback: %w", err)
	}

	var object FeedbackObject
	if err := json.Unmarshal([]byte(result.Text()), &object); err != nil {
		return nil, fmt.Errorf("feedback response did not conform to schema: %w", err)
	}

	slog.Info("Generated feedback object", "total_score", object.TotalScore)
	return &object, nil
}

// GenerateInterviewQuestions produces a question list for a newly requested
// interview. The model is asked for a bare JSON array; voice-unfriendly
// characters are excluded because questions are read aloud by the assistant.
func (g *GeminiService) GenerateInterviewQuestions(ctx context.Context, role, level, interviewType string, techstack []string, amount int) ([]string, error) {
	if g.genaiClient == nil {
		return nil, fmt.Errorf("genai client not initialized")
	}

	prompt := fmt.Sprintf(`Prepare questions for a job interview.
The job role is %s.
The job experience level is %s.
The tech stack used in the job is: %s.
The focus between behavioural and technical questions should lean towards: %s.
The amount of questions required is: %d.
Please return only the questions, without any additional text.
The questions are going to be read by a voice assistant so do not use "/" or "*" or any other special characters which might break the voice assistant.
Return the questions formatted like this:
["Question 1", "Question 2", "Question 3"]`,
		role, level, strings.Join(techstack, ", "), interviewType, amount)

	result, err := g.genaiClient.Models.GenerateContent(
		ctx,
		ModelName,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	questions, err := parseQuestionList(result.Text())
	if err != nil {
		return nil, err
	}

	slog.Info("Generated interview questions", "role", role, "count", len(questions))
	return questions, nil
}

// parseQuestionList decodes the model's question array, tolerating markdown
// code fences around the JSON
func parseQuestionList(raw string) ([]string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var questions []string
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("question response is not a JSON array: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question response is empty")
	}
	return questions, nil
}

// GenerateText runs a plain free-text completion
func (g *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if g.genaiClient == nil {
		return "", fmt.Errorf("genai client not initialized")
	}

	result, err := g.genaiClient.Models.GenerateContent(
		ctx,
		ModelName,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	return result.Text(), nil
}
