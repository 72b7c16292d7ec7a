package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prepwise/backend/callsession"
	"github.com/prepwise/backend/models"
)

// FeedbackGenerator is the structured-generation collaborator consumed by
// the feedback service
type FeedbackGenerator interface {
	GenerateFeedbackObject(ctx context.Context, role, formattedTranscript string) (*FeedbackObject, error)
}

// FeedbackStore is the persistence surface the feedback service needs
type FeedbackStore interface {
	GetInterviewByID(ctx context.Context, id string) (*models.Interview, error)
	CreateInterviewDeduped(ctx context.Context, interview *models.Interview, window time.Duration) (string, bool, error)
	UpsertFeedback(ctx context.Context, feedback *models.Feedback) error
}

// FeedbackService turns a finished call transcript into a persisted
// evaluation and creates the interview record for freshly generated
// interviews. It implements callsession.Finalizer.
type FeedbackService struct {
	generator   FeedbackGenerator
	store       FeedbackStore
	dedupWindow time.Duration
}

func NewFeedbackService(generator FeedbackGenerator, store FeedbackStore, dedupWindow time.Duration) *FeedbackService {
	return &FeedbackService{
		generator:   generator,
		store:       store,
		dedupWindow: dedupWindow,
	}
}

// FormatTranscript renders the turn sequence as one line per turn, the shape
// the evaluation prompt expects
func FormatTranscript(transcript []callsession.Turn) string {
	var sb strings.Builder
	for _, turn := range transcript {
		fmt.Fprintf(&sb, "- %s: %s\n", turn.Role, turn.Content)
	}
	return sb.String()
}

// CreateInterview persists the interview record for a dynamically generated
// session, marked completed and finalized so it is immediately listable. The
// duplicate guard absorbs rapid repeat submissions.
func (s *FeedbackService) CreateInterview(ctx context.Context, userID string, setup callsession.Setup) (string, error) {
	if err := setup.Validate(); err != nil {
		return "", err
	}

	interview := &models.Interview{
		UserID:     userID,
		Role:       setup.Role,
		Type:       normalizeInterviewType(setup.InterviewType),
		Level:      setup.ExperienceLevel,
		TechStack:  models.SplitTechStack(setup.TechStack),
		Questions:  []string{},
		Finalized:  true,
		Completed:  true,
		Company:    setup.CompanyName,
		CoverImage: RandomInterviewCover(),
	}

	id, duplicate, err := s.store.CreateInterviewDeduped(ctx, interview, s.dedupWindow)
	if err != nil {
		return "", fmt.Errorf("failed to create interview: %w", err)
	}
	if duplicate {
		slog.Info("Reusing recently created interview", "interview_id", id, "user_id", userID)
	}
	return id, nil
}

// GenerateFeedback evaluates the transcript and upserts the feedback record.
// When feedbackID is set the existing record is overwritten, otherwise a new
// identifier is allocated. Model failures, schema failures and store failures
// all surface as a single error; no retries happen here.
func (s *FeedbackService) GenerateFeedback(ctx context.Context, interviewID, userID, feedbackID string, transcript []callsession.Turn) (string, error) {
	role := "professional"
	if interview, err := s.store.GetInterviewByID(ctx, interviewID); err == nil && interview != nil {
		role = interview.Role
	}

	object, err := s.generator.GenerateFeedbackObject(ctx, role, FormatTranscript(transcript))
	if err != nil {
		return "", fmt.Errorf("failed to generate feedback: %w", err)
	}

	feedback := &models.Feedback{
		ID:                  feedbackID,
		InterviewID:         interviewID,
		UserID:              userID,
		TotalScore:          clampScore(object.TotalScore),
		CategoryScores:      clampCategoryScores(object.CategoryScores),
		Strengths:           textOrPlaceholder(object.Strengths, minStrengthsLength, placeholderStrengths, "strengths", interviewID),
		AreasForImprovement: textOrPlaceholder(object.AreasForImprovement, minImprovementLen, placeholderAreas, "areas_for_improvement", interviewID),
		FinalAssessment:     textOrPlaceholder(object.FinalAssessment, minFinalAssessment, placeholderFinal, "final_assessment", interviewID),
	}
	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}

	if err := s.store.UpsertFeedback(ctx, feedback); err != nil {
		return "", fmt.Errorf("failed to save feedback: %w", err)
	}

	return feedback.ID, nil
}

// textOrPlaceholder keeps model text that carries meaningful content and
// substitutes the placeholder otherwise. Substitution is logged but never
// fails the generation.
func textOrPlaceholder(text string, minLen int, placeholder, field, interviewID string) string {
	if len(strings.TrimSpace(text)) >= minLen {
		return text
	}
	slog.Warn("Feedback field too short, substituting placeholder",
		"field", field, "length", len(strings.TrimSpace(text)), "interview_id", interviewID)
	return placeholder
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clampCategoryScores(scores models.CategoryScores) models.CategoryScores {
	return models.CategoryScores{
		CommunicationSkills:  clampScore(scores.CommunicationSkills),
		TechnicalKnowledge:   clampScore(scores.TechnicalKnowledge),
		ProblemSolving:       clampScore(scores.ProblemSolving),
		CulturalFit:          clampScore(scores.CulturalFit),
		ConfidenceAndClarity: clampScore(scores.ConfidenceAndClarity),
	}
}

// normalizeInterviewType maps free-form setup input onto the stored enum
func normalizeInterviewType(interviewType string) string {
	switch strings.ToLower(strings.TrimSpace(interviewType)) {
	case "technical":
		return models.InterviewTypeTechnical
	case "behavioral", "behavioural":
		return models.InterviewTypeBehavioral
	default:
		return models.InterviewTypeMixed
	}
}
