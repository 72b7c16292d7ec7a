package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prepwise/backend/models"
	"github.com/prepwise/backend/repository"
)

// QuestionGenerator produces the question list for a generated interview
type QuestionGenerator interface {
	GenerateInterviewQuestions(ctx context.Context, role, level, interviewType string, techstack []string, amount int) ([]string, error)
}

type InterviewEndpoints struct {
	repo      *repository.GORMRepository
	questions QuestionGenerator
	config    InterviewConfig
}

type GenerateInterviewRequest struct {
	Role      string `json:"role"`
	Type      string `json:"type"`
	Level     string `json:"level"`
	TechStack string `json:"techstack"`
	Amount    int    `json:"amount"`
	Company   string `json:"company,omitempty"`
}

func NewInterviewEndpoints(repo *repository.GORMRepository, questions QuestionGenerator, config InterviewConfig) *InterviewEndpoints {
	return &InterviewEndpoints{
		repo:      repo,
		questions: questions,
		config:    config,
	}
}

func (e *InterviewEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/interviews", func(r chi.Router) {
		r.Post("/generate", e.GenerateHandler)
		r.Get("/", e.ListHandler)
		r.Get("/latest", e.LatestHandler)
		r.Get("/{id}", e.GetHandler)
		r.Get("/{id}/feedback", e.FeedbackHandler)
		r.Post("/{id}/feedback/raw", e.RawFeedbackHandler)
	})
}

// GenerateHandler creates a scripted interview: the question list is
// generated up front and the record is eagerly finalized so it appears in
// listings before the call happens. A repeat submission inside the dedup
// window returns the existing interview with 200 rather than an error.
func (e *InterviewEndpoints) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req GenerateInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Role == "" || req.Type == "" {
		http.Error(w, "role and type are required", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		req.Amount = 5
	}

	techstack := models.SplitTechStack(req.TechStack)
	questions, err := e.questions.GenerateInterviewQuestions(r.Context(), req.Role, req.Level, req.Type, techstack, req.Amount)
	if err != nil {
		slog.Error("Question generation failed", "error", err, "user_id", user.ID, "role", req.Role)
		http.Error(w, "Failed to generate interview", http.StatusBadGateway)
		return
	}

	interview := &models.Interview{
		UserID:     user.ID,
		Role:       req.Role,
		Type:       normalizeInterviewType(req.Type),
		Level:      req.Level,
		TechStack:  techstack,
		Questions:  questions,
		Finalized:  true,
		Company:    req.Company,
		CoverImage: RandomInterviewCover(),
	}

	id, duplicate, err := e.repo.CreateInterviewDeduped(r.Context(), interview, e.config.DedupWindow)
	if err != nil {
		slog.Error("Interview creation failed", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create interview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"interview_id": id,
		"duplicate":    duplicate,
	})

	slog.Info("Interview generated", "interview_id", id, "user_id", user.ID, "duplicate", duplicate)
}

// ListHandler returns the current user's interviews, newest first
func (e *InterviewEndpoints) ListHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	interviews, err := e.repo.GetInterviewsByUserID(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to list interviews", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"interviews": interviews})
}

// LatestHandler returns finalized interviews owned by other users
func (e *InterviewEndpoints) LatestHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	interviews, err := e.repo.GetLatestInterviews(r.Context(), user.ID, limit)
	if err != nil {
		http.Error(w, "Failed to list interviews", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"interviews": interviews})
}

func (e *InterviewEndpoints) GetHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserFromContext(r.Context()); !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	interview, err := e.repo.GetInterviewByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get interview", http.StatusInternalServerError)
		return
	}
	if interview == nil {
		http.Error(w, "Interview not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"interview":  interview,
		"tech_logos": TechLogos(interview.TechStack),
	})
}

// RawFeedbackHandler accepts a raw AI evaluation for one interview and
// returns its structured form. Clients submit the model's output verbatim,
// whether it came back as JSON or free text.
func (e *InterviewEndpoints) RawFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Response == "" {
		http.Error(w, "response is required", http.StatusBadRequest)
		return
	}

	interviewID := chi.URLParam(r, "id")
	interview, err := e.repo.GetInterviewByID(r.Context(), interviewID)
	if err != nil {
		http.Error(w, "Failed to get interview", http.StatusInternalServerError)
		return
	}
	if interview == nil || interview.UserID != user.ID {
		http.Error(w, "Interview not found", http.StatusNotFound)
		return
	}

	draft := ParseFeedbackResponse(req.Response, interviewID, user.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"draft": draft})
}

// FeedbackHandler returns the current user's feedback for one interview
func (e *InterviewEndpoints) FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	feedback, err := e.repo.GetFeedbackByInterviewID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		http.Error(w, "Failed to get feedback", http.StatusInternalServerError)
		return
	}
	if feedback == nil {
		http.Error(w, "Feedback not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"feedback": feedback})
}
