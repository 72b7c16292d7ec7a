package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prepwise/backend/callsession"
	"github.com/prepwise/backend/models"
	"github.com/prepwise/backend/repository"
)

var errInterviewNotFound = errors.New("interview not found")

// CallMessage is a client control frame on the call socket
type CallMessage struct {
	Type        string             `json:"type"` // start, end
	InterviewID string             `json:"interview_id,omitempty"`
	FeedbackID  string             `json:"feedback_id,omitempty"`
	Setup       *callsession.Setup `json:"setup,omitempty"`
}

// CallUpdate is a server frame pushed to the client while the call runs
type CallUpdate struct {
	Type       string               `json:"type"` // state, turn, outcome, error
	State      callsession.State    `json:"state,omitempty"`
	Turn       *callsession.Turn    `json:"turn,omitempty"`
	AutoEnding bool                 `json:"auto_ending,omitempty"`
	Outcome    *callsession.Outcome `json:"outcome,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// CallHandler hosts one call session per websocket connection, bridging
// client control frames to the session and session progress back to the
// client
type CallHandler struct {
	repo      *repository.GORMRepository
	finalizer callsession.Finalizer
	newVoice  func() callsession.VoiceService
	config    InterviewConfig
}

func NewCallHandler(repo *repository.GORMRepository, finalizer callsession.Finalizer, newVoice func() callsession.VoiceService, config InterviewConfig) *CallHandler {
	return &CallHandler{
		repo:      repo,
		finalizer: finalizer,
		newVoice:  newVoice,
		config:    config,
	}
}

// ServeCall upgrades the request and hands the connection to the handler.
// The caller supplies the upgrader so origin policy stays in one place.
func (h *CallHandler) ServeCall(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Call socket upgrade failed", "error", err)
		return
	}

	slog.Info("Call socket established", "user_id", user.ID, "email", user.Email)
	h.HandleConnection(r.Context(), conn, user)
}

// HandleConnection runs the control loop for one upgraded connection. It
// returns when the client disconnects; the deferred session Close releases
// the event subscription without aborting in-flight finish processing.
func (h *CallHandler) HandleConnection(ctx context.Context, conn *websocket.Conn, user *models.User) {
	defer conn.Close()

	var (
		writeMu sync.Mutex
		session *callsession.Session
	)
	send := func(update CallUpdate) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(update); err != nil {
			slog.Warn("Failed to push call update", "error", err, "user_id", user.ID)
		}
	}

	defer func() {
		if session != nil {
			session.Close()
		}
	}()

	for {
		var msg CallMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Call socket closed unexpectedly", "error", err, "user_id", user.ID)
			}
			return
		}

		switch msg.Type {
		case "start":
			if session != nil {
				send(CallUpdate{Type: "error", Error: "call already started"})
				continue
			}

			params, setup, err := h.buildParams(ctx, user, msg)
			if err != nil {
				send(CallUpdate{Type: "error", Error: err.Error()})
				continue
			}

			voice := h.newVoice()
			session = callsession.New(voice, h.finalizer, params)

			// The UI feed taps the same event stream the session consumes
			uiSub := voice.Subscribe()

			if err := session.Start(ctx, setup); err != nil {
				uiSub.Close()
				session = nil
				send(CallUpdate{Type: "error", Error: err.Error()})
				continue
			}

			go h.forwardEvents(uiSub, session, send)
			send(CallUpdate{Type: "state", State: session.State()})

		case "end":
			if session == nil {
				send(CallUpdate{Type: "error", Error: "no call in progress"})
				continue
			}
			if err := session.End(ctx); err != nil {
				slog.Error("Failed to end call", "error", err, "user_id", user.ID)
				send(CallUpdate{Type: "error", Error: "failed to end call"})
			}

		default:
			send(CallUpdate{Type: "error", Error: "unknown message type"})
		}
	}
}

// buildParams resolves the session parameters: an existing interview brings
// its scripted questions, otherwise the session runs in generate mode from
// the setup form
func (h *CallHandler) buildParams(ctx context.Context, user *models.User, msg CallMessage) (callsession.Params, *callsession.Setup, error) {
	params := callsession.Params{
		UserID:         user.ID,
		UserName:       user.FullName,
		FeedbackID:     msg.FeedbackID,
		ClosingPhrases: h.config.ClosingPhrases,
		AutoEndGrace:   h.config.AutoEndGrace,
	}

	if msg.InterviewID == "" {
		params.Generate = true
		return params, msg.Setup, nil
	}

	interview, err := h.repo.GetInterviewByID(ctx, msg.InterviewID)
	if err != nil {
		return params, nil, err
	}
	if interview == nil || interview.UserID != user.ID {
		return params, nil, errInterviewNotFound
	}

	params.InterviewID = interview.ID
	params.Questions = interview.Questions
	return params, nil, nil
}

// forwardEvents mirrors call progress to the client until the session
// delivers its outcome
func (h *CallHandler) forwardEvents(sub callsession.Subscription, session *callsession.Session, send func(CallUpdate)) {
	defer sub.Close()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			switch ev.Type {
			case callsession.EventCallStart:
				send(CallUpdate{Type: "state", State: callsession.StateActive})
			case callsession.EventMessage:
				if ev.TranscriptType == callsession.TranscriptFinal {
					send(CallUpdate{
						Type:       "turn",
						Turn:       &callsession.Turn{Role: ev.Role, Content: ev.Transcript},
						AutoEnding: session.AutoEnding(),
					})
				}
			}

		case outcome := <-session.Outcome():
			send(CallUpdate{Type: "state", State: callsession.StateFinished})
			send(CallUpdate{Type: "outcome", Outcome: &outcome})
			return
		}
	}
}
