package callsession

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle state of a call session
type State string

const (
	StateInactive   State = "inactive"
	StateConnecting State = "connecting"
	StateActive     State = "active"
	StateFinished   State = "finished"
)

const (
	// DefaultAutoEndGrace lets the interviewer's spoken closing message
	// finish before termination is requested
	DefaultAutoEndGrace = 3 * time.Second
)

// DefaultClosingPhrases are matched case-insensitively against assistant
// turns to detect the end of the interview. This is a heuristic; false
// positives and negatives are accepted.
var DefaultClosingPhrases = []string{
	"thank you for your time",
	"we'll be in touch",
	"that concludes our interview",
	"this ends our interview",
}

// Finalizer performs the downstream processing when a session finishes:
// creating the interview record for freshly generated interviews and
// generating feedback from the buffered transcript.
type Finalizer interface {
	CreateInterview(ctx context.Context, userID string, setup Setup) (string, error)
	GenerateFeedback(ctx context.Context, interviewID, userID, feedbackID string, transcript []Turn) (string, error)
}

// Destination is where the UI should navigate once a session reaches its
// terminal outcome
type Destination string

const (
	DestinationFeedback Destination = "feedback"
	DestinationHome     Destination = "home"
)

// Outcome is one of the two terminal signals a session yields: view the
// feedback for the resolved interview, or fall back to the safe default.
type Outcome struct {
	Destination Destination `json:"destination"`
	InterviewID string      `json:"interview_id,omitempty"`
}

// Params configures a session before it starts
type Params struct {
	UserID      string
	UserName    string
	InterviewID string   // Empty for freshly generated interviews
	FeedbackID  string   // Optional pre-allocated feedback identifier
	Questions   []string // Scripted question list, when InterviewID is set

	// Generate marks a session for a freshly generated interview: setup
	// parameters are required at start and the interview record is created
	// at finish
	Generate bool

	ClosingPhrases []string      // Defaults to DefaultClosingPhrases
	AutoEndGrace   time.Duration // Defaults to DefaultAutoEndGrace
}

// Session drives one voice-based interview attempt from connect to finish.
// It is the sole writer of the in-memory transcript and the sole trigger of
// interview and feedback creation; it performs no retries of its own.
type Session struct {
	voice     VoiceService
	finalizer Finalizer
	params    Params

	mu         sync.Mutex
	state      State
	transcript []Turn
	setup      *Setup
	autoEnding bool
	processing bool
	processed  bool // Idempotence guard for the finish pass
	speaking   bool
	sub        Subscription
	graceTimer *time.Timer

	outcome chan Outcome
	done    chan struct{}
}

// New creates an inactive session. The voice service and finalizer are
// injected so tests can substitute fakes.
func New(voice VoiceService, finalizer Finalizer, params Params) *Session {
	if len(params.ClosingPhrases) == 0 {
		params.ClosingPhrases = DefaultClosingPhrases
	}
	if params.AutoEndGrace <= 0 {
		params.AutoEndGrace = DefaultAutoEndGrace
	}

	return &Session{
		voice:     voice,
		finalizer: finalizer,
		params:    params,
		state:     StateInactive,
		outcome:   make(chan Outcome, 1),
		done:      make(chan struct{}),
	}
}

// Start begins the call. For generate-mode sessions the setup parameters must
// be present and valid; a validation failure leaves the session inactive and
// is recoverable. The session subscribes to the voice service's event stream
// before requesting the call so no events are missed.
func (s *Session) Start(ctx context.Context, setup *Setup) error {
	s.mu.Lock()
	if s.state != StateInactive {
		s.mu.Unlock()
		return fmt.Errorf("session already started (state %s)", s.state)
	}

	if s.params.Generate {
		if err := setup.Validate(); err != nil {
			s.mu.Unlock()
			slog.Warn("Call setup validation failed", "error", err, "user_id", s.params.UserID)
			return err
		}
		s.setup = setup
	}

	s.state = StateConnecting
	s.sub = s.voice.Subscribe()
	s.mu.Unlock()

	req := CallRequest{
		UserName:  s.params.UserName,
		Questions: s.params.Questions,
		Setup:     setup,
	}

	if err := s.voice.Start(ctx, req); err != nil {
		slog.Error("Failed to start voice session", "error", err, "user_id", s.params.UserID)
		s.mu.Lock()
		s.state = StateInactive
		sub := s.sub
		s.sub = nil
		s.mu.Unlock()
		if sub != nil {
			sub.Close()
		}
		return fmt.Errorf("failed to start voice session: %w", err)
	}

	go s.run()

	slog.Info("Call session starting", "user_id", s.params.UserID, "generate", s.params.Generate)
	return nil
}

// End requests termination of the underlying voice session. It does not
// itself transition the session to Finished: the service's call-end event is
// the sole authoritative trigger, which avoids racing the final transcript
// turns.
func (s *Session) End(ctx context.Context) error {
	return s.voice.Stop(ctx)
}

// Close tears the session down, guaranteeing the event subscription is
// released. In-flight finish processing is not aborted; its result is simply
// discarded if nobody is left to read the outcome.
func (s *Session) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the turns accumulated so far, in arrival
// order
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// AutoEnding reports whether end-of-interview phrasing was detected
func (s *Session) AutoEnding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoEnding
}

// Processing reports whether the post-call processing pass is running
func (s *Session) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// Speaking reports whether the interviewer is currently speaking
func (s *Session) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Outcome yields the terminal outcome of the session. The channel receives
// at most one value.
func (s *Session) Outcome() <-chan Outcome {
	return s.outcome
}

// Done is closed once the finish processing pass has completed
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// run is the single event loop for the session. The subscription is closed
// when the loop exits, whichever way it exits.
func (s *Session) run() {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()
	if sub == nil {
		return
	}
	defer sub.Close()

	for ev := range sub.Events() {
		switch ev.Type {
		case EventCallStart:
			s.mu.Lock()
			s.state = StateActive
			s.mu.Unlock()
			slog.Info("Call session established", "user_id", s.params.UserID)

		case EventMessage:
			s.handleMessage(ev)

		case EventSpeechStart:
			s.mu.Lock()
			s.speaking = true
			s.mu.Unlock()

		case EventSpeechEnd:
			s.mu.Lock()
			s.speaking = false
			s.mu.Unlock()

		case EventError:
			// Logged only: the service reports establishment and mid-call
			// failures as error events, and none of them force a transition
			slog.Error("Voice session error", "error", ev.Err, "user_id", s.params.UserID)

		case EventCallEnd:
			s.finish()
			return
		}
	}
}

// handleMessage appends finalized transcript turns in arrival order and runs
// the auto-end heuristic over assistant turns
func (s *Session) handleMessage(ev Event) {
	if ev.TranscriptType != TranscriptFinal {
		return
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, Turn{Role: ev.Role, Content: ev.Transcript})
	shouldSchedule := ev.Role == RoleAssistant && !s.autoEnding && s.matchesClosingPhrase(ev.Transcript)
	if shouldSchedule {
		s.autoEnding = true
	}
	s.mu.Unlock()

	if shouldSchedule {
		slog.Info("Closing phrase detected, scheduling auto-end",
			"user_id", s.params.UserID, "grace", s.params.AutoEndGrace)
		timer := time.AfterFunc(s.params.AutoEndGrace, func() {
			if err := s.voice.Stop(context.Background()); err != nil {
				slog.Error("Failed to auto-end voice session", "error", err, "user_id", s.params.UserID)
			}
		})
		s.mu.Lock()
		s.graceTimer = timer
		s.mu.Unlock()
	}
}

func (s *Session) matchesClosingPhrase(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range s.params.ClosingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// finish runs the single-shot processing pass on entry to Finished. The
// idempotence flag is set synchronously before any asynchronous work begins,
// so a duplicate call-end event cannot trigger two creation or feedback
// calls.
func (s *Session) finish() {
	s.mu.Lock()
	s.state = StateFinished
	if s.processed {
		s.mu.Unlock()
		return
	}
	s.processed = true
	s.processing = true
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	transcript := make([]Turn, len(s.transcript))
	copy(transcript, s.transcript)
	setup := s.setup
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
		close(s.done)
	}()

	ctx := context.Background()

	if len(transcript) == 0 {
		slog.Warn("Call finished with no conversation, skipping processing", "user_id", s.params.UserID)
		s.yield(Outcome{Destination: DestinationHome})
		return
	}

	interviewID := s.params.InterviewID
	if s.params.Generate {
		id, err := s.finalizer.CreateInterview(ctx, s.params.UserID, *setup)
		if err != nil {
			slog.Error("Failed to create interview record after call", "error", err, "user_id", s.params.UserID)
			s.yield(Outcome{Destination: DestinationHome})
			return
		}
		interviewID = id
	}

	if interviewID == "" {
		slog.Error("No interview identifier resolved for finished call", "user_id", s.params.UserID)
		s.yield(Outcome{Destination: DestinationHome})
		return
	}

	feedbackID, err := s.finalizer.GenerateFeedback(ctx, interviewID, s.params.UserID, s.params.FeedbackID, transcript)
	if err != nil {
		slog.Error("Failed to generate feedback after call", "error", err,
			"interview_id", interviewID, "user_id", s.params.UserID)
		s.yield(Outcome{Destination: DestinationHome})
		return
	}

	slog.Info("Call processing completed", "interview_id", interviewID,
		"feedback_id", feedbackID, "turns", len(transcript), "user_id", s.params.UserID)
	s.yield(Outcome{Destination: DestinationFeedback, InterviewID: interviewID})
}

func (s *Session) yield(outcome Outcome) {
	select {
	case s.outcome <- outcome:
	default:
		// An outcome was already delivered; the channel holds at most one
	}
}
