package callsession

import (
	"context"
	"fmt"
	"strings"
)

// Role identifies the speaker of a transcript turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one finalized utterance attributed to a speaker role. Turns are
// held in memory for the duration of a call and consumed wholesale when
// generating feedback; they are never persisted standalone.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// EventType names the asynchronous events emitted by the voice-session
// service
type EventType string

const (
	EventCallStart   EventType = "call-start"
	EventCallEnd     EventType = "call-end"
	EventMessage     EventType = "message"
	EventSpeechStart EventType = "speech-start"
	EventSpeechEnd   EventType = "speech-end"
	EventError       EventType = "error"
)

// TranscriptType distinguishes interim transcripts from finalized ones. Only
// final transcripts are authoritative; partial ones are ignored.
type TranscriptType string

const (
	TranscriptPartial TranscriptType = "partial"
	TranscriptFinal   TranscriptType = "final"
)

// Event is a single notification from the voice-session service
type Event struct {
	Type           EventType
	Role           Role
	Transcript     string
	TranscriptType TranscriptType
	Err            error
}

// Subscription is an explicit handle on the voice service's event stream.
// Close must be safe to call more than once; the session guarantees it is
// closed on teardown so listeners never leak across repeated session starts.
type Subscription interface {
	Events() <-chan Event
	Close()
}

// VoiceService is the real-time voice-session collaborator. Start and Stop
// are requests only: the service confirms lifecycle changes through its event
// stream, and the call-end event is the sole authoritative end-of-call
// signal.
type VoiceService interface {
	Start(ctx context.Context, req CallRequest) error
	Stop(ctx context.Context) error
	Subscribe() Subscription
}

// CallRequest carries everything the voice service needs to configure the
// interviewer assistant for one call
type CallRequest struct {
	UserName  string
	Questions []string // Scripted interviews: the pre-generated question list
	Setup     *Setup   // Dynamic interviews: the setup form parameters
}

// Setup holds the parameters collected before a dynamically generated
// interview
type Setup struct {
	InterviewType   string `json:"interview_type"` // Technical, Behavioral, Mixed
	Role            string `json:"role"`
	ExperienceLevel string `json:"experience_level"` // Entry Level, Middle, Senior
	CompanyName     string `json:"company_name,omitempty"`
	TechStack       string `json:"tech_stack,omitempty"` // Free text, comma separated
	QuestionCount   int    `json:"question_count"`
}

// Validate reports the first missing required field. A failed validation is
// recoverable: the caller returns to collecting input, no session is started.
func (s *Setup) Validate() error {
	switch {
	case s == nil:
		return fmt.Errorf("setup parameters are required")
	case strings.TrimSpace(s.InterviewType) == "":
		return fmt.Errorf("interview type is required")
	case strings.TrimSpace(s.Role) == "":
		return fmt.Errorf("role is required")
	case strings.TrimSpace(s.ExperienceLevel) == "":
		return fmt.Errorf("experience level is required")
	case s.QuestionCount <= 0:
		return fmt.Errorf("question count must be positive")
	}
	return nil
}
