package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/prepwise/backend/callsession"
)

const (
	interviewerFirstMessage = "Hello! Thank you for taking the time to speak with me today. I'm excited to learn more about you and your experience. Are you ready to begin?"

	interviewerSystemPrompt = `You are a professional job interviewer conducting a voice interview.

CRITICAL RULES:
1. Keep ALL responses under 15 words
2. Ask ONE question at a time, then WAIT for their answer
3. Give brief acknowledgments: "Good", "I see", "Understood", "Great"
4. NO long explanations or teaching
5. Move to the next question quickly
6. NEVER explain what they should have said

INTERVIEW FLOW:
%s

RESPONSE STYLE:
- Listen to their answer
- Give brief acknowledgment (1-3 words)
- Ask next question immediately
- Save detailed feedback for the END

End with: "Thank you for your time. We'll be in touch soon."`

	dynamicSystemPrompt = `You are conducting a %s interview for a %s position.

CONTEXT:
- Candidate: %s
- Role: %s
- Type: %s
- Tech Stack: %s

CRITICAL INTERVIEW RULES:
1. Keep responses under 15 words maximum
2. Ask ONE question, wait for full answer
3. Give brief acknowledgments only: "Good", "I see", "Thanks", "Understood"
4. NO teaching, explaining, or long feedback during interview
5. Move quickly between questions
6. NEVER correct their answers or give explanations

INTERVIEW PATTERN:
- Ask question (max 15 words)
- Listen to their complete answer
- Brief acknowledgment (1-3 words)
- Next question immediately

CLOSING:
When the question set is exhausted: "Thank you %s. We'll contact you with feedback soon."

Remember: This is evaluation, not education. Keep it moving!`
)

// assistantConfig is the provider's interviewer configuration payload
type assistantConfig struct {
	Name         string            `json:"name"`
	FirstMessage string            `json:"firstMessage"`
	Transcriber  transcriberConfig `json:"transcriber"`
	Voice        voiceConfig       `json:"voice"`
	Model        modelConfig       `json:"model"`
}

type transcriberConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

type voiceConfig struct {
	Provider        string  `json:"provider"`
	VoiceID         string  `json:"voiceId"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarityBoost"`
	Speed           float64 `json:"speed"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"useSpeakerBoost"`
}

type modelConfig struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Messages []modelMessage `json:"messages"`
}

type modelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type createCallRequest struct {
	Assistant          *assistantConfig   `json:"assistant,omitempty"`
	AssistantID        string             `json:"assistantId,omitempty"`
	AssistantOverrides *assistantConfig   `json:"assistantOverrides,omitempty"`
	WorkflowID         string             `json:"workflowId,omitempty"`
	WorkflowOverrides  *workflowOverrides `json:"workflowOverrides,omitempty"`
}

type workflowOverrides struct {
	VariableValues map[string]string `json:"variableValues,omitempty"`
}

type createCallResponse struct {
	ID      string `json:"id"`
	Monitor struct {
		ListenURL  string `json:"listenUrl"`
		ControlURL string `json:"controlUrl"`
	} `json:"monitor"`
}

// vapiEvent is one frame on the provider's monitor stream
type vapiEvent struct {
	Type           string `json:"type"`
	Role           string `json:"role,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	TranscriptType string `json:"transcriptType,omitempty"`
	Error          string `json:"error,omitempty"`
}

// VapiService drives real-time voice interview calls through the Vapi REST
// API and surfaces the monitor stream's lifecycle and transcript events. It
// implements callsession.VoiceService; Start and Stop are requests only and
// every lifecycle change is confirmed through the event stream.
type VapiService struct {
	client *resty.Client
	dialer *websocket.Dialer
	config VoiceConfig

	mu         sync.Mutex
	callID     string
	controlURL string
	conn       *websocket.Conn
	subs       map[*vapiSubscription]struct{}
}

func NewVapiService(config VoiceConfig) *VapiService {
	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetAuthToken(config.APIKey).
		SetHeader("Content-Type", "application/json")

	return &VapiService{
		client: client,
		dialer: websocket.DefaultDialer,
		config: config,
		subs:   make(map[*vapiSubscription]struct{}),
	}
}

type vapiSubscription struct {
	service *VapiService
	events  chan callsession.Event
	once    sync.Once
}

func (s *vapiSubscription) Events() <-chan callsession.Event { return s.events }

func (s *vapiSubscription) Close() {
	s.once.Do(func() {
		s.service.mu.Lock()
		delete(s.service.subs, s)
		s.service.mu.Unlock()
		close(s.events)
	})
}

// Subscribe registers a listener on the event stream. Subscriptions opened
// before Start receive every event of the next call.
func (v *VapiService) Subscribe() callsession.Subscription {
	sub := &vapiSubscription{
		service: v,
		events:  make(chan callsession.Event, 64),
	}
	v.mu.Lock()
	v.subs[sub] = struct{}{}
	v.mu.Unlock()
	return sub
}

// Start creates the provider call and attaches to its monitor stream
func (v *VapiService) Start(ctx context.Context, req callsession.CallRequest) error {
	v.mu.Lock()
	if v.conn != nil {
		v.mu.Unlock()
		return fmt.Errorf("a call is already in progress")
	}
	v.mu.Unlock()

	payload := v.buildCallRequest(req)

	var created createCallResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&created).
		Post("/call")
	if err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("call creation rejected: %s", resp.Status())
	}
	if created.Monitor.ListenURL == "" {
		return fmt.Errorf("call response missing monitor listen URL")
	}

	conn, _, err := v.dialer.DialContext(ctx, created.Monitor.ListenURL, nil)
	if err != nil {
		return fmt.Errorf("failed to attach to call monitor: %w", err)
	}

	v.mu.Lock()
	v.callID = created.ID
	v.controlURL = created.Monitor.ControlURL
	v.conn = conn
	v.mu.Unlock()

	go v.readLoop(conn)

	slog.Info("Voice call created", "call_id", created.ID)
	return nil
}

// Stop asks the provider to end the call. The call-end event arrives on the
// monitor stream once the provider confirms.
func (v *VapiService) Stop(ctx context.Context) error {
	v.mu.Lock()
	controlURL := v.controlURL
	callID := v.callID
	v.mu.Unlock()

	if controlURL == "" {
		return fmt.Errorf("no call in progress")
	}

	resp, err := v.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"type": "end-call"}).
		Post(controlURL)
	if err != nil {
		return fmt.Errorf("failed to request call end: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("call end rejected: %s", resp.Status())
	}

	slog.Info("Voice call end requested", "call_id", callID)
	return nil
}

// readLoop decodes monitor frames into session events until the stream
// closes. A closed stream without an explicit call-end frame still emits
// call-end, since the provider tears the monitor down when the call is over.
func (v *VapiService) readLoop(conn *websocket.Conn) {
	sawCallEnd := false

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !sawCallEnd {
				v.broadcast(callsession.Event{Type: callsession.EventCallEnd})
			}
			break
		}

		var raw vapiEvent
		if err := json.Unmarshal(data, &raw); err != nil {
			slog.Warn("Discarding unparseable monitor frame", "error", err)
			continue
		}

		event, ok := translateEvent(raw)
		if !ok {
			continue
		}
		if event.Type == callsession.EventCallEnd {
			sawCallEnd = true
		}
		v.broadcast(event)

		if sawCallEnd {
			break
		}
	}

	conn.Close()
	v.mu.Lock()
	v.conn = nil
	v.callID = ""
	v.controlURL = ""
	v.mu.Unlock()
}

func translateEvent(raw vapiEvent) (callsession.Event, bool) {
	event := callsession.Event{
		Role:           callsession.Role(raw.Role),
		Transcript:     raw.Transcript,
		TranscriptType: callsession.TranscriptType(raw.TranscriptType),
	}

	switch raw.Type {
	case "call-start":
		event.Type = callsession.EventCallStart
	case "call-end", "end-of-call-report":
		event.Type = callsession.EventCallEnd
	case "message", "transcript":
		event.Type = callsession.EventMessage
	case "speech-start":
		event.Type = callsession.EventSpeechStart
	case "speech-end":
		event.Type = callsession.EventSpeechEnd
	case "error":
		event.Type = callsession.EventError
		event.Err = fmt.Errorf("voice provider error: %s", raw.Error)
	default:
		return callsession.Event{}, false
	}

	return event, true
}

// broadcast fans an event out to every open subscription. Slow listeners
// drop events rather than stalling the read loop.
func (v *VapiService) broadcast(event callsession.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for sub := range v.subs {
		select {
		case sub.events <- event:
		default:
			slog.Warn("Dropping voice event for slow subscriber", "type", event.Type)
		}
	}
}

// buildCallRequest picks the call form: dynamic interviews run on the
// provider-hosted workflow when one is configured, scripted interviews reuse
// the provisioned assistant with per-call overrides, and either form falls
// back to a transient inline assistant
func (v *VapiService) buildCallRequest(req callsession.CallRequest) createCallRequest {
	if req.Setup != nil && v.config.WorkflowID != "" {
		return createCallRequest{
			WorkflowID: v.config.WorkflowID,
			WorkflowOverrides: &workflowOverrides{
				VariableValues: map[string]string{
					"username":  req.UserName,
					"role":      req.Setup.Role,
					"type":      req.Setup.InterviewType,
					"level":     req.Setup.ExperienceLevel,
					"techstack": req.Setup.TechStack,
					"amount":    strconv.Itoa(req.Setup.QuestionCount),
				},
			},
		}
	}

	assistant := buildAssistantConfig(req)
	if v.config.AssistantID != "" {
		return createCallRequest{
			AssistantID:        v.config.AssistantID,
			AssistantOverrides: &assistant,
		}
	}
	return createCallRequest{Assistant: &assistant}
}

// buildAssistantConfig assembles the interviewer assistant for one call:
// scripted interviews read the pre-generated question list, dynamic
// interviews interview freely from the setup parameters
func buildAssistantConfig(req callsession.CallRequest) assistantConfig {
	config := assistantConfig{
		Name:         "Interviewer",
		FirstMessage: interviewerFirstMessage,
		Transcriber: transcriberConfig{
			Provider: "deepgram",
			Model:    "nova-2",
			Language: "en",
		},
		Voice: voiceConfig{
			Provider:        "11labs",
			VoiceID:         "sarah",
			Stability:       0.4,
			SimilarityBoost: 0.8,
			Speed:           0.9,
			Style:           0.5,
			UseSpeakerBoost: true,
		},
		Model: modelConfig{
			Provider: "openai",
			Model:    "gpt-4",
		},
	}

	if req.Setup != nil {
		name := req.UserName
		if name == "" {
			name = "there"
		}
		config.Name = "Dynamic Interviewer"
		config.FirstMessage = fmt.Sprintf(
			"Hello %s! Thank you for joining me today for the %s interview. Are you ready to begin?",
			name, req.Setup.Role)
		config.Model.Messages = []modelMessage{{
			Role: "system",
			Content: fmt.Sprintf(dynamicSystemPrompt,
				req.Setup.InterviewType, req.Setup.Role,
				name, req.Setup.Role, req.Setup.InterviewType, req.Setup.TechStack,
				name),
		}}
		return config
	}

	var questions strings.Builder
	for _, question := range req.Questions {
		fmt.Fprintf(&questions, "- %s\n", question)
	}
	config.Model.Messages = []modelMessage{{
		Role:    "system",
		Content: fmt.Sprintf(interviewerSystemPrompt, questions.String()),
	}}
	return config
}
