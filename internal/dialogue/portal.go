package dialogue

import (
	"context"
	"errors"
	"fmt"

	tafahomerrors "tafahom/internal/errors"
	"tafahom/internal/logging"
	"tafahom/internal/ports"
	"tafahom/internal/profile"
	"tafahom/internal/prompts"
	"tafahom/internal/store"
	"tafahom/internal/utils/id"
)

// Portal phases. The machine only moves forward; Reset starts a new session.
const (
	PhaseIntroduction = "introduction"
	PhaseConversation = "conversation"
	PhaseProfile      = "profile"
)

const (
	replyTemperature = 0.7
	replyMaxTokens   = 800
	replyTopP        = 0.9

	// Greeting doubles as question one of the plan.
	greeting = "Bonjour ! Je suis ravi de faire votre connaissance. Pour mieux comprendre " +
		"votre démarche artistique, pourriez-vous me parler de vous et de votre pratique artistique ?"

	steeringFormat = "Après avoir répondu à l'utilisateur, pose-lui la question suivante: %s"
)

// CompletionNotice is shown once the interview plan is exhausted.
const CompletionNotice = "Nous avons couvert tous les aspects nécessaires pour comprendre votre projet. Merci pour vos réponses."

var (
	ErrNotStarted        = errors.New("conversation not started")
	ErrAlreadyStarted    = errors.New("conversation already started")
	ErrInterviewOngoing  = errors.New("interview still in progress")
	ErrInterviewComplete = errors.New("interview already complete")
	ErrProfileGenerated  = errors.New("profile already generated")
)

// Portal drives an artist interview from greeting to profile. It owns the
// conversation identifier, the message history, the transcript file and the
// question schedule.
type Portal struct {
	id          string
	phase       string
	client      ports.LLMClient
	prompts     *prompts.Loader
	generator   *profile.Generator
	profiles    store.ProfileStore
	transcripts store.TranscriptStore
	schedule    *Schedule
	history     []ports.Message
	doc         *profile.Document
	logger      logging.Logger
}

// NewPortal mints a session identifier and creates the transcript file.
func NewPortal(client ports.LLMClient, loader *prompts.Loader, profiles store.ProfileStore, transcripts store.TranscriptStore) (*Portal, error) {
	p := &Portal{
		client:      client,
		prompts:     loader,
		generator:   profile.NewGenerator(client, loader),
		profiles:    profiles,
		transcripts: transcripts,
		logger:      logging.NewComponentLogger("Portal"),
	}
	if err := p.begin(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Portal) begin() error {
	p.id = id.NewConversationID()
	p.phase = PhaseIntroduction
	p.schedule = NewSchedule(PortalQuestions)
	p.history = nil
	p.doc = nil
	if err := p.transcripts.Create(p.id); err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	p.logger.Info("session %s opened", p.id)
	return nil
}

// ID returns the session identifier, shared by the transcript and profile files.
func (p *Portal) ID() string { return p.id }

// Phase returns the current phase name.
func (p *Portal) Phase() string { return p.phase }

// QuestionsAsked reports interview progress as (asked, total).
func (p *Portal) QuestionsAsked() (int, int) {
	return p.schedule.Asked(), p.schedule.Len()
}

// Ended reports whether the interview plan is exhausted.
func (p *Portal) Ended() bool {
	return p.schedule.Exhausted()
}

// History returns the conversation so far, greeting included.
func (p *Portal) History() []ports.Message {
	out := make([]ports.Message, len(p.history))
	copy(out, p.history)
	return out
}

// Profile returns the generated document, or nil before generation.
func (p *Portal) Profile() *profile.Document { return p.doc }

// Start moves the session into conversation and returns the greeting, which
// consumes the first question of the plan.
func (p *Portal) Start() (string, error) {
	if p.phase != PhaseIntroduction {
		return "", ErrAlreadyStarted
	}
	p.phase = PhaseConversation
	p.schedule.Next()
	p.record(ports.RoleAssistant, greeting)
	return greeting, nil
}

// Reply processes one user turn. It draws the next question from the
// schedule before calling the completion service, so the question counts as
// asked whatever the service does. When the transport fails, the returned
// text is a French apology that is also recorded as the assistant turn, and
// the error is returned alongside it so the caller can surface it.
// done is true once the interview plan is exhausted.
func (p *Portal) Reply(ctx context.Context, userInput string) (text string, done bool, err error) {
	if p.phase != PhaseConversation {
		return "", false, ErrNotStarted
	}
	if p.schedule.Exhausted() {
		return "", true, ErrInterviewComplete
	}

	p.record(ports.RoleUser, userInput)
	nextQuestion, more := p.schedule.Next()

	system, err := p.prompts.Get("portal_system")
	if err != nil {
		return "", false, err
	}

	messages := make([]ports.Message, 0, len(p.history)+2)
	messages = append(messages, ports.Message{Role: ports.RoleSystem, Content: system})
	messages = append(messages, p.history...)
	if more {
		messages = append(messages, ports.Message{
			Role:    ports.RoleSystem,
			Content: fmt.Sprintf(steeringFormat, nextQuestion),
		})
	}

	resp, err := p.client.Complete(ctx, ports.CompletionRequest{
		Messages:    messages,
		Temperature: replyTemperature,
		MaxTokens:   replyMaxTokens,
		TopP:        replyTopP,
	})
	if err != nil {
		apology := tafahomerrors.FormatForUser(err)
		p.record(ports.RoleAssistant, apology)
		return apology, p.schedule.Exhausted(), err
	}

	p.record(ports.RoleAssistant, resp.Content)
	return resp.Content, p.schedule.Exhausted(), nil
}

// GenerateProfile runs the rubric over the finished interview, persists the
// document under the session identifier and moves to the profile phase. It
// is valid exactly once, after the last question has been drawn.
func (p *Portal) GenerateProfile(ctx context.Context) (*profile.Document, error) {
	if p.phase == PhaseProfile {
		return nil, ErrProfileGenerated
	}
	if p.phase != PhaseConversation {
		return nil, ErrNotStarted
	}
	if !p.schedule.Exhausted() {
		return nil, ErrInterviewOngoing
	}

	doc, err := p.generator.Generate(ctx, p.history)
	if err != nil {
		return nil, err
	}
	if err := p.profiles.SaveProfile(p.id, doc); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	p.doc = doc
	p.phase = PhaseProfile
	p.logger.Info("session %s: profile saved, IAS %d", p.id, doc.Profile.IASScore)
	return doc, nil
}

// Export renders the generated profile in the requested format.
func (p *Portal) Export(format string) (string, error) {
	if p.doc == nil {
		return "", errors.New("no profile generated yet")
	}
	return profile.Export(p.doc, format)
}

// Reset abandons the session and opens a fresh one with a new identifier.
func (p *Portal) Reset() error {
	p.logger.Info("session %s reset", p.id)
	return p.begin()
}

func (p *Portal) record(role, content string) {
	p.history = append(p.history, ports.Message{Role: role, Content: content})
	if err := p.transcripts.Append(p.id, role, content); err != nil {
		// The in-memory conversation keeps going; the transcript is a trace.
		p.logger.Warn("append transcript %s: %v", p.id, err)
	}
}
