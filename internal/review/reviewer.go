package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tafahom/internal/logging"
	"tafahom/internal/ports"
	"tafahom/internal/profile"
	"tafahom/internal/prompts"
	"tafahom/internal/store"
)

// Reviewer phases. Like the portal, the machine only moves forward.
const (
	PhaseIntroduction = "introduction"
	PhaseReview       = "review"
	PhaseQuestions    = "questions"
	PhaseSummary      = "summary"
)

var (
	ErrNoProfile    = errors.New("no profile loaded")
	ErrNotReviewing = errors.New("review not started")
	ErrNoEvaluation = errors.New("evaluation not generated yet")
)

// ValidationError reports the criteria whose answers are still empty. It is
// raised locally, before any completion call.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("veuillez répondre à toutes les questions (manquantes: %s)",
		strings.Join(e.Missing, ", "))
}

// Reviewer drives the financial review of one artist profile: load, ask the
// contextualized questions, collect scored answers, evaluate and enrich.
type Reviewer struct {
	client   ports.LLMClient
	prompts  *prompts.Loader
	profiles store.ProfileStore
	logger   logging.Logger

	phase      string
	id         string
	doc        *profile.Document
	questions  []ContextualQuestion
	responses  []Response
	evaluation *profile.EvaluationDocument
	enriched   *profile.EnrichedDocument
}

// NewReviewer wires a reviewer to a completion client, prompt loader and
// profile store.
func NewReviewer(client ports.LLMClient, loader *prompts.Loader, profiles store.ProfileStore) *Reviewer {
	return &Reviewer{
		client:   client,
		prompts:  loader,
		profiles: profiles,
		logger:   logging.NewComponentLogger("Reviewer"),
		phase:    PhaseIntroduction,
	}
}

// Phase returns the current phase name.
func (r *Reviewer) Phase() string { return r.phase }

// ID returns the identifier of the loaded profile.
func (r *Reviewer) ID() string { return r.id }

// Profile returns the loaded profile document, nil before LoadProfile.
func (r *Reviewer) Profile() *profile.Document { return r.doc }

// Evaluation returns the generated evaluation, nil before Evaluate.
func (r *Reviewer) Evaluation() *profile.EvaluationDocument { return r.evaluation }

// Enriched returns the enriched profile, nil before Enrich.
func (r *Reviewer) Enriched() *profile.EnrichedDocument { return r.enriched }

// ListProfiles returns the identifiers available for review.
func (r *Reviewer) ListProfiles() ([]string, error) {
	return r.profiles.List()
}

// LoadProfile loads the profile for the given identifier and moves to the
// review phase. A miss carries the available identifiers in the error.
func (r *Reviewer) LoadProfile(id string) (*profile.Document, error) {
	doc, err := r.profiles.LoadProfile(id)
	if err != nil {
		return nil, err
	}
	r.id = id
	r.doc = doc
	r.phase = PhaseReview
	r.logger.Info("profile %s loaded, IAS %d", id, doc.Profile.IASScore)
	return doc, nil
}

// BeginQuestions contextualizes the question bank against the loaded profile
// and moves to the questions phase. Contextualization never blocks the
// review: on failure the base questions are used as-is.
func (r *Reviewer) BeginQuestions(ctx context.Context) ([]ContextualQuestion, error) {
	if r.doc == nil {
		return nil, ErrNoProfile
	}
	r.questions = Contextualize(ctx, r.client, r.prompts, r.doc)
	r.responses = make([]Response, len(r.questions))
	r.phase = PhaseQuestions
	return r.questions, nil
}

// Questions returns the contextualized question form.
func (r *Reviewer) Questions() []ContextualQuestion { return r.questions }

// editable reports whether the answer form can still change. A failed
// evaluation leaves the form open so the operator can amend and retry.
func (r *Reviewer) editable() bool {
	return r.phase == PhaseQuestions || (r.phase == PhaseSummary && r.evaluation == nil)
}

// SetResponse records the answer to question i. Answers stay editable until
// the evaluation is generated.
func (r *Reviewer) SetResponse(i int, response Response) error {
	if !r.editable() {
		return ErrNotReviewing
	}
	if i < 0 || i >= len(r.responses) {
		return fmt.Errorf("question index %d out of range", i)
	}
	r.responses[i] = response
	return nil
}

// Responses returns the answers recorded so far.
func (r *Reviewer) Responses() []Response {
	out := make([]Response, len(r.responses))
	copy(out, r.responses)
	return out
}

// Submit validates the form and moves to the summary phase. Every question
// needs a non-empty analysis; validation happens locally and nothing is sent
// anywhere on failure. Resubmitting from the summary phase is allowed as long
// as no evaluation was generated.
func (r *Reviewer) Submit() error {
	if !r.editable() {
		return ErrNotReviewing
	}
	var missing []string
	for i, response := range r.responses {
		if strings.TrimSpace(response.Text) == "" {
			missing = append(missing, r.questions[i].Criterion)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	r.phase = PhaseSummary
	return nil
}

// Evaluate generates the financial evaluation from the submitted answers.
// The result is cached: a second call returns the same evaluation.
func (r *Reviewer) Evaluate(ctx context.Context) (*profile.EvaluationDocument, error) {
	if r.phase != PhaseSummary {
		return nil, ErrNotReviewing
	}
	if r.evaluation != nil {
		return r.evaluation, nil
	}
	evaluation, err := FinalEvaluation(ctx, r.client, r.prompts, r.doc, r.questions, r.responses)
	if err != nil {
		return nil, err
	}
	r.evaluation = evaluation
	r.logger.Info("profile %s evaluated: score %d, decision %q",
		r.id, evaluation.Evaluation.GlobalScore, evaluation.Evaluation.Decision)
	return evaluation, nil
}

// Enrich merges the profile and evaluation into an enriched profile and
// persists it under the enriched prefix.
func (r *Reviewer) Enrich(ctx context.Context) (*profile.EnrichedDocument, error) {
	if r.evaluation == nil {
		return nil, ErrNoEvaluation
	}
	if r.enriched != nil {
		return r.enriched, nil
	}
	enriched, err := EnrichProfile(ctx, r.client, r.prompts, r.doc, r.evaluation)
	if err != nil {
		return nil, err
	}
	if err := r.profiles.SaveEnriched(r.id, enriched); err != nil {
		return nil, fmt.Errorf("save enriched profile: %w", err)
	}
	r.enriched = enriched
	r.logger.Info("profile %s enriched: combined score %d", r.id, enriched.Profile.CombinedScore)
	return enriched, nil
}

// ScorePair lines up the portal's symbolic score with the reviewer's
// financial score for one criterion.
type ScorePair struct {
	Criterion string
	Symbolic  int
	Financial int
}

// Comparison pairs the two perspectives criterion by criterion, for the
// summary display. Valid once the evaluation exists.
func (r *Reviewer) Comparison() ([]ScorePair, error) {
	if r.evaluation == nil {
		return nil, ErrNoEvaluation
	}
	financial := make(map[string]int, len(r.evaluation.Evaluation.Criteria))
	for _, criterion := range r.evaluation.Evaluation.Criteria {
		financial[criterion.Name] = criterion.Score
	}
	pairs := make([]ScorePair, 0, len(r.doc.Profile.Criteria))
	for _, criterion := range r.doc.Profile.Criteria {
		pairs = append(pairs, ScorePair{
			Criterion: criterion.Name,
			Symbolic:  criterion.Score,
			Financial: financial[criterion.Name],
		})
	}
	return pairs, nil
}

// Reset abandons the current review and returns to the introduction phase.
func (r *Reviewer) Reset() {
	r.logger.Info("review of %s reset", r.id)
	r.phase = PhaseIntroduction
	r.id = ""
	r.doc = nil
	r.questions = nil
	r.responses = nil
	r.evaluation = nil
	r.enriched = nil
}
