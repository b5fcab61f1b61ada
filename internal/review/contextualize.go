package review

import (
	"context"
	"fmt"

	"tafahom/internal/logging"
	"tafahom/internal/observability"
	"tafahom/internal/ports"
	"tafahom/internal/profile"
	"tafahom/internal/prompts"
	jsonx "tafahom/internal/shared/json"
)

const (
	contextualizeTemperature = 0.5
	contextualizeMaxTokens   = 2500
	contextualizeTopP        = 0.9
)

const contextualizeInstruction = "Contextualise chaque question en présentant d'abord les éléments pertinents " +
	"du profil puis en posant la question adaptée. Retourne uniquement le JSON structuré."

// Contextualize rewrites the base question bank against a loaded profile.
// The review proceeds on the generic bank when the model cannot help, so any
// failure degrades to the default context for all ten criteria instead of
// propagating an error.
func Contextualize(ctx context.Context, client ports.LLMClient, loader *prompts.Loader, doc *profile.Document) []ContextualQuestion {
	logger := logging.NewComponentLogger("Contextualize")

	questions, err := contextualize(ctx, client, loader, doc)
	if err != nil {
		logger.Warn("contextualization failed, using base questions: %v", err)
		return DefaultQuestions()
	}
	return questions
}

func contextualize(ctx context.Context, client ports.LLMClient, loader *prompts.Loader, doc *profile.Document) ([]ContextualQuestion, error) {
	system, err := loader.Get("contextualize_system")
	if err != nil {
		return nil, err
	}

	profileContext, err := jsonx.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	type pair struct {
		Criterion    string `json:"criterion"`
		BaseQuestion string `json:"base_question"`
	}
	pairs := make([]pair, len(profile.Criteria))
	for i, criterion := range profile.Criteria {
		pairs[i] = pair{Criterion: criterion, BaseQuestion: BaseQuestions[i]}
	}
	criteriaContext, err := jsonx.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return nil, err
	}

	user := fmt.Sprintf(
		"Voici le profil d'un porteur de projet culturel:\n\n%s\n\nEt voici les critères et questions de base pour l'évaluation financière:\n\n%s\n\n%s",
		profileContext, criteriaContext, contextualizeInstruction)

	resp, err := client.Complete(ctx, ports.CompletionRequest{
		Messages: []ports.Message{
			{Role: ports.RoleSystem, Content: system},
			{Role: ports.RoleUser, Content: user},
		},
		Temperature: contextualizeTemperature,
		MaxTokens:   contextualizeMaxTokens,
		TopP:        contextualizeTopP,
	})
	if err != nil {
		return nil, err
	}

	var wire struct {
		Questions []ContextualQuestion `json:"questions"`
	}
	if err := jsonx.DecodeObject(resp.Content, &wire); err != nil {
		observability.ExtractionFailures.Inc()
		return nil, fmt.Errorf("extract contextual questions: %w", err)
	}
	if len(wire.Questions) == 0 {
		return nil, fmt.Errorf("contextualization returned no questions")
	}
	return wire.Questions, nil
}

// DefaultQuestions is the non-contextualized fallback bank.
func DefaultQuestions() []ContextualQuestion {
	questions := make([]ContextualQuestion, len(profile.Criteria))
	for i, criterion := range profile.Criteria {
		questions[i] = ContextualQuestion{
			Criterion: criterion,
			Context:   fmt.Sprintf("Évaluez le porteur sur son %s.", criterion),
			Question:  BaseQuestions[i],
		}
	}
	return questions
}
