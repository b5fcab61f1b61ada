package review

import (
	"context"
	"fmt"

	"tafahom/internal/observability"
	"tafahom/internal/ports"
	"tafahom/internal/profile"
	"tafahom/internal/prompts"
	jsonx "tafahom/internal/shared/json"
)

const (
	evaluationTemperature = 0.5
	evaluationMaxTokens   = 2000
	evaluationTopP        = 0.9
)

// formattedResponse is the shape the evaluation prompt expects per criterion.
type formattedResponse struct {
	Text            string `json:"text"`
	Score           int    `json:"score"`
	QuestionContext string `json:"question_context"`
	Question        string `json:"question"`
}

// FinalEvaluation combines the profile with the reviewer's answers into a
// structured financial evaluation.
func FinalEvaluation(ctx context.Context, client ports.LLMClient, loader *prompts.Loader,
	doc *profile.Document, questions []ContextualQuestion, responses []Response) (*profile.EvaluationDocument, error) {

	system, err := loader.Get("final_evaluation_system")
	if err != nil {
		return nil, err
	}

	profileContext, err := jsonx.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	formatted := make(map[string]formattedResponse, len(questions))
	for i, q := range questions {
		formatted[q.Criterion] = formattedResponse{
			Text:            responses[i].Text,
			Score:           responses[i].Score,
			QuestionContext: q.Context,
			Question:        q.Question,
		}
	}
	responsesContext, err := jsonx.MarshalIndent(formatted, "", "  ")
	if err != nil {
		return nil, err
	}

	user := fmt.Sprintf(
		"Voici le profil d'un porteur de projet culturel:\n\n%s\n\nEt voici les réponses de l'agent financier à des questions spécifiques sur ce profil:\n\n%s\n\nGénère maintenant une évaluation finale complète avec les 10 critères d'évaluation, un score global, une décision et des recommandations. Retourne uniquement le JSON structuré.",
		profileContext, responsesContext)

	resp, err := client.Complete(ctx, ports.CompletionRequest{
		Messages: []ports.Message{
			{Role: ports.RoleSystem, Content: system},
			{Role: ports.RoleUser, Content: user},
		},
		Temperature: evaluationTemperature,
		MaxTokens:   evaluationMaxTokens,
		TopP:        evaluationTopP,
	})
	if err != nil {
		return nil, err
	}

	var evaluation profile.EvaluationDocument
	if err := jsonx.DecodeObject(resp.Content, &evaluation); err != nil {
		observability.ExtractionFailures.Inc()
		return nil, fmt.Errorf("extract evaluation payload: %w", err)
	}
	return &evaluation, nil
}

// EnrichProfile merges the original profile with the financial evaluation
// into an updated profile carrying both perspectives.
func EnrichProfile(ctx context.Context, client ports.LLMClient, loader *prompts.Loader,
	doc *profile.Document, evaluation *profile.EvaluationDocument) (*profile.EnrichedDocument, error) {

	system, err := loader.Get("enriched_profile_system")
	if err != nil {
		return nil, err
	}

	profileContext, err := jsonx.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	evaluationContext, err := jsonx.MarshalIndent(evaluation, "", "  ")
	if err != nil {
		return nil, err
	}

	user := fmt.Sprintf(
		"Voici le profil original d'un porteur de projet culturel:\n\n%s\n\nEt voici l'évaluation financière de ce profil:\n\n%s\n\nGénère maintenant un profil enrichi qui intègre ces deux perspectives. Retourne uniquement le JSON structuré.",
		profileContext, evaluationContext)

	resp, err := client.Complete(ctx, ports.CompletionRequest{
		Messages: []ports.Message{
			{Role: ports.RoleSystem, Content: system},
			{Role: ports.RoleUser, Content: user},
		},
		Temperature: evaluationTemperature,
		MaxTokens:   evaluationMaxTokens,
		TopP:        evaluationTopP,
	})
	if err != nil {
		return nil, err
	}

	var enriched profile.EnrichedDocument
	if err := jsonx.DecodeObject(resp.Content, &enriched); err != nil {
		observability.ExtractionFailures.Inc()
		return nil, fmt.Errorf("extract enriched profile payload: %w", err)
	}
	return &enriched, nil
}
