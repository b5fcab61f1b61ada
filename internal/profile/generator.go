package profile

import (
	"context"
	"fmt"
	"math"

	"tafahom/internal/logging"
	"tafahom/internal/observability"
	"tafahom/internal/ports"
	"tafahom/internal/prompts"
	jsonx "tafahom/internal/shared/json"
)

const (
	generateTemperature = 0.3
	generateMaxTokens   = 2000
	generateTopP        = 0.9

	finalInstruction = "Maintenant, analyse notre conversation et génère le profil complet avec " +
		"l'évaluation des 10 critères et le score IAS global comme demandé. Retourne uniquement le JSON structuré."
)

// Generator turns a finished interview transcript into a Profile by asking
// the completion service to apply the rubric.
type Generator struct {
	client  ports.LLMClient
	prompts *prompts.Loader
	logger  logging.Logger
}

// NewGenerator wires a generator to a completion client and prompt loader.
func NewGenerator(client ports.LLMClient, loader *prompts.Loader) *Generator {
	return &Generator{
		client:  client,
		prompts: loader,
		logger:  logging.NewComponentLogger("ProfileGenerator"),
	}
}

// Generate builds [rubric] + transcript + [final instruction], invokes the
// completion service once, and extracts the structured profile. The only
// local repair is back-filling a missing composite score; an otherwise
// incomplete payload is passed through as-is.
func (g *Generator) Generate(ctx context.Context, transcript []ports.Message) (*Document, error) {
	rubric, err := g.prompts.Get("profile_rubric")
	if err != nil {
		return nil, err
	}

	messages := make([]ports.Message, 0, len(transcript)+2)
	messages = append(messages, ports.Message{Role: ports.RoleSystem, Content: rubric})
	messages = append(messages, transcript...)
	messages = append(messages, ports.Message{Role: ports.RoleUser, Content: finalInstruction})

	resp, err := g.client.Complete(ctx, ports.CompletionRequest{
		Messages:    messages,
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
		TopP:        generateTopP,
	})
	if err != nil {
		return nil, err
	}

	doc, err := DecodeDocument(resp.Content)
	if err != nil {
		observability.ExtractionFailures.Inc()
		g.logger.Warn("profile extraction failed: %v", err)
		return nil, fmt.Errorf("extract profile payload: %w", err)
	}

	g.logger.Info("profile generated: %d criteria, IAS %d", len(doc.Profile.Criteria), doc.Profile.IASScore)
	return doc, nil
}

// DecodeDocument parses a profile payload out of raw model text, computing
// the composite score only when the payload omits it.
func DecodeDocument(text string) (*Document, error) {
	var wire struct {
		Profile struct {
			Criteria []Criterion `json:"criteria"`
			IASScore *int        `json:"ias_score"`
			Summary  string      `json:"summary"`
		} `json:"profile"`
	}
	if err := jsonx.DecodeObject(text, &wire); err != nil {
		return nil, err
	}

	doc := &Document{Profile: Profile{
		Criteria: wire.Profile.Criteria,
		Summary:  wire.Profile.Summary,
	}}
	if wire.Profile.IASScore != nil {
		// A model-supplied score is trusted as-is, even when it disagrees
		// with its own criteria list.
		doc.Profile.IASScore = *wire.Profile.IASScore
	} else {
		doc.Profile.IASScore = CompositeScore(wire.Profile.Criteria)
	}
	return doc, nil
}

// CompositeScore is the fallback IAS: the rounded mean of the criterion
// scores scaled to 0-100.
func CompositeScore(criteria []Criterion) int {
	if len(criteria) == 0 {
		return 0
	}
	sum := 0
	for _, criterion := range criteria {
		sum += criterion.Score
	}
	return int(math.Round(float64(sum) * 10 / float64(len(criteria))))
}
