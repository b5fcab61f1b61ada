package profile

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"tafahom/internal/llm"
	"tafahom/internal/ports"
	"tafahom/internal/prompts"
)

func criteriaJSON(scores []int) string {
	parts := make([]string, len(scores))
	for i, score := range scores {
		parts[i] = fmt.Sprintf(`{"name": %q, "score": %d, "comment": "ok"}`, Criteria[i], score)
	}
	return strings.Join(parts, ",")
}

func TestCompositeScore(t *testing.T) {
	t.Parallel()

	scores := []int{7, 8, 6, 9, 5, 7, 8, 6, 7, 8}
	criteria := make([]Criterion, len(scores))
	for i, score := range scores {
		criteria[i] = Criterion{Name: Criteria[i], Score: score}
	}

	// sum=71, mean 7.1 → 71/100
	if got := CompositeScore(criteria); got != 71 {
		t.Fatalf("CompositeScore = %d, want 71", got)
	}
}

func TestCompositeScoreRounds(t *testing.T) {
	t.Parallel()

	criteria := []Criterion{{Score: 7}, {Score: 8}} // mean 7.5 → 75
	if got := CompositeScore(criteria); got != 75 {
		t.Fatalf("CompositeScore = %d, want 75", got)
	}
	if got := CompositeScore(nil); got != 0 {
		t.Fatalf("CompositeScore(nil) = %d, want 0", got)
	}
}

func TestDecodeDocumentBackfillsMissingScore(t *testing.T) {
	t.Parallel()

	text := "```json\n{\"profile\": {\"criteria\": [" + criteriaJSON([]int{7, 8, 6, 9, 5, 7, 8, 6, 7, 8}) +
		"], \"summary\": \"Synthèse.\"}}\n```"

	doc, err := DecodeDocument(text)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if doc.Profile.IASScore != 71 {
		t.Fatalf("back-filled IAS = %d, want 71", doc.Profile.IASScore)
	}
	if len(doc.Profile.Criteria) != 10 {
		t.Fatalf("criteria count = %d, want 10", len(doc.Profile.Criteria))
	}
}

func TestDecodeDocumentTrustsSuppliedScore(t *testing.T) {
	t.Parallel()

	// The supplied score deliberately disagrees with the criteria mean.
	text := `{"profile": {"criteria": [{"name": "Capital objectivé", "score": 2, "comment": ""}], "ias_score": 90, "summary": ""}}`

	doc, err := DecodeDocument(text)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if doc.Profile.IASScore != 90 {
		t.Fatalf("IAS = %d, want the supplied 90", doc.Profile.IASScore)
	}
}

func TestDecodeDocumentRejectsProse(t *testing.T) {
	t.Parallel()

	if _, err := DecodeDocument("Je ne peux pas générer de profil."); err == nil {
		t.Fatal("DecodeDocument accepted prose without JSON")
	}
}

func TestGenerateBuildsRubricConversation(t *testing.T) {
	t.Parallel()

	loader, err := prompts.NewLoader()
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	payload := `{"profile": {"criteria": [{"name": "Capital objectivé", "score": 7, "comment": "solide"}], "ias_score": 70, "summary": "Synthèse."}}`
	mock := llm.NewMockClient("```json\n" + payload + "\n```")
	generator := NewGenerator(mock, loader)

	transcript := []ports.Message{
		{Role: ports.RoleAssistant, Content: "Bonjour !"},
		{Role: ports.RoleUser, Content: "Je suis conteur."},
	}
	doc, err := generator.Generate(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc.Profile.IASScore != 70 {
		t.Fatalf("IAS = %d, want 70", doc.Profile.IASScore)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("completion calls = %d, want 1", mock.CallCount())
	}
	req := mock.Requests[0]
	if req.Temperature != 0.3 || req.MaxTokens != 2000 {
		t.Fatalf("sampling = (%.1f, %d), want (0.3, 2000)", req.Temperature, req.MaxTokens)
	}
	if len(req.Messages) != len(transcript)+2 {
		t.Fatalf("message count = %d, want %d", len(req.Messages), len(transcript)+2)
	}
	if req.Messages[0].Role != ports.RoleSystem {
		t.Fatalf("first message role = %q, want system rubric", req.Messages[0].Role)
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != ports.RoleUser || !strings.Contains(last.Content, "profil complet") {
		t.Fatalf("final instruction missing, got %q", last.Content)
	}
}
