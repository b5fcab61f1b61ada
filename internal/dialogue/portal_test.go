package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tafahomerrors "tafahom/internal/errors"
	"tafahom/internal/llm"
	"tafahom/internal/prompts"
	"tafahom/internal/store/filestore"
)

const profilePayload = "```json\n" +
	`{"profile": {"criteria": [{"name": "Capital objectivé", "score": 7, "comment": "solide"}], "ias_score": 70, "summary": "Synthèse."}}` +
	"\n```"

func newTestPortal(t *testing.T, mock *llm.MockClient) (*Portal, *filestore.Store) {
	t.Helper()
	loader, err := prompts.NewLoader()
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	files := filestore.New(t.TempDir())
	portal, err := NewPortal(mock, loader, files, files)
	if err != nil {
		t.Fatalf("NewPortal: %v", err)
	}
	return portal, files
}

func TestPortalFullInterview(t *testing.T) {
	t.Parallel()

	// Nine conversational replies, then the profile payload.
	responses := make([]string, 0, 10)
	for i := 1; i <= 9; i++ {
		responses = append(responses, fmt.Sprintf("Merci. Réponse %d.", i))
	}
	responses = append(responses, profilePayload)
	mock := llm.NewMockClient(responses...)

	portal, files := newTestPortal(t, mock)

	greeting, err := portal.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(greeting, "Bonjour !") {
		t.Fatalf("greeting = %q", greeting)
	}
	if asked, total := portal.QuestionsAsked(); asked != 1 || total != 10 {
		t.Fatalf("after Start: asked %d/%d, want 1/10", asked, total)
	}

	ctx := context.Background()
	for i := 1; i <= 9; i++ {
		reply, done, err := portal.Reply(ctx, fmt.Sprintf("Ma réponse %d.", i))
		if err != nil {
			t.Fatalf("Reply %d: %v", i, err)
		}
		if reply == "" {
			t.Fatalf("Reply %d returned empty text", i)
		}
		if wantDone := i == 9; done != wantDone {
			t.Fatalf("Reply %d: done = %v, want %v", i, done, wantDone)
		}
	}
	if _, _, err := portal.Reply(ctx, "Encore un mot."); !errors.Is(err, ErrInterviewComplete) {
		t.Fatalf("Reply after completion = %v, want ErrInterviewComplete", err)
	}
	if !portal.Ended() {
		t.Fatal("interview not ended after nine replies")
	}

	// The first turn steers toward question two.
	first := mock.Requests[0]
	last := first.Messages[len(first.Messages)-1]
	if !strings.Contains(last.Content, PortalQuestions[1]) {
		t.Fatalf("first steering instruction = %q, want question two", last.Content)
	}
	if first.Temperature != 0.7 || first.MaxTokens != 800 {
		t.Fatalf("sampling = (%.1f, %d), want (0.7, 800)", first.Temperature, first.MaxTokens)
	}

	doc, err := portal.GenerateProfile(ctx)
	if err != nil {
		t.Fatalf("GenerateProfile: %v", err)
	}
	if doc.Profile.IASScore != 70 {
		t.Fatalf("IAS = %d, want 70", doc.Profile.IASScore)
	}
	if portal.Phase() != PhaseProfile {
		t.Fatalf("phase = %q, want %q", portal.Phase(), PhaseProfile)
	}

	// Saved under the session id, discoverable by the agent side.
	ids, err := files.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 1 || ids[0] != portal.ID() {
		t.Fatalf("List = %v, want [%s]", ids, portal.ID())
	}

	if _, err := portal.GenerateProfile(ctx); !errors.Is(err, ErrProfileGenerated) {
		t.Fatalf("second GenerateProfile error = %v, want ErrProfileGenerated", err)
	}
}

func TestPortalGenerateBeforeEnd(t *testing.T) {
	t.Parallel()

	portal, _ := newTestPortal(t, llm.NewMockClient())
	if _, err := portal.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := portal.GenerateProfile(context.Background()); !errors.Is(err, ErrInterviewOngoing) {
		t.Fatalf("error = %v, want ErrInterviewOngoing", err)
	}
}

func TestPortalReplyFailureKeepsSession(t *testing.T) {
	t.Parallel()

	mock := llm.NewMockClient("Merci pour votre réponse.")
	mock.FailWith(tafahomerrors.NewTransientError(errors.New("connection reset"),
		"Désolé, j'ai rencontré un problème technique. Pourriez-vous réessayer dans quelques instants ?"))

	portal, _ := newTestPortal(t, mock)
	if _, err := portal.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx := context.Background()
	reply, _, err := portal.Reply(ctx, "Ma première réponse.")
	if err == nil {
		t.Fatal("Reply did not surface the transport error")
	}
	if !strings.HasPrefix(reply, "Désolé") {
		t.Fatalf("apology = %q", reply)
	}

	// The apology became the assistant turn and the question still counted.
	history := portal.History()
	if history[len(history)-1].Content != reply {
		t.Fatal("apology not recorded in history")
	}
	if asked, _ := portal.QuestionsAsked(); asked != 2 {
		t.Fatalf("asked = %d, want 2 (question consumed despite the failure)", asked)
	}

	// The next turn goes through normally.
	if _, _, err := portal.Reply(ctx, "Je réessaie."); err != nil {
		t.Fatalf("Reply after failure: %v", err)
	}
}

func TestPortalResetMintsNewSession(t *testing.T) {
	t.Parallel()

	portal, _ := newTestPortal(t, llm.NewMockClient())
	if _, err := portal.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := portal.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if portal.Phase() != PhaseIntroduction {
		t.Fatalf("phase after reset = %q, want %q", portal.Phase(), PhaseIntroduction)
	}
	if asked, _ := portal.QuestionsAsked(); asked != 0 {
		t.Fatalf("asked after reset = %d, want 0", asked)
	}
	if len(portal.History()) != 0 {
		t.Fatal("history not cleared by reset")
	}
}
