package webui

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tafahom/internal/config"
	"tafahom/internal/llm"
	"tafahom/internal/profile"
	"tafahom/internal/prompts"
	jsonx "tafahom/internal/shared/json"
	"tafahom/internal/store/filestore"
)

func newTestServer(t *testing.T, mock *llm.MockClient) (*Server, *filestore.Store) {
	t.Helper()
	loader, err := prompts.NewLoader()
	require.NoError(t, err)

	files := filestore.New(t.TempDir())
	server := NewServer(config.ServerConfig{Host: "localhost", Port: 0}, mock, loader, files, files)
	return server, files
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := jsonx.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (bool, jsonx.RawMessage, string) {
	t.Helper()
	var envelope struct {
		Success bool             `json:"success"`
		Data    jsonx.RawMessage `json:"data"`
		Error   string           `json:"error"`
	}
	require.NoError(t, jsonx.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Success, envelope.Data, envelope.Error
}

func TestCreatePortalSession(t *testing.T) {
	server, _ := newTestServer(t, llm.NewMockClient())

	w := doJSON(t, server, http.MethodPost, "/api/portal/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	success, data, _ := decodeEnvelope(t, w)
	assert.True(t, success)

	var session struct {
		ID             string `json:"id"`
		Phase          string `json:"phase"`
		QuestionsAsked int    `json:"questions_asked"`
		Messages       []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, jsonx.Unmarshal(data, &session))
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "conversation", session.Phase)
	assert.Equal(t, 1, session.QuestionsAsked)
	require.Len(t, session.Messages, 1)
	assert.Contains(t, session.Messages[0].Content, "Bonjour")
}

func TestSendMessageTurn(t *testing.T) {
	server, _ := newTestServer(t, llm.NewMockClient("Merci, parlez-moi de vos œuvres."))

	w := doJSON(t, server, http.MethodPost, "/api/portal/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	_, data, _ := decodeEnvelope(t, w)
	var session struct {
		ID string `json:"id"`
	}
	require.NoError(t, jsonx.Unmarshal(data, &session))

	w = doJSON(t, server, http.MethodPost, "/api/portal/sessions/"+session.ID+"/messages",
		map[string]string{"content": "Je suis conteur."})
	require.Equal(t, http.StatusOK, w.Code)

	success, data, _ := decodeEnvelope(t, w)
	assert.True(t, success)
	var message struct {
		Reply string `json:"reply"`
		Ended bool   `json:"ended"`
	}
	require.NoError(t, jsonx.Unmarshal(data, &message))
	assert.Equal(t, "Merci, parlez-moi de vos œuvres.", message.Reply)
	assert.False(t, message.Ended)
}

func TestGenerateProfileTooEarlyConflicts(t *testing.T) {
	server, _ := newTestServer(t, llm.NewMockClient())

	w := doJSON(t, server, http.MethodPost, "/api/portal/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	_, data, _ := decodeEnvelope(t, w)
	var session struct {
		ID string `json:"id"`
	}
	require.NoError(t, jsonx.Unmarshal(data, &session))

	w = doJSON(t, server, http.MethodPost, "/api/portal/sessions/"+session.ID+"/profile", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetProfileMissReturnsAvailable(t *testing.T) {
	server, files := newTestServer(t, llm.NewMockClient())
	require.NoError(t, files.SaveProfile("20250612143000", &profile.Document{}))

	w := doJSON(t, server, http.MethodGet, "/api/agent/profiles/19990101000000", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	success, data, errMsg := decodeEnvelope(t, w)
	assert.False(t, success)
	assert.Contains(t, errMsg, "20250612143000")

	var payload struct {
		Available []string `json:"available"`
	}
	require.NoError(t, jsonx.Unmarshal(data, &payload))
	assert.Equal(t, []string{"20250612143000"}, payload.Available)
}

func TestEvaluationRejectsEmptyAnswers(t *testing.T) {
	// Contextualization fails, so the handler serves the fallback bank; the
	// invalid submission below must not trigger any further completion call.
	mock := llm.NewMockClient().FailWith(fmt.Errorf("boom"))
	server, files := newTestServer(t, mock)

	doc := &profile.Document{Profile: profile.Profile{IASScore: 71}}
	for _, name := range profile.Criteria {
		doc.Profile.Criteria = append(doc.Profile.Criteria, profile.Criterion{Name: name, Score: 7})
	}
	require.NoError(t, files.SaveProfile("20250612143000", doc))

	w := doJSON(t, server, http.MethodGet, "/api/agent/profiles/20250612143000", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server, http.MethodPost, "/api/agent/profiles/20250612143000/questions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	responses := make([]map[string]any, len(profile.Criteria))
	for i := range responses {
		responses[i] = map[string]any{"text": "Analyse.", "score": 6}
	}
	responses[4]["text"] = ""

	w = doJSON(t, server, http.MethodPost, "/api/agent/profiles/20250612143000/evaluation",
		map[string]any{"responses": responses})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, mock.CallCount())
}

func TestEvaluationRetryAfterCompletionFailure(t *testing.T) {
	// Contextualization and the first evaluation call both fail; the bank
	// degrades to the base questions and the first POST returns 502. The
	// identical retry must reach the completion service again with the typed
	// answers intact.
	evalPayload := "```json\n" +
		`{"evaluation": {"criteria": [{"name": "Capital culturel incorporé", "score": 6, "comment": "viable"}], ` +
		`"global_score": 64, "decision": "Acceptation conditionnelle", "recommendations": [], "summary": "Recevable."}}` +
		"\n```"
	mock := llm.NewMockClient(evalPayload).
		FailWith(fmt.Errorf("boom")).
		FailWith(fmt.Errorf("transport down"))
	server, files := newTestServer(t, mock)

	doc := &profile.Document{Profile: profile.Profile{IASScore: 71}}
	for _, name := range profile.Criteria {
		doc.Profile.Criteria = append(doc.Profile.Criteria, profile.Criterion{Name: name, Score: 7})
	}
	require.NoError(t, files.SaveProfile("20250612143000", doc))

	w := doJSON(t, server, http.MethodGet, "/api/agent/profiles/20250612143000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, server, http.MethodPost, "/api/agent/profiles/20250612143000/questions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	responses := make([]map[string]any, len(profile.Criteria))
	for i := range responses {
		responses[i] = map[string]any{"text": "Analyse.", "score": 6}
	}
	body := map[string]any{"responses": responses}

	w = doJSON(t, server, http.MethodPost, "/api/agent/profiles/20250612143000/evaluation", body)
	require.Equal(t, http.StatusBadGateway, w.Code)

	w = doJSON(t, server, http.MethodPost, "/api/agent/profiles/20250612143000/evaluation", body)
	require.Equal(t, http.StatusOK, w.Code)
	success, data, _ := decodeEnvelope(t, w)
	assert.True(t, success)
	var evaluation struct {
		Evaluation struct {
			GlobalScore int `json:"global_score"`
		} `json:"evaluation"`
	}
	require.NoError(t, jsonx.Unmarshal(data, &evaluation))
	assert.Equal(t, 64, evaluation.Evaluation.GlobalScore)
	assert.Equal(t, 3, mock.CallCount())

	// Another identical POST serves the cached evaluation, no further call.
	w = doJSON(t, server, http.MethodPost, "/api/agent/profiles/20250612143000/evaluation", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, mock.CallCount())
}

func TestMessageAfterInterviewEndConflicts(t *testing.T) {
	replies := make([]string, 9)
	for i := range replies {
		replies[i] = fmt.Sprintf("Merci. Question suivante %d.", i+1)
	}
	server, _ := newTestServer(t, llm.NewMockClient(replies...))

	w := doJSON(t, server, http.MethodPost, "/api/portal/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	_, data, _ := decodeEnvelope(t, w)
	var session struct {
		ID string `json:"id"`
	}
	require.NoError(t, jsonx.Unmarshal(data, &session))

	path := "/api/portal/sessions/" + session.ID + "/messages"
	for i := 1; i <= 9; i++ {
		w = doJSON(t, server, http.MethodPost, path, map[string]string{"content": fmt.Sprintf("Ma réponse %d.", i)})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = doJSON(t, server, http.MethodPost, path, map[string]string{"content": "Encore un mot."})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, llm.NewMockClient())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
