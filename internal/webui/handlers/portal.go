package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"tafahom/internal/dialogue"
	"tafahom/internal/ports"
	"tafahom/internal/profile"
	"tafahom/internal/prompts"
	"tafahom/internal/store"
)

// PortalHandler serves the artist-facing interview over HTTP. Sessions live
// in memory; the filesystem is the only cross-process state.
type PortalHandler struct {
	client      ports.LLMClient
	prompts     *prompts.Loader
	profiles    store.ProfileStore
	transcripts store.TranscriptStore

	mu       sync.Mutex
	sessions map[string]*dialogue.Portal
}

func NewPortalHandler(client ports.LLMClient, loader *prompts.Loader, profiles store.ProfileStore, transcripts store.TranscriptStore) *PortalHandler {
	return &PortalHandler{
		client:      client,
		prompts:     loader,
		profiles:    profiles,
		transcripts: transcripts,
		sessions:    make(map[string]*dialogue.Portal),
	}
}

func (h *PortalHandler) session(id string) (*dialogue.Portal, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	portal, ok := h.sessions[id]
	return portal, ok
}

// CreateSession opens a portal session and returns the greeting.
func (h *PortalHandler) CreateSession(c *gin.Context) {
	portal, err := dialogue.NewPortal(h.client, h.prompts, h.profiles, h.transcripts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("create session: %v", err),
		})
		return
	}
	greeting, err := portal.Start()
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}

	h.mu.Lock()
	h.sessions[portal.ID()] = portal
	h.mu.Unlock()

	asked, total := portal.QuestionsAsked()
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data: SessionResponse{
			ID:             portal.ID(),
			Phase:          portal.Phase(),
			QuestionsAsked: asked,
			QuestionsTotal: total,
			Messages:       []TurnMessage{{Role: ports.RoleAssistant, Content: greeting}},
		},
	})
}

// GetSession reports phase, progress and the conversation so far.
func (h *PortalHandler) GetSession(c *gin.Context) {
	portal, ok := h.session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "session not found"})
		return
	}

	asked, total := portal.QuestionsAsked()
	messages := make([]TurnMessage, 0, len(portal.History()))
	for _, msg := range portal.History() {
		messages = append(messages, TurnMessage{Role: msg.Role, Content: msg.Content})
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: SessionResponse{
			ID:             portal.ID(),
			Phase:          portal.Phase(),
			QuestionsAsked: asked,
			QuestionsTotal: total,
			Ended:          portal.Ended(),
			Messages:       messages,
		},
	})
}

// SendMessage runs one conversational turn. A completion failure is not
// fatal to the session: the apology turn is returned along with the error.
func (h *PortalHandler) SendMessage(c *gin.Context) {
	portal, ok := h.session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "session not found"})
		return
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if req.Content == "" {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "message content is required"})
		return
	}

	reply, done, err := portal.Reply(c.Request.Context(), req.Content)
	switch {
	case err == nil:
	case errors.Is(err, dialogue.ErrNotStarted), errors.Is(err, dialogue.ErrInterviewComplete):
		c.JSON(http.StatusConflict, APIResponse{Success: false, Error: err.Error()})
		return
	default:
		c.JSON(http.StatusBadGateway, APIResponse{
			Success: false,
			Data:    MessageResponse{Reply: reply, Ended: done},
			Error:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    MessageResponse{Reply: reply, Ended: done},
	})
}

// GenerateProfile runs the rubric once the interview is complete.
func (h *PortalHandler) GenerateProfile(c *gin.Context) {
	portal, ok := h.session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "session not found"})
		return
	}

	doc, err := portal.GenerateProfile(c.Request.Context())
	switch err {
	case nil:
	case dialogue.ErrInterviewOngoing, dialogue.ErrProfileGenerated:
		c.JSON(http.StatusConflict, APIResponse{Success: false, Error: err.Error()})
		return
	default:
		c.JSON(http.StatusBadGateway, APIResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: doc})
}

// ExportProfile streams the generated profile in the requested format.
func (h *PortalHandler) ExportProfile(c *gin.Context) {
	portal, ok := h.session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "session not found"})
		return
	}

	format := c.DefaultQuery("format", profile.FormatJSON)
	out, err := portal.Export(format)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}

	contentType := "text/plain; charset=utf-8"
	if format == profile.FormatJSON {
		contentType = "application/json; charset=utf-8"
	}
	// Override the group-wide JSON content type for text formats.
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=tafahom_profil_%s.%s", portal.ID(), format))
	c.Data(http.StatusOK, contentType, []byte(out))
}
