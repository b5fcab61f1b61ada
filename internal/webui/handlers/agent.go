package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"tafahom/internal/ports"
	"tafahom/internal/prompts"
	"tafahom/internal/review"
	"tafahom/internal/store"
)

// AgentHandler serves the financial-review workflow over HTTP. One reviewer
// per profile identifier, created when the profile is first loaded.
type AgentHandler struct {
	client   ports.LLMClient
	prompts  *prompts.Loader
	profiles store.ProfileStore

	mu        sync.Mutex
	reviewers map[string]*review.Reviewer
}

func NewAgentHandler(client ports.LLMClient, loader *prompts.Loader, profiles store.ProfileStore) *AgentHandler {
	return &AgentHandler{
		client:    client,
		prompts:   loader,
		profiles:  profiles,
		reviewers: make(map[string]*review.Reviewer),
	}
}

func (h *AgentHandler) reviewer(id string) (*review.Reviewer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.reviewers[id]
	return r, ok
}

// ListProfiles returns the identifiers discovered in the data directory.
func (h *AgentHandler) ListProfiles(c *gin.Context) {
	r := review.NewReviewer(h.client, h.prompts, h.profiles)
	ids, err := r.ListProfiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: ProfileListResponse{IDs: ids}})
}

// GetProfile loads a profile for review. A miss returns 404 along with the
// identifiers that do exist.
func (h *AgentHandler) GetProfile(c *gin.Context) {
	id := c.Param("id")

	r := review.NewReviewer(h.client, h.prompts, h.profiles)
	doc, err := r.LoadProfile(id)
	if err != nil {
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, APIResponse{
				Success: false,
				Data:    NotFoundResponse{Available: notFound.Available},
				Error:   notFound.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}

	h.mu.Lock()
	h.reviewers[id] = r
	h.mu.Unlock()

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: doc})
}

// Questions contextualizes the question bank against the loaded profile.
// Contextualization failures degrade to the base questions, never to a 5xx.
func (h *AgentHandler) Questions(c *gin.Context) {
	r, ok := h.reviewer(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "profile not loaded"})
		return
	}

	questions, err := r.BeginQuestions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusConflict, APIResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: questions})
}

// Evaluation accepts the reviewer's form and generates the final evaluation.
// An incomplete form is rejected before any completion call is made.
func (h *AgentHandler) Evaluation(c *gin.Context) {
	r, ok := h.reviewer(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "profile not loaded"})
		return
	}

	// Once the evaluation exists the form is frozen; a repeated POST serves
	// the cached result instead of re-running the completion.
	if cached := r.Evaluation(); cached != nil {
		c.JSON(http.StatusOK, APIResponse{Success: true, Data: cached})
		return
	}

	var req EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if len(req.Responses) != len(r.Questions()) {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("expected %d responses, got %d", len(r.Questions()), len(req.Responses)),
		})
		return
	}
	for i, response := range req.Responses {
		if response.Score < 0 || response.Score > 10 {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Error:   fmt.Sprintf("score for question %d must be between 0 and 10", i+1),
			})
			return
		}
		if err := r.SetResponse(i, response); err != nil {
			c.JSON(http.StatusConflict, APIResponse{Success: false, Error: err.Error()})
			return
		}
	}

	if err := r.Submit(); err != nil {
		var validation *review.ValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: validation.Error()})
			return
		}
		c.JSON(http.StatusConflict, APIResponse{Success: false, Error: err.Error()})
		return
	}

	evaluation, err := r.Evaluate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, APIResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: evaluation})
}

// Enriched merges the profile and evaluation into an enriched profile and
// persists it.
func (h *AgentHandler) Enriched(c *gin.Context) {
	r, ok := h.reviewer(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "profile not loaded"})
		return
	}

	enriched, err := r.Enrich(c.Request.Context())
	if err != nil {
		if errors.Is(err, review.ErrNoEvaluation) {
			c.JSON(http.StatusConflict, APIResponse{Success: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, APIResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: enriched})
}
