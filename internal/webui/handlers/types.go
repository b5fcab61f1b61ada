package handlers

import "tafahom/internal/review"

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SessionResponse describes a portal session.
type SessionResponse struct {
	ID             string        `json:"id"`
	Phase          string        `json:"phase"`
	QuestionsAsked int           `json:"questions_asked"`
	QuestionsTotal int           `json:"questions_total"`
	Ended          bool          `json:"ended"`
	Messages       []TurnMessage `json:"messages,omitempty"`
}

// TurnMessage is one conversation turn.
type TurnMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageRequest is one user turn sent to a portal session.
type MessageRequest struct {
	Content string `json:"content"`
}

// MessageResponse carries the assistant's reply for a turn.
type MessageResponse struct {
	Reply string `json:"reply"`
	Ended bool   `json:"ended"`
}

// ProfileListResponse lists discovered profile identifiers.
type ProfileListResponse struct {
	IDs []string `json:"ids"`
}

// NotFoundResponse carries the alternatives when a profile id misses.
type NotFoundResponse struct {
	Available []string `json:"available"`
}

// EvaluationRequest is the reviewer's submitted form, in question order.
type EvaluationRequest struct {
	Responses []review.Response `json:"responses"`
}
