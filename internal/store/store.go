package store

import (
	"fmt"
	"strings"

	"tafahom/internal/profile"
)

// ProfileStore is the identifier-keyed bridge between the portal and agent
// workflows. The two front ends never talk to each other directly: the portal
// puts, the agent discovers and gets.
type ProfileStore interface {
	SaveProfile(id string, doc *profile.Document) error
	LoadProfile(id string) (*profile.Document, error)
	SaveEnriched(id string, doc *profile.EnrichedDocument) error
	LoadEnriched(id string) (*profile.EnrichedDocument, error)
	// List returns the identifiers of every base profile, excluding
	// enriched ones.
	List() ([]string, error)
}

// TranscriptStore persists the append-only conversation transcript.
type TranscriptStore interface {
	Create(id string) error
	Append(id, role, content string) error
	Read(id string) (string, error)
}

// NotFoundError reports a missing profile along with the identifiers that do
// exist, so the operator is never left guessing.
type NotFoundError struct {
	ID        string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("profile %s not found: no profiles available, complete a portal session first", e.ID)
	}
	return fmt.Sprintf("profile %s not found (available: %s)", e.ID, strings.Join(e.Available, ", "))
}
