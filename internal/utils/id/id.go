package id

import "time"

// NewConversationID mints the identifier that joins a portal session to its
// transcript, profile, and later agent-side retrieval. Second-level timestamp
// granularity: two sessions started within the same second collide, which is
// accepted for single-operator usage.
func NewConversationID() string {
	return time.Now().Format("20060102150405")
}
