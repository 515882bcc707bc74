package models

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn in a site's conversation. Messages are immutable
// once created except for the soft-delete flag; ordering is by ID. A user
// message is always immediately followed by exactly one assistant message,
// and that pair is the unit of undo.
type ChatMessage struct {
	ID             int64     `json:"id"`
	SiteID         string    `json:"site_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	PromptImageIDs []string  `json:"prompt_image_ids,omitempty"`
	CorrelationID  string    `json:"correlation_id"`
	IsDeleted      bool      `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
