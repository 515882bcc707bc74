package models

import "time"

// Site is a tenant-owned generated-website project. Deleting a site cascades
// to its chat messages and file versions.
type Site struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	PrimaryBookID *string   `json:"primary_book_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Author holds the profile fields rendered into the LLM reference block.
type Author struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Bio         string  `json:"bio"`
	PhotoURL    *string `json:"photo_url,omitempty"`
}

// Book is a reference record linked to a site for context assembly only.
type Book struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	CoverURL *string  `json:"cover_url,omitempty"`
	Hook     string   `json:"hook"`
	About    string   `json:"about"`
	Links    []string `json:"links"`
}
