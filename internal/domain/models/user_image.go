package models

import "time"

// UserImage is an uploaded image attached to a user chat turn. The engine only
// cares about its identifier and derived public URL; the bytes stay behind the
// repository boundary.
type UserImage struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id"`
	Mime      string    `json:"mime"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicURL returns the serving path for the image.
func (img *UserImage) PublicURL() string {
	return "/api/images/" + img.ID
}
