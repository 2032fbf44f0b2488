package entity

import "time"

// Notification is a realtime message pushed to one user's open sockets.
type Notification struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	NotificationProfileUpdated = "profile_updated"
	NotificationOfferPublished = "offer_published"
)
