package models

import "time"

// Notification types.
const (
	NotificationGuideAssigned = "guide-assigned"
)

// Notification is a transient event held by the notification relay.
// It is never persisted.
type Notification struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ProjectID  string    `json:"projectId,omitempty"`
	GroupID    string    `json:"groupId,omitempty"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Recipients []string  `json:"-"`
	TS         time.Time `json:"ts"`
}
