package models

import "time"

// InAppNotification is a structured payload stored for the in-app channel.
type InAppNotification struct {
	ID        string         `bson:"id" json:"id"`
	UserID    string         `bson:"user_id" json:"userId"`
	Type      string         `bson:"type" json:"type"` // "appointment_reminder"
	Title     string         `bson:"title" json:"title"`
	Body      string         `bson:"body" json:"body"`
	Data      map[string]any `bson:"data,omitempty" json:"data,omitempty"`
	Read      bool           `bson:"read" json:"read"`
	CreatedAt time.Time      `bson:"created_at" json:"createdAt"`
}
