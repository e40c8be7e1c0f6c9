package models

import "time"

// RelatedRef is a tagged reference to the entity an audit event concerns.
type RelatedRef struct {
	Kind string `bson:"kind" json:"kind"` // "appointment", "time_block", "reminder_job"
	ID   string `bson:"id" json:"id"`
}

// AuditEvent is the before/after snapshot emitted by every mutating
// operation. Recording is fire-and-forget; failures never roll back the
// operation that produced the event.
type AuditEvent struct {
	ID        string     `bson:"id" json:"id"`
	Action    string     `bson:"action" json:"action"` // e.g. "appointment.cancel"
	ActorID   string     `bson:"actor_id" json:"actorId"`
	ActorRole Role       `bson:"actor_role" json:"actorRole"`
	Related   RelatedRef `bson:"related" json:"related"`
	Before    any        `bson:"before,omitempty" json:"before,omitempty"`
	After     any        `bson:"after,omitempty" json:"after,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
}
