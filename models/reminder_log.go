package models

import "time"

// TriggerType records what initiated a delivery attempt.
type TriggerType string

const (
	TriggerAutomatic TriggerType = "automatic"
	TriggerManual    TriggerType = "manual"
)

// DeliveryStatus tracks a delivery from attempt through engagement.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryBounced   DeliveryStatus = "bounced"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// ReminderLog is the immutable record of one dispatch attempt. Engagement
// fields (delivered/opened/clicked) are updated in place via the tracking token.
type ReminderLog struct {
	ID             string         `bson:"id" json:"id"`
	JobID          string         `bson:"job_id" json:"jobId"`
	AppointmentID  string         `bson:"appointment_id" json:"appointmentId"`
	UserID         string         `bson:"user_id" json:"userId"`
	DoctorID       string         `bson:"doctor_id" json:"doctorId"`
	Channel        Channel        `bson:"channel" json:"channel"`
	TriggerType    TriggerType    `bson:"trigger_type" json:"triggerType"`
	DeliveryStatus DeliveryStatus `bson:"delivery_status" json:"deliveryStatus"`
	ScheduledAt    time.Time      `bson:"scheduled_at,omitempty" json:"scheduledAt,omitempty"`
	SentAt         time.Time      `bson:"sent_at,omitempty" json:"sentAt,omitempty"`
	DeliveredAt    time.Time      `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	OpenedAt       time.Time      `bson:"opened_at,omitempty" json:"openedAt,omitempty"`
	ClickedAt      time.Time      `bson:"clicked_at,omitempty" json:"clickedAt,omitempty"`
	ErrorMessage   string         `bson:"error_message,omitempty" json:"errorMessage,omitempty"`
	RetryCount     int            `bson:"retry_count" json:"retryCount"`
	TrackingToken  string         `bson:"tracking_token" json:"trackingToken"`
	CreatedAt      time.Time      `bson:"created_at" json:"createdAt"`
}
