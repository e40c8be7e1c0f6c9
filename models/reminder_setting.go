package models

import "time"

// ReminderSetting holds per-user reminder preferences. One row exists per
// (userID, userType); created with defaults the first time it is needed.
type ReminderSetting struct {
	UserID             string    `bson:"user_id" json:"userId"`
	UserType           Role      `bson:"user_type" json:"userType"`
	EmailEnabled       bool      `bson:"email_enabled" json:"emailEnabled"`
	SMSEnabled         bool      `bson:"sms_enabled" json:"smsEnabled"`
	PushEnabled        bool      `bson:"push_enabled" json:"pushEnabled"`
	InAppEnabled       bool      `bson:"in_app_enabled" json:"inAppEnabled"`
	FirstReminderOn    bool      `bson:"first_reminder_on" json:"firstReminderOn"`
	SecondReminderOn   bool      `bson:"second_reminder_on" json:"secondReminderOn"`
	FirstOffsetHours   int       `bson:"first_offset_hours" json:"firstOffsetHours"`   // default 24
	SecondOffsetHours  int       `bson:"second_offset_hours" json:"secondOffsetHours"` // default 2
	PreferredChannels  []Channel `bson:"preferred_channels,omitempty" json:"preferredChannels,omitempty"`
	Timezone           string    `bson:"timezone,omitempty" json:"timezone,omitempty"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updatedAt"`
}

// DefaultReminderSetting returns the settings applied on first need:
// email and in-app on, 24h and 2h reminders enabled.
func DefaultReminderSetting(userID string, userType Role) ReminderSetting {
	return ReminderSetting{
		UserID:            userID,
		UserType:          userType,
		EmailEnabled:      true,
		SMSEnabled:        false,
		PushEnabled:       true,
		InAppEnabled:      true,
		FirstReminderOn:   true,
		SecondReminderOn:  true,
		FirstOffsetHours:  24,
		SecondOffsetHours: 2,
		Timezone:          "UTC",
	}
}

// EnabledChannels resolves the channels a reminder should go out on.
// Preferred channels win when set; otherwise every enabled toggle counts.
func (s *ReminderSetting) EnabledChannels() []Channel {
	if len(s.PreferredChannels) > 0 {
		out := make([]Channel, 0, len(s.PreferredChannels))
		for _, c := range s.PreferredChannels {
			if s.channelOn(c) {
				out = append(out, c)
			}
		}
		return out
	}
	var out []Channel
	for _, c := range AllChannels() {
		if s.channelOn(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *ReminderSetting) channelOn(c Channel) bool {
	switch c {
	case ChannelEmail:
		return s.EmailEnabled
	case ChannelSMS:
		return s.SMSEnabled
	case ChannelPush:
		return s.PushEnabled
	case ChannelInApp:
		return s.InAppEnabled
	}
	return false
}
