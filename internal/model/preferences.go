package model

import "time"

// Preferences are a user's email notification settings.
type Preferences struct {
	UserID              string    `json:"-" db:"user_id"`
	Email               string    `json:"email" db:"email"`
	EnableNotifications bool      `json:"enableNotifications" db:"enable_notifications"`
	CheckinAliases      string    `json:"checkinAliases" db:"checkin_aliases"`
	UpdatedAt           time.Time `json:"updatedAt" db:"updated_at"`
}
