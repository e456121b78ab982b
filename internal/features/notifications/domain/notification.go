package domain

import (
	"fmt"
	"time"
)

// Kind distinguishes automatic delay alerts from owner-written messages.
type Kind string

const (
	KindDelayAlert    Kind = "delay_alert"
	KindCustomMessage Kind = "custom_message"
)

// Notification is an in-app message targeted at one conductor. Rows are only
// ever created and marked read, never deleted in the normal flow.
type Notification struct {
	ID          string    `json:"id"`
	ConductorID string    `json:"conductor_id"`
	OwnerID     string    `json:"owner_id"`
	Kind        Kind      `json:"kind"`
	Message     string    `json:"message"`
	PackageID   *string   `json:"package_id,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// View is a notification annotated with a human-readable relative age.
type View struct {
	Notification
	Age string `json:"age"`
}

// RelativeAge renders how long ago a notification was created, bucketed to the
// coarsest sensible unit.
func RelativeAge(createdAt, now time.Time) string {
	diff := now.Sub(createdAt)

	minutes := int(diff.Minutes())
	if minutes < 1 {
		return "just now"
	}
	if minutes < 60 {
		return pluralize(minutes, "minute")
	}

	hours := int(diff.Hours())
	if hours < 24 {
		return pluralize(hours, "hour")
	}

	return pluralize(hours/24, "day")
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
