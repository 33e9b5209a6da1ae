package model

import (
	"strings"
	"time"
)

// Pseudo-transition labels recorded for check-in and check-out events,
// which have no transition row of their own.
const (
	TransitionLabelCheckIn  = "CheckIn"
	TransitionLabelCheckOut = "CheckOut"
)

// HistoryEntry is one entry in a content item's status history. Field
// values are trimmed and truncated at the loading boundary; they are not
// re-validated afterwards.
type HistoryEntry struct {
	HistoryID        int64     `json:"history_id"`
	ContentID        int64     `json:"content_id"`
	Revision         int       `json:"revision"`
	Title            string    `json:"title"`
	SessionID        string    `json:"session_id"`
	ActorName        string    `json:"actor_name"`
	TransitionID     int64     `json:"transition_id"`
	IsPublishable    bool      `json:"is_publishable"`
	StateID          int64     `json:"state_id"`
	StateName        string    `json:"state_name"`
	TransitionLabel  string    `json:"transition_label"`
	RoleNamesCSV     string    `json:"role_names"`
	CheckoutUserName string    `json:"checkout_user_name,omitempty"`
	LastModifierName string    `json:"last_modifier_name"`
	LastModifiedAt   time.Time `json:"last_modified_at"`
	EventAt          time.Time `json:"event_at"`
	Comment          string    `json:"comment,omitempty"`
}

// TruncateField trims surrounding whitespace and truncates to max bytes.
// Legacy columns carry hard length limits; values beyond them are cut, not
// rejected. A max of 0 means no length limit.
func TruncateField(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
