package models

import "time"

// SelectionState is the persisted form of a calendar selection.
// Start and End are YYYY-MM-DD; Phase is one of empty, start_only, full_range.
type SelectionState struct {
	SessionID string    `json:"session_id"`
	Phase     string    `json:"phase"`
	Start     string    `json:"start,omitempty"`
	End       string    `json:"end,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
