// Package audit records an immutable trail of every access to patient data.
// Entries are append-only: no update or delete surface exists, and a failed
// audit write must never fail the operation it documents.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action is the closed set of auditable action kinds.
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionRead         Action = "READ"
	ActionUpdate       Action = "UPDATE"
	ActionDelete       Action = "DELETE"
	ActionLogin        Action = "LOGIN"
	ActionLogout       Action = "LOGOUT"
	ActionAccessDenied Action = "ACCESS_DENIED"
)

var validActions = map[Action]bool{
	ActionCreate: true, ActionRead: true, ActionUpdate: true,
	ActionDelete: true, ActionLogin: true, ActionLogout: true,
	ActionAccessDenied: true,
}

// Valid reports whether a is in the closed action set.
func (a Action) Valid() bool { return validActions[a] }

// Entry is a single audit record. Optional fields are empty strings (or zero
// StatusCode) when absent; UserID is empty for anonymous/public actions. ID
// and Timestamp are server-assigned on append.
type Entry struct {
	UserID       string
	UserRole     string
	Action       Action
	ResourceType string
	ResourceID   string
	PatientID    string
	IPAddress    string
	UserAgent    string
	RequestPath  string
	StatusCode   int
	ErrorMessage string
	Metadata     map[string]any
	Timestamp    time.Time
}

// Summary is the reduced read-side view of an entry returned by the query
// surface. Outcome is "Success" unless the entry carried an error message,
// in which case it is "Error occurred".
type Summary struct {
	ID           uuid.UUID `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	UserID       string    `json:"user_id,omitempty"`
	UserRole     string    `json:"user_role,omitempty"`
	Action       Action    `json:"action"`
	ResourceType string    `json:"resource_type"`
	PatientID    string    `json:"patient_id,omitempty"`
	StatusCode   int       `json:"status_code,omitempty"`
	Outcome      string    `json:"outcome"`
}

const (
	OutcomeSuccess = "Success"
	OutcomeError   = "Error occurred"
)

// outcomeOf derives the coarse outcome label from an entry.
func outcomeOf(e Entry) string {
	if e.ErrorMessage != "" {
		return OutcomeError
	}
	return OutcomeSuccess
}
