package types

import "time"

// Verdict classifies the outcome of one validation attempt. Granted is the
// only success; SystemError means the attempt could not be decided at all
// and must never be presented to a guard as a denial.
type Verdict string

const (
	VerdictGranted     Verdict = "granted"
	VerdictNotFound    Verdict = "not_found"
	VerdictInactive    Verdict = "inactive"
	VerdictNotYetValid Verdict = "not_yet_valid"
	VerdictExpired     Verdict = "expired"
	VerdictSystemError Verdict = "system_error"
)

// SubjectSummary is the display context returned alongside a verdict.
// The full summary (unit, purpose) is only disclosed on a grant; denials
// that resolved a subject carry name-only context so the guard can see
// whose credential expired or was deactivated.
type SubjectSummary struct {
	Kind        SubjectKind `json:"kind"`
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Unit        string      `json:"unit,omitempty"`
	Purpose     string      `json:"purpose,omitempty"`
	ValidUntil  *time.Time  `json:"valid_until,omitempty"`
}

type VerdictResult struct {
	Granted    bool            `json:"granted"`
	Verdict    Verdict         `json:"verdict"`
	Subject    *SubjectSummary `json:"subject,omitempty"`
	ServerTime string          `json:"server_time"`
}
