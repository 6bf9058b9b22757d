package types

import "time"

type IssueRequest struct {
	OrgID       string      `json:"org_id"`
	SubjectKind SubjectKind `json:"subject_kind"`
	SubjectID   string      `json:"subject_id"`
	Purpose     string      `json:"purpose,omitempty"`
	ValidFrom   *time.Time  `json:"valid_from,omitempty"` // defaults to server time
	ValidUntil  time.Time   `json:"valid_until"`
}

type IssueResponse struct {
	OK         bool       `json:"ok"`
	Credential Credential `json:"credential"`
	ManualCode string     `json:"manual_code"`
	QRPayload  string     `json:"qr_payload"`
}

type ValidateRequest struct {
	OrgID   string `json:"org_id"`
	GuardID string `json:"guard_id"`
	Method  Method `json:"method"`
	Data    string `json:"data"` // scanned payload or 6-digit code

	// DeviceSessionID keys scan debouncing; optional for manual entry.
	DeviceSessionID string `json:"device_session_id,omitempty"`
}

type ValidateResponse struct {
	OK bool `json:"ok"`

	// Duplicate is set when the debouncer suppressed a repeated frame of
	// the same physical scan; no validation ran and no result is present.
	Duplicate bool           `json:"duplicate,omitempty"`
	Result    *VerdictResult `json:"result,omitempty"`
}

type SetActiveRequest struct {
	OrgID  string `json:"org_id"`
	Active bool   `json:"active"`
}

type CreateGuestRequest struct {
	OrgID         string `json:"org_id"`
	OwnerMemberID string `json:"owner_member_id"`
	DisplayName   string `json:"display_name"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
}

type CredentialListResponse struct {
	OK          bool         `json:"ok"`
	Credentials []Credential `json:"credentials"`
}

type GuestResponse struct {
	OK    bool  `json:"ok"`
	Guest Guest `json:"guest"`
}

// AccessLogEntry is the wire form of one immutable audit row.
type AccessLogEntry struct {
	EntryID      string    `json:"entry_id"`
	OrgID        string    `json:"org_id"`
	CredentialID string    `json:"credential_id,omitempty"`
	SubjectKind  string    `json:"subject_kind,omitempty"`
	SubjectID    string    `json:"subject_id,omitempty"`
	GuardID      string    `json:"guard_id"`
	GuardName    string    `json:"guard_name,omitempty"`
	Method       Method    `json:"method"`
	Verdict      Verdict   `json:"verdict"`
	NotedAt      time.Time `json:"noted_at"`
}

type AccessLogListResponse struct {
	OK      bool             `json:"ok"`
	Entries []AccessLogEntry `json:"entries"`
}
