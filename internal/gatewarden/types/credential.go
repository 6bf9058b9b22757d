package types

import (
	"encoding/json"
	"time"
)

type SubjectKind string

const (
	SubjectMember SubjectKind = "member"
	SubjectGuest  SubjectKind = "guest"
)

func (k SubjectKind) Valid() bool {
	return k == SubjectMember || k == SubjectGuest
}

// Credential is a time-boxed access token bound to a member or guest.
// The validity window is half-open: a credential is inside its window at
// validFrom and outside it at validUntil.
type Credential struct {
	ID          string      `json:"id"`
	OrgID       string      `json:"org_id"`
	SubjectKind SubjectKind `json:"subject_kind"`
	SubjectID   string      `json:"subject_id"`
	SecretHash  string      `json:"secret_hash"`
	Purpose     string      `json:"purpose,omitempty"`
	ValidFrom   time.Time   `json:"valid_from"`
	ValidUntil  time.Time   `json:"valid_until"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
}

// InWindow reports whether t falls inside [ValidFrom, ValidUntil).
func (c Credential) InWindow(t time.Time) bool {
	return !t.Before(c.ValidFrom) && t.Before(c.ValidUntil)
}

// Guest is a visitor created by a member. Deleting a guest deletes its
// credentials with it; access log entries referencing the guest remain.
type Guest struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"org_id"`
	OwnerMemberID string    `json:"owner_member_id"`
	DisplayName   string    `json:"display_name"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// QRPayload is the public JSON structure embedded in a rendered QR image.
// Only the hash matters for validation; the rest is display metadata for
// the scanning guard's screen. Image rendering happens client-side.
type QRPayload struct {
	Hash       string    `json:"h"`
	Name       string    `json:"n,omitempty"`
	Purpose    string    `json:"p,omitempty"`
	ValidFrom  time.Time `json:"vf,omitzero"`
	ValidUntil time.Time `json:"vu,omitzero"`
}

// EncodeQRPayload produces the payload string an external encoder renders
// as a scannable image.
func EncodeQRPayload(c Credential, displayName string) (string, error) {
	p := QRPayload{
		Hash:       c.SecretHash,
		Name:       displayName,
		Purpose:    c.Purpose,
		ValidFrom:  c.ValidFrom,
		ValidUntil: c.ValidUntil,
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
