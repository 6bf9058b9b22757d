package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

var (
	ErrInvalidOrgID       = errors.New("org_id is required")
	ErrInvalidSubjectID   = errors.New("subject_id is required")
	ErrInvalidSubjectKind = errors.New("subject_kind must be member or guest")
	ErrInvalidWindow      = errors.New("invalid validity window")
	ErrPurposeRequired    = errors.New("purpose is required for guest credentials")
	ErrUnknownSubject     = errors.New("subject not found in organization")
)

// DefaultMinValiditySpan is the smallest window a credential may be issued
// with: the end time must be at least this far past the start.
const DefaultMinValiditySpan = time.Hour

// secretHashAttempts bounds regeneration when a fresh hash collides with an
// existing one inside the organization. With 256-bit hashes a second
// collision in a row means something is broken, not unlucky.
const secretHashAttempts = 5

type IssuerConfig struct {
	// MinValiditySpan overrides DefaultMinValiditySpan when positive.
	MinValiditySpan time.Duration
}

// Issuer creates credentials for members and their guests.
type Issuer struct {
	credentials store.CredentialStore
	subjects    store.SubjectStore
	minSpan     time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

func NewIssuer(credentials store.CredentialStore, subjects store.SubjectStore, cfg IssuerConfig, logger zerolog.Logger) *Issuer {
	minSpan := cfg.MinValiditySpan
	if minSpan <= 0 {
		minSpan = DefaultMinValiditySpan
	}
	return &Issuer{
		credentials: credentials,
		subjects:    subjects,
		minSpan:     minSpan,
		now:         time.Now,
		logger:      logger,
	}
}

type IssueParams struct {
	OrgID       string
	SubjectKind types.SubjectKind
	SubjectID   string
	Purpose     string

	// ValidFrom defaults to the current time when zero.
	ValidFrom  time.Time
	ValidUntil time.Time
}

// Issued is a freshly created credential plus the derived artifacts the
// owner's app presents at the gate.
type Issued struct {
	Credential  types.Credential
	SubjectName string
	ManualCode  string
	QRPayload   string
}

// Issue validates the window, generates an organization-unique secret hash
// and persists the credential. Nothing is persisted when validation fails.
func (i *Issuer) Issue(ctx context.Context, p IssueParams) (Issued, error) {
	orgID := strings.TrimSpace(p.OrgID)
	subjectID := strings.TrimSpace(p.SubjectID)
	purpose := strings.TrimSpace(p.Purpose)

	if orgID == "" {
		return Issued{}, ErrInvalidOrgID
	}
	if subjectID == "" {
		return Issued{}, ErrInvalidSubjectID
	}
	if !p.SubjectKind.Valid() {
		return Issued{}, ErrInvalidSubjectKind
	}
	if p.SubjectKind == types.SubjectGuest && purpose == "" {
		return Issued{}, ErrPurposeRequired
	}

	now := i.now().UTC()

	validFrom := p.ValidFrom.UTC()
	if p.ValidFrom.IsZero() {
		validFrom = now
	}
	validUntil := p.ValidUntil.UTC()

	// The window must be well-formed, at least the minimum span wide, and
	// end strictly in the future.
	if !validUntil.After(validFrom) ||
		validUntil.Sub(validFrom) < i.minSpan ||
		!validUntil.After(now) {
		return Issued{}, ErrInvalidWindow
	}

	subject, err := i.subjects.GetSubject(ctx, orgID, p.SubjectKind, subjectID)
	if errors.Is(err, store.ErrNotFound) {
		return Issued{}, ErrUnknownSubject
	}
	if err != nil {
		return Issued{}, fmt.Errorf("resolve subject: %w", err)
	}

	cred := types.Credential{
		ID:          uuid.NewString(),
		OrgID:       orgID,
		SubjectKind: p.SubjectKind,
		SubjectID:   subjectID,
		Purpose:     purpose,
		ValidFrom:   validFrom,
		ValidUntil:  validUntil,
		IsActive:    true,
		CreatedAt:   now,
	}

	for attempt := 1; attempt <= secretHashAttempts; attempt++ {
		hash, err := newSecretHash()
		if err != nil {
			return Issued{}, fmt.Errorf("generate secret hash: %w", err)
		}
		cred.SecretHash = hash

		err = i.credentials.Insert(ctx, orgID, cred)
		if errors.Is(err, store.ErrDuplicateHash) {
			i.logger.Warn().
				Str("org_id", orgID).
				Int("attempt", attempt).
				Msg("secret hash collision, regenerating")
			continue
		}
		if err != nil {
			return Issued{}, fmt.Errorf("persist credential: %w", err)
		}

		payload, err := types.EncodeQRPayload(cred, subject.DisplayName)
		if err != nil {
			return Issued{}, fmt.Errorf("encode qr payload: %w", err)
		}

		return Issued{
			Credential:  cred,
			SubjectName: subject.DisplayName,
			ManualCode:  DeriveManualCode(subjectID),
			QRPayload:   payload,
		}, nil
	}

	return Issued{}, fmt.Errorf("could not generate a unique secret hash after %d attempts", secretHashAttempts)
}

func newSecretHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
