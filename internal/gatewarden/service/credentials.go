package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

// CredentialService covers the owner-facing operations on existing
// credentials: toggling activity and listing a subject's credentials.
type CredentialService struct {
	credentials store.CredentialStore
	logger      zerolog.Logger
}

func NewCredentialService(credentials store.CredentialStore, logger zerolog.Logger) *CredentialService {
	return &CredentialService{credentials: credentials, logger: logger}
}

// SetActive toggles isActive independent of the validity window. A
// deactivated credential never validates, even in-window; reactivation
// restores normal temporal rules. Last writer wins.
func (s *CredentialService) SetActive(ctx context.Context, orgID, credentialID string, active bool) error {
	orgID = strings.TrimSpace(orgID)
	credentialID = strings.TrimSpace(credentialID)
	if orgID == "" {
		return ErrInvalidOrgID
	}
	if credentialID == "" {
		return store.ErrNotFound
	}

	if err := s.credentials.SetActive(ctx, orgID, credentialID, active); err != nil {
		return err
	}

	s.logger.Info().
		Str("org_id", orgID).
		Str("credential_id", credentialID).
		Bool("active", active).
		Msg("credential activity toggled")
	return nil
}

func (s *CredentialService) ListForSubject(ctx context.Context, orgID string, kind types.SubjectKind, subjectID string) ([]types.Credential, error) {
	orgID = strings.TrimSpace(orgID)
	subjectID = strings.TrimSpace(subjectID)
	if orgID == "" {
		return nil, ErrInvalidOrgID
	}
	if subjectID == "" {
		return nil, ErrInvalidSubjectID
	}
	if !kind.Valid() {
		return nil, ErrInvalidSubjectKind
	}
	return s.credentials.ListBySubject(ctx, orgID, kind, subjectID)
}
