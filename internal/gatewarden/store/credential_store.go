package store

import (
	"context"

	"github.com/gatewarden/server/internal/gatewarden/types"
)

// CredentialStore persists credentials. Inserting and toggling activity are
// the only mutations; validation never writes through this interface.
type CredentialStore interface {
	// Insert persists a new credential. Returns ErrDuplicateHash if the
	// secret hash already exists within the organization.
	Insert(ctx context.Context, orgID string, c types.Credential) error

	GetByID(ctx context.Context, orgID, credentialID string) (types.Credential, error)

	// GetBySecretHash resolves a presented hash strictly within orgID.
	GetBySecretHash(ctx context.Context, orgID, secretHash string) (types.Credential, error)

	// ListBySubject returns a subject's credentials, newest first.
	ListBySubject(ctx context.Context, orgID string, kind types.SubjectKind, subjectID string) ([]types.Credential, error)

	// SetActive toggles isActive. Last writer wins per credential.
	SetActive(ctx context.Context, orgID, credentialID string, active bool) error
}
