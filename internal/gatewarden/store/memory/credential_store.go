package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

// CredentialStore is an in-memory credential store for tests and dev
// environments. All lookups are scoped by orgID, matching the sqlite
// implementation's isolation behavior.
type CredentialStore struct {
	mu sync.RWMutex
	// orgID -> credentialID -> credential
	byID map[string]map[string]types.Credential
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		byID: make(map[string]map[string]types.Credential),
	}
}

func (s *CredentialStore) Insert(_ context.Context, orgID string, c types.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	org := s.byID[orgID]
	if org == nil {
		org = make(map[string]types.Credential)
		s.byID[orgID] = org
	}

	for _, existing := range org {
		if existing.SecretHash == c.SecretHash {
			return store.ErrDuplicateHash
		}
	}

	org[c.ID] = c
	return nil
}

func (s *CredentialStore) GetByID(_ context.Context, orgID, credentialID string) (types.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.byID[orgID][credentialID]; ok {
		return c, nil
	}
	return types.Credential{}, store.ErrNotFound
}

func (s *CredentialStore) GetBySecretHash(_ context.Context, orgID, secretHash string) (types.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.byID[orgID] {
		if c.SecretHash == secretHash {
			return c, nil
		}
	}
	return types.Credential{}, store.ErrNotFound
}

func (s *CredentialStore) ListBySubject(_ context.Context, orgID string, kind types.SubjectKind, subjectID string) ([]types.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Credential
	for _, c := range s.byID[orgID] {
		if c.SubjectKind == kind && c.SubjectID == subjectID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *CredentialStore) SetActive(_ context.Context, orgID, credentialID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[orgID][credentialID]
	if !ok {
		return store.ErrNotFound
	}
	c.IsActive = active
	s.byID[orgID][credentialID] = c
	return nil
}

// deleteBySubject removes all of a subject's credentials. Used by the
// guest-deletion cascade.
func (s *CredentialStore) deleteBySubject(orgID string, kind types.SubjectKind, subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.byID[orgID] {
		if c.SubjectKind == kind && c.SubjectID == subjectID {
			delete(s.byID[orgID], id)
		}
	}
}
