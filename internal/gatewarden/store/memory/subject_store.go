package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

// SubjectStore holds members, guards and guests in memory. It implements
// both store.SubjectStore and store.GuestStore; guest deletion cascades
// into the credential store it was constructed with.
type SubjectStore struct {
	mu          sync.RWMutex
	subjects    map[string]map[string]store.SubjectRecord // orgID -> subjectID
	guards      map[string]map[string]store.GuardRecord   // orgID -> guardID
	credentials *CredentialStore
}

func NewSubjectStore(credentials *CredentialStore) *SubjectStore {
	return &SubjectStore{
		subjects:    make(map[string]map[string]store.SubjectRecord),
		guards:      make(map[string]map[string]store.GuardRecord),
		credentials: credentials,
	}
}

// AddSubject seeds a member or guest. Test/dev helper.
func (s *SubjectStore) AddSubject(rec store.SubjectRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addSubjectLocked(rec)
}

func (s *SubjectStore) addSubjectLocked(rec store.SubjectRecord) {
	org := s.subjects[rec.OrgID]
	if org == nil {
		org = make(map[string]store.SubjectRecord)
		s.subjects[rec.OrgID] = org
	}
	org[rec.ID] = rec
}

// AddGuard seeds a guard. Test/dev helper.
func (s *SubjectStore) AddGuard(rec store.GuardRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org := s.guards[rec.OrgID]
	if org == nil {
		org = make(map[string]store.GuardRecord)
		s.guards[rec.OrgID] = org
	}
	org[rec.ID] = rec
}

func (s *SubjectStore) GetSubject(_ context.Context, orgID string, kind types.SubjectKind, subjectID string) (store.SubjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.subjects[orgID][subjectID]
	if !ok || rec.Kind != kind {
		return store.SubjectRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *SubjectStore) ListSubjects(_ context.Context, orgID string) ([]store.SubjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.SubjectRecord, 0, len(s.subjects[orgID]))
	for _, rec := range s.subjects[orgID] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *SubjectStore) GetGuard(_ context.Context, orgID, guardID string) (store.GuardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.guards[orgID][guardID]
	if !ok {
		return store.GuardRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *SubjectStore) CreateGuest(_ context.Context, orgID string, g types.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addSubjectLocked(store.SubjectRecord{
		Kind:          types.SubjectGuest,
		ID:            g.ID,
		OrgID:         orgID,
		OwnerMemberID: g.OwnerMemberID,
		DisplayName:   g.DisplayName,
		Phone:         g.Phone,
		Active:        g.IsActive,
		CreatedAt:     g.CreatedAt,
	})
	return nil
}

func (s *SubjectStore) DeleteGuest(_ context.Context, orgID, guestID string) error {
	s.mu.Lock()

	rec, ok := s.subjects[orgID][guestID]
	if !ok || rec.Kind != types.SubjectGuest {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	delete(s.subjects[orgID], guestID)
	s.mu.Unlock()

	if s.credentials != nil {
		s.credentials.deleteBySubject(orgID, types.SubjectGuest, guestID)
	}
	return nil
}
