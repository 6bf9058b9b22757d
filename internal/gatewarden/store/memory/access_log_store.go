package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gatewarden/server/internal/gatewarden/store"
)

// AccessLogStore is an in-memory append-only audit log for tests and dev
// environments.
type AccessLogStore struct {
	mu      sync.Mutex
	entries []store.AccessLogRecord
}

func NewAccessLogStore() *AccessLogStore {
	return &AccessLogStore{}
}

func (s *AccessLogStore) Append(_ context.Context, rec store.AccessLogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, rec)
	return nil
}

func (s *AccessLogStore) ListByOrg(_ context.Context, orgID string, limit int) ([]store.AccessLogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.AccessLogRecord
	for _, e := range s.entries {
		if e.OrgID == orgID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NotedAt.After(out[j].NotedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Entries returns a copy of all recorded entries. Test-only helper.
func (s *AccessLogStore) Entries() []store.AccessLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AccessLogRecord, len(s.entries))
	copy(out, s.entries)
	return out
}
