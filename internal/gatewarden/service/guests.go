package service

import (
	"context"
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
	ErrInvalidOwner     = errors.New("owner_member_id is required")
	ErrInvalidGuestName = errors.New("display_name is required")
)

// GuestService manages the guest lifecycle on behalf of members.
type GuestService struct {
	guests   store.GuestStore
	subjects store.SubjectStore
	now      func() time.Time
	logger   zerolog.Logger
}

func NewGuestService(guests store.GuestStore, subjects store.SubjectStore, logger zerolog.Logger) *GuestService {
	return &GuestService{
		guests:   guests,
		subjects: subjects,
		now:      time.Now,
		logger:   logger,
	}
}

type CreateGuestParams struct {
	OrgID         string
	OwnerMemberID string
	DisplayName   string
	Phone         string
	Email         string
}

func (s *GuestService) Create(ctx context.Context, p CreateGuestParams) (types.Guest, error) {
	orgID := strings.TrimSpace(p.OrgID)
	ownerID := strings.TrimSpace(p.OwnerMemberID)
	name := strings.TrimSpace(p.DisplayName)

	if orgID == "" {
		return types.Guest{}, ErrInvalidOrgID
	}
	if ownerID == "" {
		return types.Guest{}, ErrInvalidOwner
	}
	if name == "" {
		return types.Guest{}, ErrInvalidGuestName
	}

	// The owner must be a member of the same organization.
	if _, err := s.subjects.GetSubject(ctx, orgID, types.SubjectMember, ownerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Guest{}, ErrUnknownSubject
		}
		return types.Guest{}, fmt.Errorf("resolve owner: %w", err)
	}

	g := types.Guest{
		ID:            uuid.NewString(),
		OrgID:         orgID,
		OwnerMemberID: ownerID,
		DisplayName:   name,
		Phone:         strings.TrimSpace(p.Phone),
		Email:         strings.TrimSpace(p.Email),
		IsActive:      true,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.guests.CreateGuest(ctx, orgID, g); err != nil {
		return types.Guest{}, fmt.Errorf("persist guest: %w", err)
	}

	return g, nil
}

// Delete removes the guest and all of its credentials. Audit entries that
// reference the guest are retained.
func (s *GuestService) Delete(ctx context.Context, orgID, guestID string) error {
	orgID = strings.TrimSpace(orgID)
	guestID = strings.TrimSpace(guestID)
	if orgID == "" {
		return ErrInvalidOrgID
	}
	if guestID == "" {
		return store.ErrNotFound
	}

	if err := s.guests.DeleteGuest(ctx, orgID, guestID); err != nil {
		return err
	}

	s.logger.Info().
		Str("org_id", orgID).
		Str("guest_id", guestID).
		Msg("guest deleted with credentials")
	return nil
}
