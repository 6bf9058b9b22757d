package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

var (
	ErrInvalidGuardID      = errors.New("guard_id is required")
	ErrInvalidPresentation = errors.New("presented credential is empty or malformed")
)

// Validator decides one validation attempt: resolve the presented
// credential inside the organization, apply activity and temporal rules,
// append exactly one audit entry, return the verdict.
//
// Validation never mutates credential state, so concurrent scans of the
// same credential at different access points are race-free; the audit
// append is the only write.
type Validator struct {
	credentials store.CredentialStore
	subjects    store.SubjectStore
	audit       *AuditRecorder
	guards      *GuardDirectory
	now         func() time.Time
	logger      zerolog.Logger
}

func NewValidator(
	credentials store.CredentialStore,
	subjects store.SubjectStore,
	audit *AuditRecorder,
	guards *GuardDirectory,
	logger zerolog.Logger,
) *Validator {
	return &Validator{
		credentials: credentials,
		subjects:    subjects,
		audit:       audit,
		guards:      guards,
		now:         time.Now,
		logger:      logger,
	}
}

type ValidationInput struct {
	OrgID     string
	GuardID   string
	Presented types.PresentedCredential
}

// Validate runs the full decision for one attempt. Malformed input (missing
// org or guard, empty presentation) is returned as an error and records no
// audit entry; every attempt that reaches resolution produces exactly one
// entry regardless of verdict, including NotFound and SystemError.
func (v *Validator) Validate(ctx context.Context, in ValidationInput) (types.VerdictResult, error) {
	orgID := strings.TrimSpace(in.OrgID)
	guardID := strings.TrimSpace(in.GuardID)

	if orgID == "" {
		return types.VerdictResult{}, ErrInvalidOrgID
	}
	if guardID == "" {
		return types.VerdictResult{}, ErrInvalidGuardID
	}

	switch in.Presented.Method {
	case types.MethodQRScan:
		if in.Presented.Hash == "" {
			return types.VerdictResult{}, ErrInvalidPresentation
		}
	case types.MethodManualCode:
		if in.Presented.Code == "" {
			return types.VerdictResult{}, ErrInvalidPresentation
		}
	default:
		return types.VerdictResult{}, ErrInvalidPresentation
	}

	now := v.now().UTC()

	cred, subject, verdict := v.resolve(ctx, orgID, in.Presented, now)

	if verdict == "" {
		verdict = decideVerdict(cred, subject, now)
	}

	v.record(ctx, orgID, guardID, in.Presented.Method, verdict, cred, subject, now)

	return buildResult(verdict, cred, subject, now), nil
}

// resolve maps the presented credential to a candidate credential and its
// subject. A non-empty verdict short-circuits the temporal rules: either
// nothing resolved (NotFound) or the store failed (SystemError).
func (v *Validator) resolve(
	ctx context.Context,
	orgID string,
	presented types.PresentedCredential,
	now time.Time,
) (*types.Credential, *store.SubjectRecord, types.Verdict) {
	switch presented.Method {
	case types.MethodQRScan:
		return v.resolveHash(ctx, orgID, presented.Hash)
	default:
		return v.resolveManualCode(ctx, orgID, presented.Code, now)
	}
}

func (v *Validator) resolveHash(ctx context.Context, orgID, hash string) (*types.Credential, *store.SubjectRecord, types.Verdict) {
	cred, err := v.credentials.GetBySecretHash(ctx, orgID, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, types.VerdictNotFound
	}
	if err != nil {
		v.logger.Warn().Err(err).Str("org_id", orgID).Msg("credential lookup failed")
		return nil, nil, types.VerdictSystemError
	}

	subject, err := v.subjects.GetSubject(ctx, orgID, cred.SubjectKind, cred.SubjectID)
	if errors.Is(err, store.ErrNotFound) {
		// Orphaned credential: its subject is gone. Treat as unresolvable.
		return &cred, nil, types.VerdictNotFound
	}
	if err != nil {
		v.logger.Warn().Err(err).Str("org_id", orgID).Msg("subject lookup failed")
		return &cred, nil, types.VerdictSystemError
	}

	return &cred, &subject, ""
}

// resolveManualCode enumerates the organization's subjects and finds the
// one whose derived code matches. Manual codes are only ever resolved
// through this entry point, never as a fallback from a failed QR parse.
func (v *Validator) resolveManualCode(ctx context.Context, orgID, code string, now time.Time) (*types.Credential, *store.SubjectRecord, types.Verdict) {
	subjects, err := v.subjects.ListSubjects(ctx, orgID)
	if err != nil {
		v.logger.Warn().Err(err).Str("org_id", orgID).Msg("subject enumeration failed")
		return nil, nil, types.VerdictSystemError
	}

	var match *store.SubjectRecord
	for i := range subjects {
		if DeriveManualCode(subjects[i].ID) == code {
			match = &subjects[i]
			break
		}
	}
	if match == nil {
		return nil, nil, types.VerdictNotFound
	}

	creds, err := v.credentials.ListBySubject(ctx, orgID, match.Kind, match.ID)
	if err != nil {
		v.logger.Warn().Err(err).Str("org_id", orgID).Msg("credential enumeration failed")
		return nil, match, types.VerdictSystemError
	}
	if len(creds) == 0 {
		return nil, match, types.VerdictNotFound
	}

	// Prefer a credential that would grant right now; otherwise classify
	// against the newest one so the guard sees Expired or Inactive rather
	// than a bare NotFound.
	for i := range creds {
		if creds[i].IsActive && creds[i].InWindow(now) {
			return &creds[i], match, ""
		}
	}
	return &creds[0], match, ""
}

func decideVerdict(cred *types.Credential, subject *store.SubjectRecord, now time.Time) types.Verdict {
	if cred == nil || subject == nil {
		return types.VerdictNotFound
	}

	if !subject.Active || !cred.IsActive {
		return types.VerdictInactive
	}
	if now.Before(cred.ValidFrom) {
		return types.VerdictNotYetValid
	}
	if !now.Before(cred.ValidUntil) {
		// Half-open window: a scan at exactly validUntil is expired.
		return types.VerdictExpired
	}
	return types.VerdictGranted
}

// record appends the audit entry for this attempt. Guard name enrichment
// is best-effort and never blocks the verdict path.
func (v *Validator) record(
	ctx context.Context,
	orgID, guardID string,
	method types.Method,
	verdict types.Verdict,
	cred *types.Credential,
	subject *store.SubjectRecord,
	now time.Time,
) {
	rec := store.AccessLogRecord{
		OrgID:     orgID,
		GuardID:   guardID,
		GuardName: v.guards.DisplayName(ctx, orgID, guardID),
		Method:    string(method),
		Verdict:   string(verdict),
		NotedAt:   now,
	}
	if cred != nil {
		rec.CredentialID = cred.ID
		rec.SubjectKind = string(cred.SubjectKind)
		rec.SubjectID = cred.SubjectID
	} else if subject != nil {
		rec.SubjectKind = string(subject.Kind)
		rec.SubjectID = subject.ID
	}

	v.audit.Record(ctx, rec)
}

func buildResult(verdict types.Verdict, cred *types.Credential, subject *store.SubjectRecord, now time.Time) types.VerdictResult {
	res := types.VerdictResult{
		Granted:    verdict == types.VerdictGranted,
		Verdict:    verdict,
		ServerTime: now.Format(time.RFC3339Nano),
	}

	if subject == nil {
		return res
	}

	switch verdict {
	case types.VerdictGranted:
		// Full display context for the guard on a grant.
		summary := &types.SubjectSummary{
			Kind:        subject.Kind,
			ID:          subject.ID,
			DisplayName: subject.DisplayName,
			Unit:        subject.Unit,
		}
		if cred != nil {
			summary.Purpose = cred.Purpose
			until := cred.ValidUntil
			summary.ValidUntil = &until
		}
		res.Subject = summary
	case types.VerdictExpired, types.VerdictInactive, types.VerdictNotYetValid:
		// Name-only context so the guard can tell whose credential this
		// was without disclosing contact details on a denial.
		res.Subject = &types.SubjectSummary{
			Kind:        subject.Kind,
			ID:          subject.ID,
			DisplayName: subject.DisplayName,
		}
	}

	return res
}
