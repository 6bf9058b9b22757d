package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatewarden/server/internal/gatewarden/service"
	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

type Dependencies struct {
	Logger zerolog.Logger
	Addr   string

	Issuer      *service.Issuer
	Validator   *service.Validator
	Debouncer   *service.ScanDebouncer
	Credentials *service.CredentialService
	Guests      *service.GuestService
	AccessLogs  store.AccessLogStore
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
	mux        *http.ServeMux

	issuer      *service.Issuer
	validator   *service.Validator
	debouncer   *service.ScanDebouncer
	credentials *service.CredentialService
	guests      *service.GuestService
	accessLogs  store.AccessLogStore
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:      d.Logger,
		mux:         mux,
		issuer:      d.Issuer,
		validator:   d.Validator,
		debouncer:   d.Debouncer,
		credentials: d.Credentials,
		guests:      d.Guests,
		accessLogs:  d.AccessLogs,
	}

	mux.HandleFunc("POST /v1/credentials", s.handleIssue)
	mux.HandleFunc("GET /v1/credentials", s.handleListCredentials)
	mux.HandleFunc("POST /v1/credentials/{id}/active", s.handleSetActive)
	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("GET /v1/access-logs", s.handleListAccessLogs)
	mux.HandleFunc("POST /v1/guests", s.handleCreateGuest)
	mux.HandleFunc("DELETE /v1/guests/{id}", s.handleDeleteGuest)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req types.IssueRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	params := service.IssueParams{
		OrgID:       req.OrgID,
		SubjectKind: req.SubjectKind,
		SubjectID:   req.SubjectID,
		Purpose:     req.Purpose,
		ValidUntil:  req.ValidUntil,
	}
	if req.ValidFrom != nil {
		params.ValidFrom = *req.ValidFrom
	}

	issued, err := s.issuer.Issue(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrgID),
			errors.Is(err, service.ErrInvalidSubjectID),
			errors.Is(err, service.ErrInvalidSubjectKind):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, service.ErrInvalidWindow):
			writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
		case errors.Is(err, service.ErrPurposeRequired):
			writeError(w, http.StatusBadRequest, "purpose_required", err.Error())
		case errors.Is(err, service.ErrUnknownSubject):
			writeError(w, http.StatusNotFound, "unknown_subject", err.Error())
		default:
			s.logger.Error().Err(err).Msg("issue error")
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, types.IssueResponse{
		OK:         true,
		Credential: issued.Credential,
		ManualCode: issued.ManualCode,
		QRPayload:  issued.QRPayload,
	})
}

func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	creds, err := s.credentials.ListForSubject(r.Context(),
		q.Get("org_id"),
		types.SubjectKind(q.Get("subject_kind")),
		q.Get("subject_id"),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrgID),
			errors.Is(err, service.ErrInvalidSubjectID),
			errors.Is(err, service.ErrInvalidSubjectKind):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			s.logger.Error().Err(err).Msg("list credentials error")
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, types.CredentialListResponse{OK: true, Credentials: creds})
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	credentialID := r.PathValue("id")

	var req types.SetActiveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	err := s.credentials.SetActive(r.Context(), req.OrgID, credentialID, req.Active)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrgID):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "credential_not_found", "no such credential in organization")
		default:
			s.logger.Error().Err(err).Msg("set active error")
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req types.ValidateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	if !req.Method.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_method", "method must be qr_scan or manual_code")
		return
	}

	var presented types.PresentedCredential
	switch req.Method {
	case types.MethodQRScan:
		// Duplicate camera frames of one physical scan are acknowledged
		// without running validation or writing an audit entry.
		if !s.debouncer.ShouldProcess(req.DeviceSessionID, req.Data) {
			writeJSON(w, http.StatusOK, types.ValidateResponse{OK: true, Duplicate: true})
			return
		}
		presented = types.ParseScanPayload(req.Data)
	case types.MethodManualCode:
		presented = types.PresentedManualCode(req.Data)
	}

	result, err := s.validator.Validate(r.Context(), service.ValidationInput{
		OrgID:     req.OrgID,
		GuardID:   req.GuardID,
		Presented: presented,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrgID),
			errors.Is(err, service.ErrInvalidGuardID),
			errors.Is(err, service.ErrInvalidPresentation):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			s.logger.Error().Err(err).Msg("validate error")
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, types.ValidateResponse{OK: true, Result: &result})
}

func (s *Server) handleListAccessLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orgID := q.Get("org_id")
	if orgID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "org_id is required")
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := s.accessLogs.ListByOrg(r.Context(), orgID, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list access logs error")
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	entries := make([]types.AccessLogEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, types.AccessLogEntry{
			EntryID:      rec.EntryID,
			OrgID:        rec.OrgID,
			CredentialID: rec.CredentialID,
			SubjectKind:  rec.SubjectKind,
			SubjectID:    rec.SubjectID,
			GuardID:      rec.GuardID,
			GuardName:    rec.GuardName,
			Method:       types.Method(rec.Method),
			Verdict:      types.Verdict(rec.Verdict),
			NotedAt:      rec.NotedAt,
		})
	}

	writeJSON(w, http.StatusOK, types.AccessLogListResponse{OK: true, Entries: entries})
}

func (s *Server) handleCreateGuest(w http.ResponseWriter, r *http.Request) {
	var req types.CreateGuestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	guest, err := s.guests.Create(r.Context(), service.CreateGuestParams{
		OrgID:         req.OrgID,
		OwnerMemberID: req.OwnerMemberID,
		DisplayName:   req.DisplayName,
		Phone:         req.Phone,
		Email:         req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrgID),
			errors.Is(err, service.ErrInvalidOwner),
			errors.Is(err, service.ErrInvalidGuestName):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, service.ErrUnknownSubject):
			writeError(w, http.StatusNotFound, "unknown_member", err.Error())
		default:
			s.logger.Error().Err(err).Msg("create guest error")
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, types.GuestResponse{OK: true, Guest: guest})
}

func (s *Server) handleDeleteGuest(w http.ResponseWriter, r *http.Request) {
	guestID := r.PathValue("id")
	orgID := r.URL.Query().Get("org_id")

	err := s.guests.Delete(r.Context(), orgID, guestID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrgID):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "guest_not_found", "no such guest in organization")
		default:
			s.logger.Error().Err(err).Msg("delete guest error")
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
