package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/server/internal/gatewarden/service"
	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/store/memory"
	"github.com/gatewarden/server/internal/gatewarden/types"
	"github.com/gatewarden/server/internal/httpapi"
)

const testOrg = "org-a"

// newTestServer wires the full service stack against in-memory stores,
// seeded with one member, one guest and one guard.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	creds := memory.NewCredentialStore()
	subjects := memory.NewSubjectStore(creds)
	logs := memory.NewAccessLogStore()

	subjects.AddSubject(store.SubjectRecord{
		Kind: types.SubjectMember, ID: "member-001", OrgID: testOrg,
		DisplayName: "Alice Resident", Unit: "Unit 12", Active: true,
	})
	subjects.AddSubject(store.SubjectRecord{
		Kind: types.SubjectGuest, ID: "guest-001", OrgID: testOrg,
		OwnerMemberID: "member-001", DisplayName: "Bob Visitor", Active: true,
	})
	subjects.AddGuard(store.GuardRecord{
		ID: "guard-001", OrgID: testOrg, DisplayName: "Gate Guard", Active: true,
	})

	logger := zerolog.Nop()
	audit := service.NewAuditRecorder(logs, logger)
	guards := service.NewGuardDirectory(subjects)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:      logger,
		Issuer:      service.NewIssuer(creds, subjects, service.IssuerConfig{}, logger),
		Validator:   service.NewValidator(creds, subjects, audit, guards, logger),
		Debouncer:   service.NewScanDebouncer(service.DebounceConfig{}, logger),
		Credentials: service.NewCredentialService(creds, logger),
		Guests:      service.NewGuestService(subjects, subjects, logger),
		AccessLogs:  logs,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func issueCredential(t *testing.T, ts *httptest.Server, kind types.SubjectKind, subjectID, purpose string) types.IssueResponse {
	t.Helper()

	var out types.IssueResponse
	status := postJSON(t, ts.URL+"/v1/credentials", types.IssueRequest{
		OrgID:       testOrg,
		SubjectKind: kind,
		SubjectID:   subjectID,
		Purpose:     purpose,
		ValidUntil:  time.Now().UTC().Add(2 * time.Hour),
	}, &out)
	require.Equal(t, http.StatusOK, status)
	require.True(t, out.OK)
	return out
}

func TestIssueThenValidate(t *testing.T) {
	ts := newTestServer(t)

	issued := issueCredential(t, ts, types.SubjectGuest, "guest-001", "Delivery")
	assert.NotEmpty(t, issued.ManualCode)
	assert.NotEmpty(t, issued.QRPayload)

	var out types.ValidateResponse
	status := postJSON(t, ts.URL+"/v1/validate", types.ValidateRequest{
		OrgID:   testOrg,
		GuardID: "guard-001",
		Method:  types.MethodQRScan,
		Data:    issued.QRPayload,
	}, &out)
	require.Equal(t, http.StatusOK, status)
	require.True(t, out.OK)
	require.NotNil(t, out.Result)

	assert.True(t, out.Result.Granted)
	assert.Equal(t, types.VerdictGranted, out.Result.Verdict)
	require.NotNil(t, out.Result.Subject)
	assert.Equal(t, "Bob Visitor", out.Result.Subject.DisplayName)
	assert.Equal(t, "Delivery", out.Result.Subject.Purpose)
}

func TestValidate_ManualCode(t *testing.T) {
	ts := newTestServer(t)

	issued := issueCredential(t, ts, types.SubjectMember, "member-001", "")

	var out types.ValidateResponse
	status := postJSON(t, ts.URL+"/v1/validate", types.ValidateRequest{
		OrgID:   testOrg,
		GuardID: "guard-001",
		Method:  types.MethodManualCode,
		Data:    issued.ManualCode,
	}, &out)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, out.Result)
	assert.Equal(t, types.VerdictGranted, out.Result.Verdict)
}

func TestValidate_UnknownHashNotFound(t *testing.T) {
	ts := newTestServer(t)

	var out types.ValidateResponse
	status := postJSON(t, ts.URL+"/v1/validate", types.ValidateRequest{
		OrgID:   testOrg,
		GuardID: "guard-001",
		Method:  types.MethodQRScan,
		Data:    "deadbeef",
	}, &out)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, out.Result)
	assert.False(t, out.Result.Granted)
	assert.Equal(t, types.VerdictNotFound, out.Result.Verdict)
	assert.Nil(t, out.Result.Subject)
}

func TestValidate_DebouncesRepeatedFrames(t *testing.T) {
	ts := newTestServer(t)

	issued := issueCredential(t, ts, types.SubjectGuest, "guest-001", "Delivery")

	req := types.ValidateRequest{
		OrgID:           testOrg,
		GuardID:         "guard-001",
		Method:          types.MethodQRScan,
		Data:            issued.QRPayload,
		DeviceSessionID: "tablet-7",
	}

	var first types.ValidateResponse
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/v1/validate", req, &first))
	assert.False(t, first.Duplicate)
	require.NotNil(t, first.Result)

	// Second camera frame of the same scan: acknowledged, not validated.
	var second types.ValidateResponse
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/v1/validate", req, &second))
	assert.True(t, second.OK)
	assert.True(t, second.Duplicate)
	assert.Nil(t, second.Result)

	// Only the first attempt produced an audit entry.
	var logs types.AccessLogListResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/v1/access-logs?org_id="+testOrg, &logs))
	assert.Len(t, logs.Entries, 1)
}

func TestValidate_InvalidMethod(t *testing.T) {
	ts := newTestServer(t)

	status := postJSON(t, ts.URL+"/v1/validate", map[string]string{
		"org_id":   testOrg,
		"guard_id": "guard-001",
		"method":   "nfc_tap",
		"data":     "x",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestIssue_InvalidWindowRejected(t *testing.T) {
	ts := newTestServer(t)

	now := time.Now().UTC()
	from := now
	status := postJSON(t, ts.URL+"/v1/credentials", types.IssueRequest{
		OrgID:       testOrg,
		SubjectKind: types.SubjectGuest,
		SubjectID:   "guest-001",
		Purpose:     "Delivery",
		ValidFrom:   &from,
		ValidUntil:  now.Add(10 * time.Minute),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestIssue_UnknownSubject(t *testing.T) {
	ts := newTestServer(t)

	status := postJSON(t, ts.URL+"/v1/credentials", types.IssueRequest{
		OrgID:       testOrg,
		SubjectKind: types.SubjectMember,
		SubjectID:   "member-unknown",
		ValidUntil:  time.Now().UTC().Add(2 * time.Hour),
	}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSetActive_DeactivatedCredentialGoesInactive(t *testing.T) {
	ts := newTestServer(t)

	issued := issueCredential(t, ts, types.SubjectGuest, "guest-001", "Delivery")

	status := postJSON(t,
		fmt.Sprintf("%s/v1/credentials/%s/active", ts.URL, issued.Credential.ID),
		types.SetActiveRequest{OrgID: testOrg, Active: false}, nil)
	require.Equal(t, http.StatusOK, status)

	var out types.ValidateResponse
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/v1/validate", types.ValidateRequest{
		OrgID:   testOrg,
		GuardID: "guard-001",
		Method:  types.MethodQRScan,
		Data:    issued.QRPayload,
	}, &out))
	require.NotNil(t, out.Result)
	assert.Equal(t, types.VerdictInactive, out.Result.Verdict)
}

func TestSetActive_UnknownCredential(t *testing.T) {
	ts := newTestServer(t)

	status := postJSON(t, ts.URL+"/v1/credentials/nope/active",
		types.SetActiveRequest{OrgID: testOrg, Active: false}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListCredentials(t *testing.T) {
	ts := newTestServer(t)

	issueCredential(t, ts, types.SubjectGuest, "guest-001", "Delivery")
	issueCredential(t, ts, types.SubjectGuest, "guest-001", "Pickup")

	var out types.CredentialListResponse
	status := getJSON(t,
		ts.URL+"/v1/credentials?org_id="+testOrg+"&subject_kind=guest&subject_id=guest-001", &out)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out.Credentials, 2)
}

func TestAccessLogs_RecordEveryAttempt(t *testing.T) {
	ts := newTestServer(t)

	issued := issueCredential(t, ts, types.SubjectGuest, "guest-001", "Delivery")

	validate := func(data string) {
		var out types.ValidateResponse
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/v1/validate", types.ValidateRequest{
			OrgID:   testOrg,
			GuardID: "guard-001",
			Method:  types.MethodQRScan,
			Data:    data,
		}, &out))
	}
	validate(issued.QRPayload)
	validate("deadbeef") // not found, still logged

	var logs types.AccessLogListResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/v1/access-logs?org_id="+testOrg, &logs))
	require.Len(t, logs.Entries, 2)

	verdicts := []types.Verdict{logs.Entries[0].Verdict, logs.Entries[1].Verdict}
	assert.Contains(t, verdicts, types.VerdictGranted)
	assert.Contains(t, verdicts, types.VerdictNotFound)
	for _, e := range logs.Entries {
		assert.Equal(t, "guard-001", e.GuardID)
		assert.NotEmpty(t, e.EntryID)
	}
}

func TestAccessLogs_RequireOrgID(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/v1/access-logs", nil))
}

func TestGuestLifecycle(t *testing.T) {
	ts := newTestServer(t)

	var created types.GuestResponse
	status := postJSON(t, ts.URL+"/v1/guests", types.CreateGuestRequest{
		OrgID:         testOrg,
		OwnerMemberID: "member-001",
		DisplayName:   "Carol Visitor",
	}, &created)
	require.Equal(t, http.StatusOK, status)
	require.True(t, created.OK)
	require.NotEmpty(t, created.Guest.ID)

	// The new guest can get and use a credential.
	issued := issueCredential(t, ts, types.SubjectGuest, created.Guest.ID, "Dinner")

	req, err := http.NewRequest(http.MethodDelete,
		ts.URL+"/v1/guests/"+created.Guest.ID+"?org_id="+testOrg, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Deletion cascades to the guest's credentials.
	var out types.ValidateResponse
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/v1/validate", types.ValidateRequest{
		OrgID:   testOrg,
		GuardID: "guard-001",
		Method:  types.MethodQRScan,
		Data:    issued.QRPayload,
	}, &out))
	require.NotNil(t, out.Result)
	assert.Equal(t, types.VerdictNotFound, out.Result.Verdict)
}

func TestCreateGuest_UnknownOwner(t *testing.T) {
	ts := newTestServer(t)

	status := postJSON(t, ts.URL+"/v1/guests", types.CreateGuestRequest{
		OrgID:         testOrg,
		OwnerMemberID: "member-unknown",
		DisplayName:   "Carol Visitor",
	}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBadJSONBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/validate", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
