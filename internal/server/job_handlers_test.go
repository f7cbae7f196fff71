package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guildboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createJobViaAPI(t *testing.T, app *fiber.App, token string, body string) uint {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/job/", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return uint(payload["id"].(float64))
}

func TestCreateJobValidatesType(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, token := createUser(t, s, "recruiter", "recruiter@example.com")

	body := []byte(`{"title":"Engineer","company":"Acme","description":"Go work","type":"gig"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/job/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, payload["message"], "Unknown job type")

	jobID := createJobViaAPI(t, app, token,
		`{"title":"Engineer","company":"Acme","description":"Go work","type":"contract"}`)
	assert.NotZero(t, jobID)
}

func TestGetJobsPaginationEnvelope(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, token := createUser(t, s, "lister", "lister@example.com")

	for i := 0; i < 3; i++ {
		createJobViaAPI(t, app, token,
			fmt.Sprintf(`{"title":"Role %d","company":"Acme","description":"work"}`, i))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/job/?page=1&limit=2", nil)
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	pagination, ok := payload["pagination"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(2), pagination["limit"])
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["total_pages"])

	data, ok := payload["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestApplyTwiceRejected(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, posterToken := createUser(t, s, "jposter", "jposter@example.com")
	_, applicantToken := createUser(t, s, "japplicant", "japplicant@example.com")
	jobID := createJobViaAPI(t, app, posterToken,
		`{"title":"Backend","company":"Acme","description":"Go"}`)

	applyURL := fmt.Sprintf("/api/job/%d/apply", jobID)
	body := []byte(`{"resume":"my resume","cover_letter":"hi"}`)

	req := httptest.NewRequest(http.MethodPut, applyURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+applicantToken)
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "applied", payload["status"])

	req = httptest.NewRequest(http.MethodPut, applyURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+applicantToken)
	resp, payload = doRequest(t, app, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, payload["message"], "Already applied")
}

func TestApplyPastDeadlineRejected(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, posterToken := createUser(t, s, "dposter", "dposter@example.com")
	_, applicantToken := createUser(t, s, "dapplicant", "dapplicant@example.com")

	deadline := time.Now().Add(-time.Hour).Format(time.RFC3339)
	jobID := createJobViaAPI(t, app, posterToken,
		fmt.Sprintf(`{"title":"Late","company":"Acme","description":"slow","application_deadline":%q}`, deadline))

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/job/%d/apply", jobID), nil)
	req.Header.Set("Authorization", "Bearer "+applicantToken)
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, payload["message"], "deadline")
}

func TestSaveJobToggles(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, posterToken := createUser(t, s, "sposter", "sposter@example.com")
	_, userToken := createUser(t, s, "saver", "saver@example.com")
	jobID := createJobViaAPI(t, app, posterToken,
		`{"title":"Saveable","company":"Acme","description":"bookmark me"}`)

	saveURL := fmt.Sprintf("/api/job/%d/save", jobID)
	for _, want := range []bool{true, false, true} {
		req := httptest.NewRequest(http.MethodPut, saveURL, nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		resp, payload := doRequest(t, app, req)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, want, payload["saved"])
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/me/jobs/saved", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApplicationStatusPosterOnly(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, posterToken := createUser(t, s, "stposter", "stposter@example.com")
	applicant, applicantToken := createUser(t, s, "stapplicant", "stapplicant@example.com")
	jobID := createJobViaAPI(t, app, posterToken,
		`{"title":"Pipeline","company":"Acme","description":"stages"}`)

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/job/%d/apply", jobID), nil)
	req.Header.Set("Authorization", "Bearer "+applicantToken)
	resp, _ := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	statusURL := fmt.Sprintf("/api/job/%d/application/%d", jobID, applicant.ID)

	// Unknown status is rejected before any ownership check.
	body := []byte(`{"status":"ghosted"}`)
	req = httptest.NewRequest(http.MethodPut, statusURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+posterToken)
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, payload["message"], "Unknown application status")

	// Only the poster may set the status.
	body = []byte(`{"status":"interview"}`)
	req = httptest.NewRequest(http.MethodPut, statusURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+applicantToken)
	resp, _ = doRequest(t, app, req)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPut, statusURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+posterToken)
	resp, _ = doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	application, err := s.jobRepo.GetApplication(t.Context(), jobID, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusInterview, application.Status)
}

func TestDeleteJobPosterOnly(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, posterToken := createUser(t, s, "delposter", "delposter@example.com")
	_, otherToken := createUser(t, s, "delother", "delother@example.com")
	jobID := createJobViaAPI(t, app, posterToken,
		`{"title":"Temp","company":"Acme","description":"short lived"}`)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/job/%d", jobID), nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	resp, _ := doRequest(t, app, req)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/job/%d", jobID), nil)
	req.Header.Set("Authorization", "Bearer "+posterToken)
	resp, _ = doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
