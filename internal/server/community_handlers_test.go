package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"guildboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createCommunityViaAPI(t *testing.T, app *fiber.App, token, name, slug string) uint {
	t.Helper()

	body := fmt.Appendf(nil, `{"name":%q,"slug":%q,"description":"test community"}`, name, slug)
	req := httptest.NewRequest(http.MethodPost, "/api/community/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, ok := payload["id"].(float64)
	require.True(t, ok)
	return uint(id)
}

func TestCreateCommunityMakesCreatorModerator(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	creator, token := createUser(t, s, "founder", "founder@example.com")
	communityID := createCommunityViaAPI(t, app, token, "Gophers", "gophers")

	membership, err := s.communityRepo.GetMembership(t.Context(), communityID, creator.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, models.CommunityRoleModerator, membership.Role)
}

func TestJoinAndLeaveWithBodyUserID(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, token := createUser(t, s, "founder2", "founder2@example.com")
	member, _ := createUser(t, s, "member2", "member2@example.com")
	communityID := createCommunityViaAPI(t, app, token, "Joiners", "joiners")

	// Join without a token, identifying via re-validated body user_id.
	body := fmt.Appendf(nil, `{"user_id":%d}`, member.ID)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/community/%d/join", communityID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	membership, err := s.communityRepo.GetMembership(t.Context(), communityID, member.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)

	// Leave the same way.
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/community/%d/leave", communityID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	membership, err = s.communityRepo.GetMembership(t.Context(), communityID, member.ID)
	require.NoError(t, err)
	assert.Nil(t, membership)
}

func TestJoinWithUnknownUserIDRejected(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, token := createUser(t, s, "founder3", "founder3@example.com")
	communityID := createCommunityViaAPI(t, app, token, "Strict", "strict")

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/community/%d/join", communityID), bytes.NewReader([]byte(`{"user_id":9999}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := doRequest(t, app, req)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLastModeratorCannotLeave(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	moderator, token := createUser(t, s, "solemod", "solemod@example.com")
	member, _ := createUser(t, s, "hanger-on", "hangeron@example.com")
	communityID := createCommunityViaAPI(t, app, token, "Sticky", "sticky")
	require.NoError(t, s.communityRepo.Join(t.Context(), communityID, member.ID))

	body := fmt.Appendf(nil, `{"user_id":%d}`, moderator.ID)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/community/%d/leave", communityID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, payload["message"], "last moderator")
}

func TestUpdateCommunityModeratorOnly(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, modToken := createUser(t, s, "cmod", "cmod@example.com")
	member, memberToken := createUser(t, s, "cmember", "cmember@example.com")
	communityID := createCommunityViaAPI(t, app, modToken, "Editable", "editable")
	require.NoError(t, s.communityRepo.Join(t.Context(), communityID, member.ID))

	body := []byte(`{"description":"updated"}`)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/community/%d", communityID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+memberToken)
	resp, _ := doRequest(t, app, req)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/community/%d", communityID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+modToken)
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "updated", payload["description"])
}

func TestNotificationToggleRequiresMembership(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, modToken := createUser(t, s, "nmod", "nmod@example.com")
	_, strangerToken := createUser(t, s, "nstranger", "nstranger@example.com")
	communityID := createCommunityViaAPI(t, app, modToken, "Noisy", "noisy")

	body := []byte(`{"enabled":true}`)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/community/%d/notifications", communityID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+strangerToken)
	resp, _ := doRequest(t, app, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Member toggles fine; absent "enabled" flips the current value.
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/community/%d/notifications", communityID), bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+modToken)
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, payload["notifications"])
}
