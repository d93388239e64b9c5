package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/testutil"
)

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(raw))
	require.NoError(t, err)
	return resp
}

func TestAuthRoutes_SignupAndLogin(t *testing.T) {
	ts := testutil.NewTestServer(t)

	t.Run("signup issues a session", func(t *testing.T) {
		resp := postJSON(t, ts.APIURL("/users/signup"), map[string]string{
			"name":     "Fresh Signup",
			"email":    "fresh@example.com",
			"password": "password123",
		})
		defer resp.Body.Close()

		var data struct {
			Token string      `json:"token"`
			User  domain.User `json:"user"`
		}
		testutil.AssertSuccessData(t, resp, http.StatusCreated, &data)
		assert.NotEmpty(t, data.Token)
		assert.Equal(t, domain.RoleUser, data.User.Role)

		// The session also travels as an httpOnly cookie.
		var jwtCookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "jwt" {
				jwtCookie = c
			}
		}
		require.NotNil(t, jwtCookie)
		assert.True(t, jwtCookie.HttpOnly)
		assert.Equal(t, data.Token, jwtCookie.Value)
	})

	t.Run("signup cannot grant a role", func(t *testing.T) {
		resp := postJSON(t, ts.APIURL("/users/signup"), map[string]string{
			"name":     "Wannabe Admin",
			"email":    "wannabe@example.com",
			"password": "password123",
			"role":     "admin",
		})
		defer resp.Body.Close()

		var data struct {
			User domain.User `json:"user"`
		}
		testutil.AssertSuccessData(t, resp, http.StatusCreated, &data)
		assert.Equal(t, domain.RoleUser, data.User.Role)
	})

	t.Run("missing credentials on login", func(t *testing.T) {
		resp := postJSON(t, ts.APIURL("/users/login"), map[string]string{"email": "fresh@example.com"})
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "please provide email and password")
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		wrongPass := postJSON(t, ts.APIURL("/users/login"), map[string]string{
			"email":    "fresh@example.com",
			"password": "wrongpassword",
		})
		defer wrongPass.Body.Close()
		unknown := postJSON(t, ts.APIURL("/users/login"), map[string]string{
			"email":    "ghost@example.com",
			"password": "password123",
		})
		defer unknown.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, wrongPass.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
		envA := testutil.DecodeEnvelope(t, wrongPass)
		envB := testutil.DecodeEnvelope(t, unknown)
		assert.Equal(t, envA.Message, envB.Message)
	})
}

func TestAuthRoutes_MeRoutes(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := &http.Client{}

	user, token := testutil.NewUserBuilder().WithName("Self Service").BuildAndLogin(t, ts)

	t.Run("me requires a session", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/users/me"))
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "not logged in")
	})

	t.Run("me returns the current identity", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users/me"), nil, token)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var me domain.User
		testutil.AssertSuccessData(t, resp, http.StatusOK, &me)
		assert.Equal(t, user.ID, me.ID)
	})

	t.Run("update-me changes profile fields only", func(t *testing.T) {
		body := map[string]any{"name": "Renamed Self", "photo": "me.jpg"}
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPatch, ts.APIURL("/users/update-me"), body, token)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var me domain.User
		testutil.AssertSuccessData(t, resp, http.StatusOK, &me)
		assert.Equal(t, "Renamed Self", me.Name)
		assert.Equal(t, "me.jpg", me.Photo)
	})

	t.Run("update-me refuses password changes", func(t *testing.T) {
		body := map[string]any{"password": "sneakypassword"}
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPatch, ts.APIURL("/users/update-me"), body, token)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "/update-password")
	})

	t.Run("delete-me deactivates the session", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodDelete, ts.APIURL("/users/delete-me"), nil, token)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		// The old token no longer verifies against the deactivated row.
		meReq := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users/me"), nil, token)
		meResp, err := client.Do(meReq)
		require.NoError(t, err)
		defer meResp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, meResp.StatusCode)
	})
}

func TestAuthRoutes_AdminGating(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := &http.Client{}

	_, userToken := testutil.NewUserBuilder().BuildAndLogin(t, ts)
	_, adminToken := testutil.NewUserBuilder().WithRole(domain.RoleAdmin).BuildAndLogin(t, ts)

	t.Run("plain users cannot list accounts", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users"), nil, userToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusForbidden, "permission")
	})

	t.Run("admins list only active accounts", func(t *testing.T) {
		testutil.NewUserBuilder().Inactive().Build(t, ts.DB.DB)

		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users"), nil, adminToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		env := testutil.DecodeEnvelope(t, resp)
		require.Equal(t, "success", env.Status)
		require.NotNil(t, env.Results)
		assert.Equal(t, 2, *env.Results)
	})
}
