package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestJWTAuth(t *testing.T) {
	app := testApp(t, ServerConfig{Auth: AuthConfig{Mode: AuthJWT, Secret: testSecret, Issuer: "energyd"}})
	now := time.Now()

	valid, err := IssueToken(testSecret, "energyd", "alice", time.Hour, now)
	require.NoError(t, err)
	wrongSecret, err := IssueToken("other-secret", "energyd", "alice", time.Hour, now)
	require.NoError(t, err)
	wrongIssuer, err := IssueToken(testSecret, "someone-else", "alice", time.Hour, now)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "energyd", "alice", time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	noSubject, err := IssueToken(testSecret, "energyd", "", time.Hour, now)
	require.NoError(t, err)
	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.RegisteredClaims{
		Subject: "alice", Issuer: "energyd",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name     string
		headers  map[string]string
		wantCode int
		wantType string
	}{
		{"valid token", bearer(valid), http.StatusOK, ""},
		{"missing header", nil, http.StatusUnauthorized, "missing_auth"},
		{"basic scheme", map[string]string{"Authorization": "Basic YWxpY2U6cHc="}, http.StatusUnauthorized, "invalid_auth_scheme"},
		{"wrong secret", bearer(wrongSecret), http.StatusUnauthorized, "invalid_token"},
		{"wrong issuer", bearer(wrongIssuer), http.StatusUnauthorized, "invalid_token"},
		{"expired", bearer(expired), http.StatusUnauthorized, "invalid_token"},
		{"no subject", bearer(noSubject), http.StatusUnauthorized, "invalid_token"},
		{"unexpected algorithm", bearer(hs384), http.StatusUnauthorized, "invalid_token"},
		{"garbage", bearer("not-a-jwt"), http.StatusUnauthorized, "invalid_token"},
		{"header mode identity ignored", map[string]string{UserHeader: "alice"}, http.StatusUnauthorized, "missing_auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := do(t, app, http.MethodGet, "/api/v1/streams", nil, tt.headers)
			assert.Equal(t, tt.wantCode, r.status, string(r.body))
			if tt.wantType != "" {
				p := r.problem(t)
				assert.Equal(t, tt.wantType, p.Type)
				assert.Equal(t, "/api/v1/streams", p.Instance)
			}
		})
	}
}

func TestJWTAuth_SubjectIsActor(t *testing.T) {
	app := testApp(t, ServerConfig{Auth: AuthConfig{Mode: AuthJWT, Secret: testSecret}})
	token, err := IssueToken(testSecret, "", "bob", time.Hour, time.Now())
	require.NoError(t, err)

	r := do(t, app, http.MethodGet, "/api/v1/users/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, r.status)
	var user struct {
		ID string `json:"id"`
	}
	r.decode(t, &user)
	assert.Equal(t, "bob", user.ID)
}

func TestHeaderAuth(t *testing.T) {
	app := headerApp(t)

	r := do(t, app, http.MethodGet, "/api/v1/streams", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "missing_identity", r.problem(t).Type)

	r = do(t, app, http.MethodGet, "/api/v1/streams", nil, map[string]string{UserHeader: "  "})
	assert.Equal(t, http.StatusUnauthorized, r.status)

	assert.Equal(t, http.StatusOK, as(t, app, "alice", http.MethodGet, "/api/v1/streams", nil).status)
}
