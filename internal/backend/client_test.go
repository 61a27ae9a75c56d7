package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshSendsTokenAndParsesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/refresh", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "the-refresh-token", body["refreshToken"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":          "fresh-access",
			"accessTokenExpiresAt": 3600,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	result, err := client.Refresh(context.Background(), "the-refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", result.AccessToken)
	assert.Equal(t, int64(3600), result.ExpiresIn)
}

func TestNonSuccessStatusBecomesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "refresh token revoked", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Refresh(context.Background(), "stale")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
}

func TestFetchProfileSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer access-xyz", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":                 "user-1",
			"role":               4,
			"subscriptionStatus": "active",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	profile, err := client.FetchProfile(context.Background(), "access-xyz")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.ID)
	assert.Equal(t, 4, int(profile.Role))
}

func TestCreateSubscriptionFromAuthorityReturnsRawStatus(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantSub  string
		wantCode int
	}{
		{name: "created with body", status: 201, body: `{"subscriptionId":"sub-5"}`, wantSub: "sub-5", wantCode: 201},
		{name: "empty 200 body", status: 200, body: "", wantSub: "", wantCode: 200},
		{name: "conflict is not an error", status: 409, body: "", wantSub: "", wantCode: 409},
		{name: "unprocessable is not an error", status: 422, body: "", wantSub: "", wantCode: 422},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/subscriptions/from-authority", r.URL.Path)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, time.Second)
			code, subID, err := client.CreateSubscriptionFromAuthority(context.Background(), "access", "auth-1")
			require.NoError(t, err)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantSub, subID)
		})
	}
}
