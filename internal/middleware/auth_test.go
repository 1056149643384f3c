package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAuth_RoundTrip(t *testing.T) {
	auth := NewClientAuth("secret")
	id := uuid.New()

	token, err := auth.GenerateClientToken(id)
	require.NoError(t, err)

	got, err := auth.ParseClientToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestClientAuth_RejectsForeignSecret(t *testing.T) {
	token, err := NewClientAuth("other").GenerateClientToken(uuid.New())
	require.NoError(t, err)

	_, err = NewClientAuth("secret").ParseClientToken(token)
	assert.Error(t, err)
}

func TestClientAuth_Middleware(t *testing.T) {
	auth := NewClientAuth("secret")
	id := uuid.New()
	valid, err := auth.GenerateClientToken(id)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"client_id": id.String(),
		"exp":       time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noClaim, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, id.String()},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, id.String()},
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"missing client id", "Bearer " + noClaim, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetClientID(r.Context()).String()))
	})

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			auth.Middleware(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.wantBody)
		})
	}
}

func TestGetClientID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, uuid.Nil, GetClientID(req.Context()))
}
