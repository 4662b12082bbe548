package facades

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIdentityFacade_RequestCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/otp/request", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "trader@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]string{"challenge_id": "ch-123"})
	}))
	defer srv.Close()

	f := NewIdentityFacade(srv.URL)

	challengeID, err := f.RequestCode(context.Background(), "trader@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "ch-123", challengeID)
}

func TestIdentityFacade_VerifyCode(t *testing.T) {
	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/otp/verify", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ch-123", body["challenge_id"])

		if body["code"] != "424242" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"user_id": userID.String()})
	}))
	defer srv.Close()

	f := NewIdentityFacade(srv.URL)

	got, err := f.VerifyCode(context.Background(), "ch-123", "424242")
	assert.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = f.VerifyCode(context.Background(), "ch-123", "000000")
	assert.ErrorIs(t, err, ErrCodeRejected)
}

func TestIdentityFacade_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewIdentityFacade(srv.URL)

	_, err := f.RequestCode(context.Background(), "trader@example.com")
	assert.Error(t, err)

	_, err = f.VerifyCode(context.Background(), "ch", "123456")
	assert.Error(t, err)
}

func TestIdentityFacade_InvalidUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"user_id": "not-a-uuid"})
	}))
	defer srv.Close()

	f := NewIdentityFacade(srv.URL)

	_, err := f.VerifyCode(context.Background(), "ch", "123456")
	assert.Error(t, err)
}
