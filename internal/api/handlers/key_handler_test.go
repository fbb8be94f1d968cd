package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"movie-api/internal/middleware"
	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func withIdentity(req *http.Request, identity *models.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func TestListKeysNeverExposesSecrets(t *testing.T) {
	revokedAt := time.Now()
	creds := &stubCredentials{list: []models.Credential{
		{ID: uuid.New(), SecretHash: "deadbeef", DisplayPrefix: "mk_aaaaaaaa", Active: true},
		{ID: uuid.New(), SecretHash: "cafebabe", DisplayPrefix: "mk_bbbbbbbb", Active: false, RevokedAt: &revokedAt},
	}}
	h := NewKeyHandler(creds)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/user/keys", nil), &models.Identity{AccountID: uuid.New()})
	rec := httptest.NewRecorder()
	h.ListKeys(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadbeef")
	keys := decodeBody(t, rec)["keys"].([]interface{})
	assert.Len(t, keys, 2)
	assert.Equal(t, "mk_bbbbbbbb", keys[1].(map[string]interface{})["display_prefix"])
}

func TestIssueKey(t *testing.T) {
	creds := &stubCredentials{}
	h := NewKeyHandler(creds)
	accountID := uuid.New()

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/user/keys", nil), &models.Identity{AccountID: accountID})
	rec := httptest.NewRecorder()
	h.IssueKey(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "mk_raw-secret", body["api_key"])
	assert.Equal(t, accountID, creds.issued.AccountID)
}

func TestRevokeKey(t *testing.T) {
	accountID, keyID := uuid.New(), uuid.New()

	tests := []struct {
		name       string
		id         string
		err        error
		wantStatus int
	}{
		{"revoked", keyID.String(), nil, http.StatusNoContent},
		{"not owned", keyID.String(), apperrors.ErrNotFound, http.StatusNotFound},
		{"bad id", "nope", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := &stubCredentials{revokeErr: tt.err}
			h := NewKeyHandler(creds)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/user/keys/"+tt.id, nil)
			req = mux.SetURLVars(withIdentity(req, &models.Identity{AccountID: accountID}), map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()
			h.RevokeKey(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusBadRequest {
				assert.Equal(t, accountID, creds.revokedFor)
				assert.Equal(t, keyID, creds.revokedID)
			}
		})
	}
}
