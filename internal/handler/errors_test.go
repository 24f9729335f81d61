package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chirper-api/internal/httputil"
	"chirper-api/internal/model"
)

func TestWriteServiceError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"user not found", model.ErrUserNotFound, http.StatusNotFound, httputil.ErrCodeNotFound},
		{"post not found", model.ErrPostNotFound, http.StatusNotFound, httputil.ErrCodeNotFound},
		{"duplicate user", model.ErrDuplicateUser, http.StatusConflict, httputil.ErrCodeConflict},
		{"already verified", model.ErrAlreadyVerified, http.StatusConflict, httputil.ErrCodeConflict},
		{"not post owner", model.ErrNotPostOwner, http.StatusForbidden, httputil.ErrCodeForbidden},
		{"not verified", model.ErrNotVerified, http.StatusForbidden, httputil.ErrCodeForbidden},
		{"invalid credentials", model.ErrInvalidCredentials, http.StatusUnauthorized, httputil.ErrCodeUnauthorized},
		{"self follow", model.ErrSelfFollow, http.StatusBadRequest, httputil.ErrCodeBadRequest},
		{"media limit", model.ErrMediaLimitExceeded, http.StatusBadRequest, httputil.ErrCodeBadRequest},
		{"content required", model.ErrContentRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest},
		{"unknown error hides detail", errUnknown, http.StatusInternalServerError, httputil.ErrCodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			var body httputil.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tc.wantCode)
			}
		})
	}
}

var errUnknown = errors.New("driver: connection refused")
