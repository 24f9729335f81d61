package handler

import (
	"errors"
	"net/http"

	"chirper-api/internal/httputil"
	"chirper-api/internal/model"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Handlers call this after handling any endpoint-specific cases.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, err.Error())

	case errors.Is(err, model.ErrDuplicateUser),
		errors.Is(err, model.ErrAlreadyVerified),
		errors.Is(err, model.ErrAvatarExists),
		errors.Is(err, model.ErrHeaderExists):
		httputil.WriteConflict(w, err.Error())

	case errors.Is(err, model.ErrNotPostOwner),
		errors.Is(err, model.ErrNotVerified):
		httputil.WriteForbidden(w, err.Error())

	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrInvalidToken):
		httputil.WriteUnauthorized(w, err.Error())

	case errors.Is(err, model.ErrMissingFields),
		errors.Is(err, model.ErrSelfFollow),
		errors.Is(err, model.ErrContentRequired),
		errors.Is(err, model.ErrInvalidMediaType),
		errors.Is(err, model.ErrMediaLimitExceeded),
		errors.Is(err, model.ErrFileTooLarge),
		errors.Is(err, model.ErrNoFileUploaded),
		errors.Is(err, model.ErrNoAvatar),
		errors.Is(err, model.ErrNoHeader):
		httputil.WriteBadRequest(w, err.Error())

	default:
		httputil.WriteInternalError(w, "Something went wrong")
	}
}
