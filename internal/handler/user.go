package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"chirper-api/internal/blob"
	"chirper-api/internal/config"
	"chirper-api/internal/httputil"
	"chirper-api/internal/model"
	"chirper-api/internal/service"
	"chirper-api/internal/transport/http/middleware"
)

// UserHandler groups user-related HTTP endpoints.
type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
	config      *config.Config
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
		config:      cfg,
	}
}

// Register handles multipart sign-up with an optional avatar file. A new
// account is signed in immediately: the response carries an access token
// and the refresh cookie is set.
// POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		writeServiceError(w, err)
		return
	}

	req := model.RegisterRequest{
		Username:    strings.TrimSpace(r.FormValue("username")),
		Fullname:    strings.TrimSpace(r.FormValue("fullname")),
		Password:    r.FormValue("password"),
		Email:       strings.TrimSpace(r.FormValue("email")),
		DateOfBirth: strings.TrimSpace(r.FormValue("dateOfBirth")),
	}

	avatar, err := formFile(r, "avatar")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &req, avatar)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pair, err := h.authService.GenerateTokenPair(user)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	setRefreshCookie(w, h.config, pair.RefreshToken)

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"accessToken": pair.AccessToken,
		"expiresIn":   pair.ExpiresIn,
		"user":        user,
	})
}

// List returns all users.
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// GetByID returns one user.
// GET /users/{userId}
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userRef")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// GetCurrent returns the signed-in user's account by username.
// GET /users/current/{username}
func (h *UserHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// Update applies a partial profile update. Users edit only themselves.
// The body is multipart so avatar and header replacements can ride along
// with the text fields; a plain JSON body also works for field-only edits.
// PATCH /users/{userId}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userRef")
	if !ok {
		return
	}
	if !h.requireSelf(w, r, id) {
		return
	}

	var req model.UpdateUserRequest
	var avatar, header *blob.File

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := parseMultipart(w, r); err != nil {
			writeServiceError(w, err)
			return
		}
		req = updateRequestFromForm(r)

		var err error
		if avatar, err = formFile(r, "avatar"); err != nil {
			writeServiceError(w, err)
			return
		}
		if header, err = formFile(r, "header"); err != nil {
			writeServiceError(w, err)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Update(r.Context(), id, &req, avatar, header)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// updateRequestFromForm maps present form fields onto the patch; absent
// fields stay nil so they are left unchanged.
func updateRequestFromForm(r *http.Request) model.UpdateUserRequest {
	get := func(field string) *string {
		if values, ok := r.MultipartForm.Value[field]; ok && len(values) > 0 {
			v := values[0]
			return &v
		}
		return nil
	}
	return model.UpdateUserRequest{
		Username:    get("username"),
		Email:       get("email"),
		DateOfBirth: get("dateOfBirth"),
		Fullname:    get("fullname"),
		Bio:         get("bio"),
		Location:    get("location"),
		Website:     get("website"),
		Password:    get("password"),
	}
}

// Delete removes the account named in the body, which must be the caller.
// DELETE /users
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		httputil.WriteBadRequest(w, "User id is required")
		return
	}
	if !h.requireSelf(w, r, req.ID) {
		return
	}

	if err := h.userService.Delete(r.Context(), req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// ToggleFollow flips whether the caller follows the target user.
// POST /users/{userId}/toggle-follow
func (h *UserHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, "userRef")
	if !ok {
		return
	}

	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	following, err := h.userService.ToggleFollow(r.Context(), targetID, actorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"following": following})
}

// UploadAvatar sets the caller's avatar via the dedicated route.
// POST /users/{username}/upload_avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requireSelfUsername(w, r)
	if !ok {
		return
	}

	if err := parseMultipart(w, r); err != nil {
		writeServiceError(w, err)
		return
	}

	file, err := formFile(r, "avatar")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if file == nil {
		writeServiceError(w, model.ErrNoFileUploaded)
		return
	}

	user, err := h.userService.UploadAvatar(r.Context(), username, *file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// UploadHeader sets the caller's header photo.
// POST /users/{username}/upload_header
func (h *UserHandler) UploadHeader(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requireSelfUsername(w, r)
	if !ok {
		return
	}

	if err := parseMultipart(w, r); err != nil {
		writeServiceError(w, err)
		return
	}

	file, err := formFile(r, "header")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if file == nil {
		writeServiceError(w, model.ErrNoFileUploaded)
		return
	}

	user, err := h.userService.UploadHeader(r.Context(), username, *file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// DeleteAvatar removes the caller's avatar.
// DELETE /users/{username}/delete_avatar
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requireSelfUsername(w, r)
	if !ok {
		return
	}

	user, err := h.userService.DeleteAvatar(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// DeleteHeader removes the caller's header photo.
// DELETE /users/{username}/delete_header
func (h *UserHandler) DeleteHeader(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requireSelfUsername(w, r)
	if !ok {
		return
	}

	user, err := h.userService.DeleteHeader(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// requireSelf rejects the request unless the caller is the user with the
// given id.
func (h *UserHandler) requireSelf(w http.ResponseWriter, r *http.Request, id int64) bool {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return false
	}
	if actorID != id {
		httputil.WriteForbidden(w, "You can only modify your own account")
		return false
	}
	return true
}

// requireSelfUsername rejects the request unless the path username is the
// caller's own. Returns the username on success.
func (h *UserHandler) requireSelfUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := chi.URLParam(r, "userRef")

	actor, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return "", false
	}
	if !strings.EqualFold(actor, username) {
		httputil.WriteForbidden(w, "You can only modify your own account")
		return "", false
	}
	return username, true
}

// pathID parses a numeric chi path parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, "Invalid id in path")
		return 0, false
	}
	return id, true
}
