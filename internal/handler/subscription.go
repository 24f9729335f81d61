package handler

import (
	"encoding/json"
	"net/http"

	"chirper-api/internal/httputil"
	"chirper-api/internal/service"
	"chirper-api/internal/transport/http/middleware"
)

// SubscriptionHandler exposes the verified-badge purchase endpoint.
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Subscribe marks the caller verified. Users subscribe only themselves.
// POST /subscription
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		httputil.WriteBadRequest(w, "User id is required")
		return
	}

	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	if actorID != req.UserID {
		httputil.WriteForbidden(w, "You can only subscribe for your own account")
		return
	}

	user, err := h.subscriptionService.Subscribe(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
