package api

import (
	"encoding/json"
	"net/http"

	"fleettrack/internal/domain"
	"fleettrack/internal/iot/app"
	"fleettrack/internal/shared/util"
)

// Handler serves the broker's HTTP auth-backend webhooks. The broker calls
// /iot/auth on CONNECT and /iot/acl on every publish/subscribe request.
type Handler struct {
	service *app.IotService
	logger  *util.Logger
}

func NewHandler(service *app.IotService, logger *util.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /iot/auth", h.AuthenticateHandler)
	mux.HandleFunc("POST /iot/acl", h.CheckACLHandler)
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type aclRequest struct {
	Username string `json:"username"`
	Topic    string `json:"topic"`
	Action   string `json:"action"`
}

func (h *Handler) AuthenticateHandler(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		util.ErrResponseInJson(w, domain.ErrAuthDenied)
		return
	}

	if _, err := h.service.Authenticate(r.Context(), req.Username, req.Password); err != nil {
		util.ErrResponseInJson(w, domain.ErrAuthDenied)
		return
	}

	util.ResponseInJson(w, http.StatusOK, map[string]string{"result": "allow"})
}

func (h *Handler) CheckACLHandler(w http.ResponseWriter, r *http.Request) {
	var req aclRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.ErrResponseInJson(w, domain.ErrAuthDenied)
		return
	}

	if !h.service.CheckACL(req.Username, req.Topic, req.Action) {
		util.ResponseInJson(w, http.StatusForbidden, map[string]string{"result": "deny"})
		return
	}

	util.ResponseInJson(w, http.StatusOK, map[string]string{"result": "allow"})
}
