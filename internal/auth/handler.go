package auth

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuskit/campuskit/internal/platform/httpx"
	"github.com/campuskit/campuskit/internal/rbac"
	"github.com/campuskit/campuskit/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pipeline  *Pipeline
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pipeline *Pipeline) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		pipeline:  pipeline,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/otp/request", h.handleOTPRequest)
	r.Post("/otp/verify", h.handleOTPVerify)

	r.Group(func(r chi.Router) {
		r.Use(h.pipeline.Authenticate)
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type otpRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type otpVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type sessionResponse struct {
	Token     string        `json:"token"`
	SessionID string        `json:"session_id"`
	User      actorResponse `json:"user"`
}

type actorResponse struct {
	ID           int64                      `json:"id"`
	Email        string                     `json:"email"`
	Name         string                     `json:"name,omitempty"`
	Role         rbac.Role                  `json:"role"`
	DepartmentID string                     `json:"department_id,omitempty"`
	CollegeID    string                     `json:"college_id"`
	Permissions  []modulePermissionResponse `json:"permissions"`
}

type modulePermissionResponse struct {
	Module   rbac.Module `json:"module"`
	CanRead  bool        `json:"can_read"`
	CanWrite bool        `json:"can_write"`
	Scope    rbac.Scope  `json:"scope"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		h.respondLoginError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.buildSession(result))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	info, ok := shared.TokenFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	sessionID := r.Header.Get("X-Session-ID")
	if err := h.service.Logout(r.Context(), info, sessionID); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.RequestOTP(r.Context(), req.Email); err != nil {
		h.respondLoginError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.buildSession(result))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	resp := actorResponse{
		ID:           actor.UserID,
		Email:        actor.Email,
		Role:         actor.Role,
		DepartmentID: actor.DepartmentID,
		CollegeID:    actor.CollegeID,
		Permissions:  permissionResponses(actor.Permissions()),
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// respondLoginError masks account absence as an invalid credential so the
// endpoints cannot be used to enumerate accounts.
func (h *Handler) respondLoginError(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, shared.ErrInvalidCredential)
		return
	}
	httpx.RespondError(w, err)
}

func (h *Handler) buildSession(result *LoginResult) sessionResponse {
	user := result.User
	perms := user.Permissions
	if len(perms) == 0 {
		perms = rbac.DefaultModulePermissions(user.Role)
	}
	return sessionResponse{
		Token:     result.Token,
		SessionID: result.SessionID,
		User: actorResponse{
			ID:           user.ID,
			Email:        user.Email,
			Name:         user.Name,
			Role:         user.Role,
			DepartmentID: user.DepartmentID,
			CollegeID:    user.CollegeID,
			Permissions:  permissionResponses(perms),
		},
	}
}

// clientIP strips the ephemeral source port from RemoteAddr so rate-limit
// counters key on the address alone. Behind a proxy middleware.RealIP leaves
// a bare IP, which SplitHostPort rejects; use it as-is.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func permissionResponses(perms []rbac.ModulePermission) []modulePermissionResponse {
	out := make([]modulePermissionResponse, len(perms))
	for i, p := range perms {
		out[i] = modulePermissionResponse{
			Module:   p.Module,
			CanRead:  p.CanRead,
			CanWrite: p.CanWrite,
			Scope:    p.Scope,
		}
	}
	return out
}
