package user

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error)
	Delete(ctx context.Context, actorID, id int64) error
	UpdateProfile(ctx context.Context, id int64, dto UpdateProfileDTO) (*User, error)
	FormOptions(ctx context.Context) (FormResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*internal.Principal, bool) {
	p, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return p, true
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return id, true
}

// RegisterForm handles GET /register
func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.Service.FormOptions(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, form)
}

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto RegisterDTO
	if err := h.DecodeRequest(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Register: failed", "error", err, "username", dto.Username, "admin_id", admin.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Register: user created", "user_id", u.ID, "admin_id", admin.ID)
	h.Redirect(w, r, "/manage-users")
}

// Settings handles GET /settings and GET /update-profile
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	u, err := h.Service.GetByID(r.Context(), p.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

// UpdateProfile handles POST /update-profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto UpdateProfileDTO
	if err := h.DecodeRequest(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.Service.UpdateProfile(r.Context(), p.ID, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.Redirect(w, r, "/settings")
}

// ManageUsers handles GET /manage-users
func (h *Handler) ManageUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := UsersResponse{Users: make([]UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, u.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// EditUserForm handles GET /edit_user/{id}
func (h *Handler) EditUserForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	u, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	form, err := h.Service.FormOptions(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	resp := u.ToResponse()
	form.User = &resp
	h.WriteJSON(w, http.StatusOK, form)
}

// EditUser handles POST /edit_user/{id}
func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeRequest(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.Service.Update(r.Context(), id, dto); err != nil {
		h.Logger.Warn("EditUser: failed", "error", err, "user_id", id, "admin_id", admin.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.Redirect(w, r, "/manage-users")
}

// DeleteUser handles POST /delete_user/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), admin.ID, id); err != nil {
		h.Logger.Warn("DeleteUser: failed", "error", err, "user_id", id, "admin_id", admin.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.Redirect(w, r, "/manage-users")
}
