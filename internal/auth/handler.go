package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*Session, error)
	ValidateSession(tokenString string) (*internal.Principal, error)
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	cookie  CookieConfig
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = "filehub_session"
	}
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
		cookie:      cookie,
	}
}

func (h *Handler) sessionFromRequest(r *http.Request) (*internal.Principal, error) {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil || c.Value == "" {
		if token := h.ExtractTokenFromHeader(r); token != "" {
			return h.Service.ValidateSession(token)
		}
		return nil, internal.ErrInvalidToken
	}
	return h.Service.ValidateSession(c.Value)
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.Redirect(w, r, "/login")
}

// LoginPage handles GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	_, ok := internal.PrincipalFromContext(r.Context())
	h.WriteJSON(w, http.StatusOK, LoginPageResponse{Authenticated: ok})
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeRequest(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode < http.StatusInternalServerError {
			h.WriteJSON(w, appErr.StatusCode, LoginPageResponse{Error: appErr.Message})
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.Redirect(w, r, "/dashboard")
}

// Logout handles GET /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if p, ok := internal.PrincipalFromContext(r.Context()); ok {
		h.Logger.Info("user logged out", "user_id", p.ID, "username", p.Username)
	}
	h.Redirect(w, r, "/login")
}

// SessionMiddleware puts the principal of a valid session into the request
// context. Requests without a session pass through untouched.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := h.sessionFromRequest(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := internal.ContextWithPrincipal(r.Context(), principal)
		ctx = logger.With(ctx, "userID", principal.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireLogin sends anonymous requests to the login page.
func (h *Handler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := internal.PrincipalFromContext(r.Context()); !ok {
			h.Logger.Debug("auth middleware: no session, redirecting to login", "path", r.URL.Path)
			h.Redirect(w, r, "/login")
			return
		}
		next.ServeHTTP(w, r)
	})
}
