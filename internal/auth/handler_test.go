package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

// storedRoles is an in-memory RoleSource keyed by user id.
type storedRoles map[int64]string

func (s storedRoles) CurrentRole(ctx context.Context, userID int64) (string, bool, error) {
	role, ok := s[userID]
	return role, ok, nil
}

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		handler *Handler
		rbac    *RBACAuthorization
		router  *chi.Mux
	)

	ginkgo.BeforeEach(func() {
		service := NewService(newMockUserRepository(), NewJWTTokenGenerator(testSecret, time.Hour), quietLogger())
		handler = NewHandler(transport.NewBaseHandler(quietLogger()), service, CookieConfig{Name: "filehub_session"})
		rbac = NewRBACAuthorization(NewRoleChecker(), quietLogger())

		router = chi.NewRouter()
		router.Use(handler.SessionMiddleware)
		router.Get("/", handler.Index)
		router.Get("/login", handler.LoginPage)
		router.Post("/login", handler.Login)
		router.Get("/logout", handler.Logout)
		router.Group(func(r chi.Router) {
			r.Use(handler.RequireLogin)
			r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
				p, _ := internal.PrincipalFromContext(r.Context())
				_, _ = w.Write([]byte(p.Username))
			})
			r.With(rbac.RequireAdmin()).Get("/manage-users", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})
	})

	login := func(username, password string) *httptest.ResponseRecorder {
		form := url.Values{"username": {username}, "password": {password}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	sessionCookie := func(rec *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range rec.Result().Cookies() {
			if c.Name == "filehub_session" {
				return c
			}
		}
		return nil
	}

	withCookie := func(method, path string, c *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if c != nil {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("redirects the root to the login page", func() {
		rec := withCookie(http.MethodGet, "/", nil)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
		gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("/login"))
	})

	ginkgo.Describe("POST /login", func() {
		ginkgo.It("sets a session cookie and redirects to the dashboard", func() {
			rec := login("admin", "correct_password")
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
			gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("/dashboard"))

			c := sessionCookie(rec)
			gomega.Expect(c).NotTo(gomega.BeNil())
			gomega.Expect(c.HttpOnly).To(gomega.BeTrue())

			dash := withCookie(http.MethodGet, "/dashboard", c)
			gomega.Expect(dash.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(dash.Body.String()).To(gomega.Equal("admin"))
		})

		ginkgo.It("answers 401 with the error and no cookie for a wrong password", func() {
			rec := login("admin", "nope")
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("Invalid username or password."))
			gomega.Expect(sessionCookie(rec)).To(gomega.BeNil())
		})

		ginkgo.It("answers 400 when a field is missing", func() {
			rec := login("", "")
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("Username and password are required."))
			gomega.Expect(sessionCookie(rec)).To(gomega.BeNil())
		})
	})

	ginkgo.It("sends anonymous visitors of protected pages to the login page", func() {
		rec := withCookie(http.MethodGet, "/dashboard", nil)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
		gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("/login"))
	})

	ginkgo.It("ignores a tampered cookie", func() {
		rec := withCookie(http.MethodGet, "/dashboard", &http.Cookie{Name: "filehub_session", Value: "garbage"})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
	})

	ginkgo.It("forbids admin pages to regular users", func() {
		c := sessionCookie(login("alice", "correct_password"))
		rec := withCookie(http.MethodGet, "/manage-users", c)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))

		adminCookie := sessionCookie(login("admin", "correct_password"))
		rec = withCookie(http.MethodGet, "/manage-users", adminCookie)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
	})

	ginkgo.It("checks admin pages against the stored role when a role source is set", func() {
		roles := storedRoles{1: internal.RoleAdmin}
		checked := NewRBACAuthorization(NewRoleChecker(), quietLogger()).WithRoleSource(roles)
		router.With(handler.RequireLogin, checked.RequireAdmin()).Get("/edit_user/2", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		adminCookie := sessionCookie(login("admin", "correct_password"))

		gomega.Expect(withCookie(http.MethodGet, "/edit_user/2", adminCookie).Code).To(gomega.Equal(http.StatusNoContent))

		roles[1] = internal.RoleUser
		gomega.Expect(withCookie(http.MethodGet, "/edit_user/2", adminCookie).Code).To(gomega.Equal(http.StatusForbidden))

		delete(roles, 1)
		gomega.Expect(withCookie(http.MethodGet, "/edit_user/2", adminCookie).Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("clears the cookie on logout", func() {
		c := sessionCookie(login("admin", "correct_password"))
		rec := withCookie(http.MethodGet, "/logout", c)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
		gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("/login"))
		cleared := sessionCookie(rec)
		gomega.Expect(cleared).NotTo(gomega.BeNil())
		gomega.Expect(cleared.MaxAge).To(gomega.BeNumerically("<", 0))
	})

	ginkgo.It("reports whether the login page visitor is signed in", func() {
		c := sessionCookie(login("admin", "correct_password"))
		rec := withCookie(http.MethodGet, "/login", c)
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"authenticated":true`))
	})

	ginkgo.It("accepts a bearer token instead of the cookie", func() {
		session, err := handler.Service.Authenticate(context.Background(), LoginDTO{Username: "admin", Password: "correct_password"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+session.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})
})
