package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("User Handler", func() {
	var (
		repo    *MockRepository
		service *user.Service
		router  *chi.Mux
		admin   *internal.Principal
	)

	BeforeEach(func() {
		repo = NewMockRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(repo, stubDepartments{}, bcrypt.MinCost, logger)
		handler := user.NewHandler(transport.NewBaseHandler(logger), service)

		created, err := service.Register(context.Background(), user.RegisterDTO{Username: "root", Password: "pw", Role: "admin"})
		Expect(err).NotTo(HaveOccurred())
		admin = &internal.Principal{ID: created.ID, Username: "root", Role: internal.RoleAdmin}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithPrincipal(r.Context(), admin)))
			})
		})
		router.Get("/register", handler.RegisterForm)
		router.Post("/register", handler.Register)
		router.Get("/settings", handler.Settings)
		router.Post("/update-profile", handler.UpdateProfile)
		router.Get("/manage-users", handler.ManageUsers)
		router.Get("/edit_user/{id}", handler.EditUserForm)
		router.Post("/edit_user/{id}", handler.EditUser)
		router.Post("/delete_user/{id}", handler.DeleteUser)
	})

	postForm := func(path string, values url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	Describe("POST /register", func() {
		It("creates the user and redirects to the user list", func() {
			rec := postForm("/register", url.Values{"username": {"alice"}, "password": {"pw"}, "role": {"user"}, "department": {"General"}})
			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			Expect(rec.Header().Get("Location")).To(Equal("/manage-users"))

			stored, _ := repo.GetByUsername(context.Background(), "alice")
			Expect(stored).NotTo(BeNil())
		})

		It("answers 409 for a duplicate username", func() {
			rec := postForm("/register", url.Values{"username": {"root"}, "password": {"pw"}})
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(rec.Body.String()).To(ContainSubstring("Username already taken."))
		})

		It("accepts JSON bodies", func() {
			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"username":"carol","password":"pw","role":"admin"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusSeeOther))
		})
	})

	It("GET /register lists roles and departments", func() {
		rec := get("/register")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var form user.FormResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &form)).To(Succeed())
		Expect(form.Departments).To(ContainElement("General"))
	})

	It("GET /settings returns the current profile", func() {
		rec := get("/settings")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"username":"root"`))
		Expect(rec.Body.String()).NotTo(ContainSubstring("password"))
	})

	It("POST /update-profile redirects back to settings", func() {
		rec := postForm("/update-profile", url.Values{"email": {"root@example.com"}})
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(Equal("/settings"))
	})

	It("GET /manage-users lists every user", func() {
		rec := get("/manage-users")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var body user.UsersResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Users).To(HaveLen(1))
	})

	Describe("edit and delete", func() {
		var target *user.User

		BeforeEach(func() {
			var err error
			target, err = service.Register(context.Background(), user.RegisterDTO{Username: "temp", Password: "pw"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("shows the edit form with the user", func() {
			rec := get("/edit_user/" + itoa(target.ID))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"username":"temp"`))
		})

		It("updates the user", func() {
			rec := postForm("/edit_user/"+itoa(target.ID), url.Values{"username": {"temp2"}, "role": {"admin"}})
			Expect(rec.Code).To(Equal(http.StatusSeeOther))

			stored, _ := repo.GetByID(context.Background(), target.ID)
			Expect(stored.Username).To(Equal("temp2"))
			Expect(stored.Role).To(Equal("admin"))
		})

		It("deletes another user", func() {
			rec := postForm("/delete_user/"+itoa(target.ID), url.Values{})
			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			stored, _ := repo.GetByID(context.Background(), target.ID)
			Expect(stored).To(BeNil())
		})

		It("refuses self deletion", func() {
			rec := postForm("/delete_user/"+itoa(admin.ID), url.Values{})
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("rejects malformed ids", func() {
			rec := get("/edit_user/abc")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("answers 404 for unknown users", func() {
			rec := get("/edit_user/999")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
