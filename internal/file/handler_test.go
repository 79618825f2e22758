package file_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/filehub/internal"
	filemodel "github.com/frahmantamala/filehub/internal/core/datamodel/file"
	"github.com/frahmantamala/filehub/internal/database/dbtest"
	"github.com/frahmantamala/filehub/internal/file"
	fileSqlite "github.com/frahmantamala/filehub/internal/file/sqlite"
	"github.com/frahmantamala/filehub/internal/storage"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

var _ = Describe("File Handler", func() {
	var (
		ctx    context.Context
		fs     afero.Fs
		store  *storage.LocalStore
		repo   file.Repository
		router *chi.Mux
		actor  *internal.Principal
	)

	BeforeEach(func() {
		ctx = context.Background()
		registry, err := dbtest.NewRegistry(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		fs = afero.NewMemMapFs()
		store, err = storage.NewLocalStore(fs, "downloads")
		Expect(err).NotTo(HaveOccurred())
		repo = fileSqlite.NewFileRepository(registry)

		logger := quietLogger()
		service := file.NewService(repo, store, stubDepartments{}, nil, 1024, logger)
		handler := file.NewHandler(transport.NewBaseHandler(logger), service, 1024)

		actor = &internal.Principal{ID: 7, Username: "root", Role: internal.RoleAdmin}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if actor != nil {
					r = r.WithContext(internal.ContextWithPrincipal(r.Context(), actor))
				}
				next.ServeHTTP(w, r)
			})
		})
		router.Get("/files", handler.ListFiles)
		router.Post("/upload", handler.Upload)
		router.Get("/download/{filename}", handler.Download)
		router.Get("/edit-file/{id}", handler.EditFileForm)
		router.Post("/update-file/{id}", handler.UpdateFile)
		router.Post("/delete-file/{id}", handler.DeleteFile)
	})

	seed := func(name, department string, createdAt time.Time) *filemodel.File {
		f := &filemodel.File{
			FileName:   name,
			FileType:   "text/plain",
			FilePath:   store.Path(name),
			Department: department,
			Source:     filemodel.SourceDiscord,
			CreatedAt:  createdAt,
		}
		Expect(repo.Create(ctx, f)).To(Succeed())
		Expect(afero.WriteFile(fs, store.Path(name), []byte("contents"), 0o644)).To(Succeed())
		return f
	}

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	postForm := func(path string, values url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(req)
	}

	multipartUpload := func(filename, content string, fields map[string]string) *httptest.ResponseRecorder {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		part, err := mw.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, _ = part.Write([]byte(content))
		for k, v := range fields {
			Expect(mw.WriteField(k, v)).To(Succeed())
		}
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return serve(req)
	}

	Describe("GET /files", func() {
		It("filters by department and search", func() {
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			seed("report_a.txt", "Finance", base)
			seed("report_b.txt", "General", base.Add(time.Hour))
			seed("memo.txt", "Finance", base.Add(2*time.Hour))

			rec := serve(httptest.NewRequest(http.MethodGet, "/files?department=Finance&search=report", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp file.FilesResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Department).To(Equal("Finance"))
			Expect(resp.Search).To(Equal("report"))
			Expect(resp.Files).To(HaveLen(1))
			Expect(resp.Files[0].FileName).To(Equal("report_a.txt"))
			Expect(resp.Files[0].DownloadURL).To(Equal("/download/report_a.txt"))
		})

		It("reports the all department when unfiltered", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/files", nil))
			var resp file.FilesResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Department).To(Equal(file.AllDepartments))
			Expect(resp.Files).To(BeEmpty())
		})
	})

	Describe("POST /upload", func() {
		It("stores the file and redirects to the list", func() {
			rec := multipartUpload("notes.txt", "hello", map[string]string{"department": "General", "project": "Docs"})
			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			Expect(rec.Header().Get("Location")).To(Equal("/files"))

			stored, err := repo.GetByName(ctx, "notes.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Source).To(Equal(filemodel.SourceManual))
			Expect(stored.UploaderID).To(Equal("7"))
		})

		It("requires a department", func() {
			rec := multipartUpload("notes.txt", "hello", map[string]string{"project": "Docs"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("requires a file part", func() {
			body := &bytes.Buffer{}
			mw := multipart.NewWriter(body)
			Expect(mw.WriteField("department", "General")).To(Succeed())
			Expect(mw.Close()).To(Succeed())
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", mw.FormDataContentType())

			Expect(serve(req).Code).To(Equal(http.StatusBadRequest))
		})

		It("answers 409 on a name collision", func() {
			seed("notes.txt", "General", time.Now().UTC())
			rec := multipartUpload("notes.txt", "hello", map[string]string{"department": "General"})
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})

		It("requires a session", func() {
			actor = nil
			rec := multipartUpload("notes.txt", "hello", map[string]string{"department": "General"})
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("GET /download/{filename}", func() {
		It("streams the artifact as an attachment", func() {
			seed("plan.txt", "General", time.Now().UTC())

			rec := serve(httptest.NewRequest(http.MethodGet, "/download/plan.txt", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("contents"))
			Expect(rec.Header().Get("Content-Disposition")).To(Equal(`attachment; filename=plan.txt`))
			Expect(rec.Header().Get("Content-Type")).To(Equal("text/plain"))
		})

		It("answers 404 for unknown names", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/download/missing.txt", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("answers 404 when the artifact is gone", func() {
			seed("gone.txt", "General", time.Now().UTC())
			Expect(fs.Remove(store.Path("gone.txt"))).To(Succeed())

			rec := serve(httptest.NewRequest(http.MethodGet, "/download/gone.txt", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("edit and delete", func() {
		var existing *filemodel.File

		BeforeEach(func() {
			existing = seed("draft.txt", "General", time.Now().UTC())
		})

		path := func(prefix string) string {
			return prefix + strconv.FormatInt(existing.ID, 10)
		}

		It("returns the record for editing", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, path("/edit-file/"), nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp file.FileResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.FileName).To(Equal("draft.txt"))
		})

		It("updates and redirects", func() {
			rec := postForm(path("/update-file/"), url.Values{"file_name": {"final.txt"}, "project": {"Launch"}, "department": {"Finance"}})
			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			Expect(rec.Header().Get("Location")).To(Equal("/files"))

			exists, _ := afero.Exists(fs, store.Path("final.txt"))
			Expect(exists).To(BeTrue())
		})

		It("answers 409 when renaming onto another file", func() {
			seed("taken.txt", "General", time.Now().UTC())
			rec := postForm(path("/update-file/"), url.Values{"file_name": {"taken.txt"}, "project": {"Launch"}, "department": {"General"}})
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})

		It("answers 400 for numeric-only projects", func() {
			rec := postForm(path("/update-file/"), url.Values{"file_name": {"final.txt"}, "project": {"2024"}, "department": {"General"}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("deletes and redirects", func() {
			rec := postForm(path("/delete-file/"), url.Values{})
			Expect(rec.Code).To(Equal(http.StatusSeeOther))

			stored, _ := repo.GetByID(ctx, existing.ID)
			Expect(stored).To(BeNil())
		})

		It("answers 404 for unknown ids", func() {
			Expect(postForm("/delete-file/999", url.Values{}).Code).To(Equal(http.StatusNotFound))
		})

		It("answers 400 for malformed ids", func() {
			Expect(serve(httptest.NewRequest(http.MethodGet, "/edit-file/abc", nil)).Code).To(Equal(http.StatusBadRequest))
		})
	})
})
