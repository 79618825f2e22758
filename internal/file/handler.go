package file

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/go-chi/chi"
	"github.com/spf13/afero"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*File, error)
	GetByID(ctx context.Context, id int64) (*File, error)
	Upload(ctx context.Context, actor *internal.Principal, dto UploadDTO) (*File, error)
	Open(ctx context.Context, name string) (*File, afero.File, error)
	Update(ctx context.Context, actor *internal.Principal, id int64, dto UpdateFileDTO) (*File, error)
	Delete(ctx context.Context, actor *internal.Principal, id int64) error
}

// multipart overhead allowed on top of the file itself
const formOverhead = 1 << 20

type Handler struct {
	*transport.BaseHandler
	Service        ServiceAPI
	MaxUploadBytes int64
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, maxUploadBytes int64) *Handler {
	return &Handler{
		BaseHandler:    baseHandler,
		Service:        svc,
		MaxUploadBytes: maxUploadBytes,
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

func (h *Handler) fileID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid file ID")
		return 0, false
	}
	return id, true
}

// ListFiles handles GET /files?department=&search=
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Department: r.URL.Query().Get("department"),
		Search:     r.URL.Query().Get("search"),
	}.Normalize()

	files, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := FilesResponse{
		Files:      make([]FileResponse, 0, len(files)),
		Department: filter.Department,
		Search:     filter.Search,
	}
	if resp.Department == "" {
		resp.Department = AllDepartments
	}
	for _, f := range files {
		resp.Files = append(resp.Files, f.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Upload handles POST /upload (multipart: file, department, project)
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+formOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer src.Close()

	dto := UploadDTO{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Department:  r.FormValue("department"),
		Project:     r.FormValue("project"),
		Content:     src,
	}

	f, err := h.Service.Upload(r.Context(), p, dto)
	if err != nil {
		h.Logger.Warn("Upload: failed", "error", err, "file_name", header.Filename, "user_id", p.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Upload: stored", "file_id", f.ID, "user_id", p.ID)
	h.Redirect(w, r, "/files")
}

// Download handles GET /download/{filename}
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil || name == "" {
		h.WriteError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	f, artifact, err := h.Service.Open(r.Context(), name)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer artifact.Close()

	modTime := f.CreatedAt
	if info, err := artifact.Stat(); err == nil {
		modTime = info.ModTime()
	}

	if f.FileType != "" {
		w.Header().Set("Content-Type", f.FileType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.FileName}))
	http.ServeContent(w, r, f.FileName, modTime, artifact)
}

// EditFileForm handles GET /edit-file/{id}
func (h *Handler) EditFileForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.fileID(w, r)
	if !ok {
		return
	}

	f, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f.ToResponse())
}

// UpdateFile handles POST /update-file/{id}
func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.fileID(w, r)
	if !ok {
		return
	}

	var dto UpdateFileDTO
	if err := h.DecodeRequest(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.Service.Update(r.Context(), p, id, dto); err != nil {
		h.Logger.Warn("UpdateFile: failed", "error", err, "file_id", id, "user_id", p.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.Redirect(w, r, "/files")
}

// DeleteFile handles POST /delete-file/{id}
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.fileID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), p, id); err != nil {
		h.Logger.Warn("DeleteFile: failed", "error", err, "file_id", id, "user_id", p.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.Redirect(w, r, "/files")
}
