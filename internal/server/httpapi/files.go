package httpapi

import (
	"context"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mpavlovs/filestore/internal/server/models"
	"github.com/mpavlovs/filestore/internal/server/services"
)

// maxUploadBytes caps the multipart form size of an upload.
const maxUploadBytes = 100 << 20

// FileService is the slice of file business logic the API needs.
type FileService interface {
	Upload(ctx context.Context, userID, rawPath, uploadName string, payload []byte) (*models.File, error)
	Download(ctx context.Context, userID, path, id string) (*services.FileContent, error)
	Search(ctx context.Context, userID string, filter models.FileFilter) ([]*models.File, error)
	ListByUser(ctx context.Context, userID string) ([]*models.File, error)
}

// FileHandler handles upload, download and search endpoints. All of its
// routes sit behind the jwtAuth middleware.
type FileHandler struct {
	files    FileService
	validate *validator.Validate
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files FileService, validate *validator.Validate) *FileHandler {
	return &FileHandler{files: files, validate: validate}
}

// FileResponse is the API representation of a stored file's metadata.
type FileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Extension string    `json:"extension,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toFileResponse(f *models.File) FileResponse {
	return FileResponse{
		ID:        f.ID,
		Name:      f.Name,
		Path:      f.Path,
		Size:      f.Size,
		Extension: f.Extension,
		CreatedAt: f.CreatedAt,
	}
}

// SearchRequest is the request body for POST /api/v1/files/search.
type SearchRequest struct {
	PathContains string `json:"path_contains" validate:"omitempty,max=512"`
	Extension    string `json:"extension" validate:"omitempty,max=32"`
	OrderBy      string `json:"order_by" validate:"omitempty,oneof=name path size created"`
	Limit        int    `json:"limit" validate:"omitempty,gte=0,lte=1000"`
}

// Upload handles POST /api/v1/files/upload. The body is a multipart form with
// a "file" part and a "path" field naming the logical destination.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, "Invalid multipart form")
		return
	}

	path := r.FormValue("path")
	part, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "Missing file part")
		return
	}
	defer part.Close()

	payload, err := io.ReadAll(part)
	if err != nil {
		badRequest(w, "Failed to read file part")
		return
	}

	file, err := h.files.Upload(r.Context(), UserIDFromContext(r.Context()), path, header.Filename, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(file))
}

// Download handles GET /api/v1/files/download?path=...&id=... When both
// selectors are present, path wins.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	id := r.URL.Query().Get("id")

	content, err := h.files.Download(r.Context(), UserIDFromContext(r.Context()), path, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": content.Name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content.Payload)
}

// List handles GET /api/v1/files. It returns all of the caller's files in
// creation order.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	results, err := h.files.ListByUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	response := make([]FileResponse, 0, len(results))
	for _, f := range results {
		response = append(response, toFileResponse(f))
	}
	writeJSON(w, http.StatusOK, response)
}

// Search handles POST /api/v1/files/search.
func (h *FileHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(w, "Invalid search filter")
		return
	}

	results, err := h.files.Search(r.Context(), UserIDFromContext(r.Context()), models.FileFilter{
		PathContains: req.PathContains,
		Extension:    req.Extension,
		OrderBy:      req.OrderBy,
		Limit:        req.Limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response := make([]FileResponse, 0, len(results))
	for _, f := range results {
		response = append(response, toFileResponse(f))
	}
	writeJSON(w, http.StatusOK, response)
}
