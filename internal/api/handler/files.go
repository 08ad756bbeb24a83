package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/bankerscore/internal/api/middleware"
	"github.com/mcoot/bankerscore/internal/api/request"
	"github.com/mcoot/bankerscore/internal/api/response"
	"github.com/mcoot/bankerscore/internal/remote"
)

// FileHandler exposes a remote.Store over HTTP. The caller's bearer token
// is handed to the store, which does the authentication.
type FileHandler struct {
	store remote.Store
}

// NewFileHandler creates a new file handler
func NewFileHandler(store remote.Store) *FileHandler {
	return &FileHandler{
		store: store,
	}
}

// Find handles GET /api/v1/files?name=...&parent=...
func (h *FileHandler) Find(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}

	files, err := h.store.FindByName(r.Context(), middleware.GetToken(r.Context()), name, r.URL.Query().Get("parent"))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.FileList{Files: files})
}

// CreateFolder handles POST /api/v1/folders
func (h *FileHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req request.CreateFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	folder, err := h.store.CreateFolder(r.Context(), middleware.GetToken(r.Context()), req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, folder)
}

// CreateFile handles POST /api/v1/files
func (h *FileHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	var req request.CreateFileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	parent := remote.FolderRef{ID: req.ParentID, Folder: req.ParentID != ""}
	file, err := h.store.CreateFile(r.Context(), middleware.GetToken(r.Context()), req.Name, parent, req.Content)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, file)
}

// UpdateFile handles PUT /api/v1/files/{id}
func (h *FileHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateFileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ref := remote.FileRef{ID: mux.Vars(r)["id"]}
	file, err := h.store.UpdateFile(r.Context(), middleware.GetToken(r.Context()), ref, req.Content)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, file)
}

// Content handles GET /api/v1/files/{id}/content
func (h *FileHandler) Content(w http.ResponseWriter, r *http.Request) {
	ref := remote.FileRef{ID: mux.Vars(r)["id"]}
	content, err := h.store.GetFileContent(r.Context(), middleware.GetToken(r.Context()), ref)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Bytes(w, http.StatusOK, content)
}
