package handlers

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/drive"
	"github.com/rohits-web03/sharedrive/internal/models"
)

type createFileInput struct {
	Name        string `json:"name"`
	FolderID    string `json:"folderId"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// CreateFile godoc
// @Summary Register a file and get an upload URL
// @Description Creates the file record and returns a presigned PUT URL for its contents.
// @Tags Files
// @Accept json
// @Produce json
// @Param body body createFileInput true "File metadata"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /api/v1/files [post]
func (h *DriveHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActor(w, r)
	if !ok {
		return
	}

	var input createFileInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, h.log, err)
		return
	}
	folderID, err := parseOptionalID(input.FolderID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	file, uploadURL, err := h.svc.CreateFile(r.Context(), userID, drive.NewFile{
		Name:        input.Name,
		FolderID:    folderID,
		Size:        input.Size,
		ContentType: input.ContentType,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusCreated, "File created", map[string]any{
		"file":      file,
		"uploadUrl": uploadURL,
	})
}

// ListFiles godoc
// @Summary List readable files in a folder
// @Tags Files
// @Produce json
// @Param folderId query string false "Folder id, unfiled files when omitted"
// @Success 200 {object} utils.Payload
// @Router /api/v1/files [get]
func (h *DriveHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID, err := parseOptionalID(r.URL.Query().Get("folderId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	files, err := h.svc.ListFiles(r.Context(), folderID, actor(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "Files fetched", files)
}

// ListSharedWithMe godoc
// @Summary Files shared with the caller
// @Tags Files
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /api/v1/files/shared [get]
func (h *DriveHandler) ListSharedWithMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActor(w, r)
	if !ok {
		return
	}
	files, err := h.svc.ListSharedWithMe(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "Shared files fetched", files)
}

// GetFile godoc
// @Summary Get file metadata
// @Tags Files
// @Produce json
// @Param id path string true "File id"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/files/{id} [get]
func (h *DriveHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	file, level, err := h.svc.GetFile(r.Context(), id, actor(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "File fetched", map[string]any{
		"file":   file,
		"access": level.String(),
	})
}

// DownloadFile godoc
// @Summary Presigned download URL
// @Tags Files
// @Produce json
// @Param id path string true "File id"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/files/{id}/download [get]
func (h *DriveHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	file, url, err := h.svc.DownloadURL(r.Context(), id, actor(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "Download URL generated", map[string]any{
		"fileName": file.Name,
		"url":      url,
	})
}

type updateFileInput struct {
	Name     *string    `json:"name"`
	FolderID optionalID `json:"folderId"`
}

// UpdateFile godoc
// @Summary Rename or move a file
// @Tags Files
// @Accept json
// @Produce json
// @Param id path string true "File id"
// @Param body body updateFileInput true "Changes"
// @Success 200 {object} utils.Payload
// @Router /api/v1/files/{id} [patch]
func (h *DriveHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input updateFileInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, h.log, err)
		return
	}
	if input.Name == nil && !input.FolderID.Set {
		writeError(w, h.log, errors.Wrap(models.ErrValidation, "nothing to update"))
		return
	}

	var (
		file *models.File
		err  error
	)
	if input.Name != nil {
		if file, err = h.svc.RenameFile(r.Context(), userID, id, *input.Name); err != nil {
			writeError(w, h.log, err)
			return
		}
	}
	if input.FolderID.Set {
		if file, err = h.svc.MoveFile(r.Context(), userID, id, input.FolderID.ID); err != nil {
			writeError(w, h.log, err)
			return
		}
	}
	respond(w, http.StatusOK, "File updated", file)
}

// DeleteFile godoc
// @Summary Delete a file
// @Tags Files
// @Param id path string true "File id"
// @Success 200 {object} utils.Payload
// @Router /api/v1/files/{id} [delete]
func (h *DriveHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteFile(r.Context(), userID, id); err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "File deleted", nil)
}
