package handlers

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/drive"
	"github.com/rohits-web03/sharedrive/internal/models"
	"go.uber.org/zap"
)

// DriveHandler serves the folder, file and share routes.
type DriveHandler struct {
	svc *drive.Service
	log *zap.Logger
}

func NewDriveHandler(svc *drive.Service, log *zap.Logger) *DriveHandler {
	return &DriveHandler{svc: svc, log: log.Named("http")}
}

// CreateFolder godoc
// @Summary Create a folder
// @Description Creates a folder owned by the caller. Subfolders copy the parent's isPublic flag.
// @Tags Folders
// @Accept json
// @Produce json
// @Param body body createFolderInput true "Folder"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /api/v1/folders [post]
func (h *DriveHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActor(w, r)
	if !ok {
		return
	}

	var input createFolderInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, h.log, err)
		return
	}
	parentID, err := parseOptionalID(input.ParentID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	folder, err := h.svc.CreateFolder(r.Context(), userID, input.Name, parentID, input.IsPublic)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusCreated, "Folder created", folder)
}

type createFolderInput struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
	IsPublic bool   `json:"isPublic"`
}

// ListFolders godoc
// @Summary List accessible folders
// @Description Folders directly under parentId (roots when omitted) that the caller owns, was shared, or that are public. Anonymous callers see public folders.
// @Tags Folders
// @Produce json
// @Param parentId query string false "Parent folder id"
// @Success 200 {object} utils.Payload
// @Router /api/v1/folders [get]
func (h *DriveHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	parentID, err := parseOptionalID(r.URL.Query().Get("parentId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	folders, err := h.svc.ListAccessibleFolders(r.Context(), parentID, actor(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "Folders fetched", folders)
}

// FolderTree godoc
// @Summary Folder tree with files
// @Tags Folders
// @Produce json
// @Param parentId query string false "Parent folder id"
// @Success 200 {object} utils.Payload
// @Router /api/v1/folders/tree [get]
func (h *DriveHandler) FolderTree(w http.ResponseWriter, r *http.Request) {
	parentID, err := parseOptionalID(r.URL.Query().Get("parentId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	tree, err := h.svc.FoldersWithFiles(r.Context(), parentID, actor(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "Folder tree fetched", tree)
}

// GetFolder godoc
// @Summary Get a folder
// @Tags Folders
// @Produce json
// @Param id path string true "Folder id"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/folders/{id} [get]
func (h *DriveHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	folder, level, err := h.svc.GetFolder(r.Context(), id, actor(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "Folder fetched", map[string]any{
		"folder": folder,
		"access": level.String(),
	})
}

type updateFolderInput struct {
	Name     *string    `json:"name"`
	ParentID optionalID `json:"parentId"`
	IsPublic *bool      `json:"isPublic"`
}

// UpdateFolder godoc
// @Summary Rename, move or publish a folder
// @Description name needs write access; parentId (null for root) and isPublic need ownership.
// @Tags Folders
// @Accept json
// @Produce json
// @Param id path string true "Folder id"
// @Param body body updateFolderInput true "Changes"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /api/v1/folders/{id} [patch]
func (h *DriveHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input updateFolderInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, h.log, err)
		return
	}
	if input.Name == nil && !input.ParentID.Set && input.IsPublic == nil {
		writeError(w, h.log, errors.Wrap(models.ErrValidation, "nothing to update"))
		return
	}

	var (
		folder *models.Folder
		err    error
	)
	ctx := r.Context()
	if input.Name != nil {
		if folder, err = h.svc.RenameFolder(ctx, userID, id, *input.Name); err != nil {
			writeError(w, h.log, err)
			return
		}
	}
	if input.ParentID.Set {
		if folder, err = h.svc.MoveFolder(ctx, userID, id, input.ParentID.ID); err != nil {
			writeError(w, h.log, err)
			return
		}
	}
	if input.IsPublic != nil {
		if folder, err = h.svc.SetFolderPublic(ctx, userID, id, *input.IsPublic); err != nil {
			writeError(w, h.log, err)
			return
		}
	}
	respond(w, http.StatusOK, "Folder updated", folder)
}

// DeleteFolder godoc
// @Summary Delete an empty folder
// @Tags Folders
// @Param id path string true "Folder id"
// @Success 200 {object} utils.Payload
// @Failure 409 {object} utils.Payload
// @Router /api/v1/folders/{id} [delete]
func (h *DriveHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteFolder(r.Context(), userID, id); err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "Folder deleted", nil)
}
