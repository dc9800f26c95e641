package handlers

import (
	"net/http"

	"github.com/rohits-web03/sharedrive/internal/models"
)

type shareInput struct {
	UserIDs     []string           `json:"userIds"`
	AccessLevel models.AccessLevel `json:"accessLevel"`
}

// ListShares returns the handler listing the shares of a file or folder.
//
// @Summary List shares
// @Tags Shares
// @Produce json
// @Param id path string true "Resource id"
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /api/v1/files/{id}/shares [get]
// @Router /api/v1/folders/{id}/shares [get]
func (h *DriveHandler) ListShares(kind models.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		shares, err := h.svc.ListShares(r.Context(), kind, id, userID)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		respond(w, http.StatusOK, "Shares fetched", shares)
	}
}

// Share grants users read or write access. Users already holding a share
// have its level updated.
//
// @Summary Share with users
// @Tags Shares
// @Accept json
// @Produce json
// @Param id path string true "Resource id"
// @Param body body shareInput true "Targets and level"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/files/{id}/shares [post]
// @Router /api/v1/folders/{id}/shares [post]
func (h *DriveHandler) Share(kind models.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var input shareInput
		if err := decodeJSON(w, r, &input); err != nil {
			writeError(w, h.log, err)
			return
		}

		shares, err := h.svc.Share(r.Context(), kind, id, userID, input.UserIDs, input.AccessLevel)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		respond(w, http.StatusOK, "Shared successfully", shares)
	}
}

// Revoke removes one user's share.
//
// @Summary Revoke a share
// @Tags Shares
// @Param id path string true "Resource id"
// @Param userId path string true "User id"
// @Success 200 {object} utils.Payload
// @Router /api/v1/files/{id}/shares/{userId} [delete]
// @Router /api/v1/folders/{id}/shares/{userId} [delete]
func (h *DriveHandler) Revoke(kind models.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		target, ok := pathID(w, r, "userId")
		if !ok {
			return
		}
		if err := h.svc.Revoke(r.Context(), kind, id, userID, target); err != nil {
			writeError(w, h.log, err)
			return
		}
		respond(w, http.StatusOK, "Share revoked", nil)
	}
}

// RevokeAll removes every share of the resource.
//
// @Summary Revoke all shares
// @Tags Shares
// @Param id path string true "Resource id"
// @Success 200 {object} utils.Payload
// @Router /api/v1/files/{id}/shares [delete]
// @Router /api/v1/folders/{id}/shares [delete]
func (h *DriveHandler) RevokeAll(kind models.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		n, err := h.svc.RevokeAll(r.Context(), kind, id, userID)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		respond(w, http.StatusOK, "Shares revoked", map[string]int64{"removed": n})
	}
}
