package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/api/middleware"
	"github.com/rohits-web03/sharedrive/internal/drive"
	"github.com/rohits-web03/sharedrive/internal/models"
	"github.com/rohits-web03/sharedrive/internal/utils"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

// optionalID distinguishes an absent id field from an explicit null.
// Null and "" both mean "no parent".
type optionalID struct {
	Set bool
	ID  *uuid.UUID
}

func (o *optionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.ID = nil
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	id, err := parseOptionalID(s)
	if err != nil {
		return err
	}
	o.ID = id
	return nil
}

func parseOptionalID(s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, errors.Wrapf(models.ErrValidation, "malformed id %q", s)
	}
	return &id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(models.ErrValidation, "invalid input")
	}
	return nil
}

// actor returns the caller, nil for anonymous requests.
func actor(r *http.Request) *uuid.UUID {
	if id, ok := middleware.UserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

func requireActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Unauthorized",
		})
	}
	return id, ok
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	utils.JSONResponse(w, status, utils.Payload{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var batch *drive.BatchError
	switch {
	case errors.As(err, &batch):
		log.Error("share batch partially applied", zap.Error(err))
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Share was only partially applied",
			Data: map[string]any{
				"applied": batch.Applied,
				"failed":  batch.Failed,
			},
		})
	case errors.Is(err, models.ErrValidation):
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{Success: false, Message: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{Success: false, Message: "Not found"})
	case errors.Is(err, models.ErrAccessDenied):
		utils.JSONResponse(w, http.StatusForbidden, utils.Payload{Success: false, Message: "Access denied"})
	case errors.Is(err, models.ErrFolderNotEmpty):
		utils.JSONResponse(w, http.StatusConflict, utils.Payload{Success: false, Message: "Folder is not empty"})
	default:
		log.Error("request failed", zap.Error(err))
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{Success: false, Message: "Internal server error"})
	}
}
