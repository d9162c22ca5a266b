// Package folders provides the folder-create endpoint.
//
// Folders are metadata-only entries: nothing is created on the media
// backend, but each folder gets a synthetic backend-style path so its
// children have a stable prefix to live under.
package folders

import (
	"errors"
	"net/http"

	"github.com/dalemusser/droppic/internal/app/store/entry"
	"github.com/dalemusser/droppic/internal/app/system/auth"
	"github.com/dalemusser/droppic/internal/app/system/jsonutil"
	"github.com/dalemusser/droppic/internal/app/system/namesanitize"
	"github.com/dalemusser/droppic/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler handles folder API requests.
type Handler struct {
	entries *entry.Store
	logger  *zap.Logger
}

// NewHandler creates a new folders handler.
func NewHandler(entries *entry.Store, logger *zap.Logger) *Handler {
	return &Handler{
		entries: entries,
		logger:  logger,
	}
}

// Create handles POST /folders/create.
//
// Request body:
//
//	{
//	    "name": "Vacation 2026",
//	    "userId": "...",   // must match the authenticated user when present
//	    "parentId": "..."  // optional; root when omitted
//	}
//
// Response (201 Created):
//
//	{
//	    "success": true,
//	    "message": "Folder created successfully",
//	    "folder": {...}
//	}
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}
	ctx := r.Context()

	var in struct {
		Name     string `json:"name"`
		UserID   string `json:"userId"`
		ParentID string `json:"parentId"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if in.UserID != "" && in.UserID != principal.UserID {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	name := namesanitize.Clean(in.Name)
	if name == "" {
		jsonutil.BadRequest(w, "Folder name is required")
		return
	}

	var parentID *primitive.ObjectID
	if in.ParentID != "" {
		id, err := primitive.ObjectIDFromHex(in.ParentID)
		if err != nil {
			jsonutil.BadRequest(w, "Invalid parentId")
			return
		}
		if _, err := h.entries.GetFolderForOwner(ctx, id, principal.UserID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				jsonutil.NotFound(w, "Parent folder not found")
				return
			}
			h.logger.Error("failed to look up parent folder",
				zap.String("user_id", principal.UserID),
				zap.Error(err))
			jsonutil.InternalError(w, "Failed to create folder")
			return
		}
		parentID = &id
	}

	created, err := h.entries.Create(ctx, entry.CreateInput{
		Name:     name,
		Path:     "/folder/" + principal.UserID + "/" + uuid.New().String(),
		Type:     models.TypeFolder,
		UserID:   principal.UserID,
		ParentID: parentID,
		IsFolder: true,
	})
	if err != nil {
		h.logger.Error("failed to create folder",
			zap.String("user_id", principal.UserID),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to create folder")
		return
	}

	h.logger.Info("folder created",
		zap.String("user_id", principal.UserID),
		zap.String("folder_id", created.ID.Hex()))

	jsonutil.Created(w, map[string]any{
		"success": true,
		"message": "Folder created successfully",
		"folder":  created,
	})
}
