// Package files provides the file API: upload, listing, trash, starring,
// permanent deletion, and the empty-trash bulk operation.
//
// Endpoints (mounted at /files):
//   - GET    /files                        - list entries
//   - POST   /files/upload                 - upload a file
//   - PATCH  /files/{fileID}/trash         - move to / restore from trash
//   - PATCH  /files/{fileID}/star          - toggle the star flag
//   - DELETE /files/{fileID}/delete        - permanently delete one entry
//   - DELETE /files/empty-trash            - permanently delete all trash
//
// Every route requires a bearer token; the owner scoping in the entry
// store keeps callers inside their own tree.
package files

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dalemusser/droppic/internal/app/store/entry"
	"github.com/dalemusser/droppic/internal/app/system/auth"
	"github.com/dalemusser/droppic/internal/app/system/jsonutil"
	"github.com/dalemusser/droppic/internal/app/system/media"
	"github.com/dalemusser/droppic/internal/app/system/namesanitize"
	"github.com/dalemusser/droppic/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Media cleanup outcomes reported on delete responses. The metadata row
// is gone either way; the status tells the client whether the backend
// bytes went with it.
const (
	MediaCleanupOK      = "ok"
	MediaCleanupSkipped = "skipped"
	MediaCleanupFailed  = "failed"
)

// Handler handles file API requests.
type Handler struct {
	entries        *entry.Store
	media          media.Store
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewHandler creates a new files handler.
func NewHandler(entries *entry.Store, mediaStore media.Store, maxUploadBytes int64, logger *zap.Logger) *Handler {
	return &Handler{
		entries:        entries,
		media:          mediaStore,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// allowedType reports whether a MIME type may be uploaded. Images of any
// subtype and PDFs are in; everything else is rejected up front so junk
// never reaches the media backend.
func allowedType(contentType string) bool {
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	return contentType == "application/pdf"
}

// List handles GET /files.
//
// Query parameters:
//   - parentId: list entries under this folder; omit for the root level
//   - trash:    "true" or "false" to filter on the trash flag
//   - starred:  "true" or "false" to filter on the star flag
//   - limit:    page size; omit to return everything
//   - page:     1-based page number, used with limit
//
// Response (200 OK): {"success": true, "files": [...]}; paginated
// requests also carry "total", the full match count across pages.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	var parentID *primitive.ObjectID
	if raw := r.URL.Query().Get("parentId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonutil.BadRequest(w, "Invalid parentId")
			return
		}
		parentID = &id
	}

	var opts entry.ListOptions
	if raw := r.URL.Query().Get("trash"); raw != "" {
		v := raw == "true"
		opts.Trash = &v
	}
	if raw := r.URL.Query().Get("starred"); raw != "" {
		v := raw == "true"
		opts.Starred = &v
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			jsonutil.BadRequest(w, "Invalid limit")
			return
		}
		opts.Limit = n
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			jsonutil.BadRequest(w, "Invalid page")
			return
		}
		opts.Page = n
	}

	entries, err := h.entries.ListByParent(r.Context(), principal.UserID, parentID, opts)
	if err != nil {
		h.logger.Error("failed to list entries",
			zap.String("user_id", principal.UserID),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to list files")
		return
	}
	if entries == nil {
		entries = []models.FileEntry{}
	}

	resp := map[string]any{
		"success": true,
		"files":   entries,
	}
	if opts.Limit > 0 {
		total, err := h.entries.CountByParent(r.Context(), principal.UserID, parentID, opts)
		if err != nil {
			h.logger.Error("failed to count entries",
				zap.String("user_id", principal.UserID),
				zap.Error(err))
			jsonutil.InternalError(w, "Failed to list files")
			return
		}
		resp["total"] = total
	}

	jsonutil.OK(w, resp)
}

// Upload handles POST /files/upload.
//
// Multipart form fields:
//   - files:    the file data (required; "file" is accepted as an alias)
//   - userId:   must match the authenticated user when present
//   - parentId: destination folder id (required; uploads always land in
//     a folder, never at the root)
//
// The file is stored on the media backend under a uuid-based name that
// keeps the original extension, then recorded in the database. If the
// database insert fails the uploaded object is deleted again so the
// backend does not accumulate orphans.
//
// Response (201 Created): {"success": true, "message": ..., "file": {...}}
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonutil.Error(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the %d MB upload limit", h.maxUploadBytes/(1<<20)))
			return
		}
		jsonutil.BadRequest(w, "Invalid multipart form")
		return
	}

	if formUser := r.FormValue("userId"); formUser != "" && formUser != principal.UserID {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	uploadedFile, header, err := r.FormFile("files")
	if err != nil {
		uploadedFile, header, err = r.FormFile("file")
	}
	if err != nil {
		jsonutil.BadRequest(w, "No file provided")
		return
	}
	defer uploadedFile.Close()

	// Resolve the destination folder before touching the media backend.
	raw := r.FormValue("parentId")
	if raw == "" {
		jsonutil.BadRequest(w, "Parent folder is required")
		return
	}
	id, err := primitive.ObjectIDFromHex(raw)
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
		jsonutil.InternalError(w, "Failed to upload file")
		return
	}
	parentID := &id

	ext := filepath.Ext(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}
	if !allowedType(contentType) {
		jsonutil.UnsupportedMediaType(w, "Only images and PDFs can be uploaded")
		return
	}

	displayName := namesanitize.Clean(header.Filename)
	if displayName == "" {
		displayName = "untitled" + ext
	}

	folder := uploadFolder(principal.UserID, parentID)
	objectName := uuid.New().String() + ext

	result, err := h.media.Upload(ctx, media.UploadInput{
		FileName:    objectName,
		Folder:      folder,
		ContentType: contentType,
		Data:        uploadedFile,
	})
	if err != nil {
		h.logger.Error("media upload failed",
			zap.String("user_id", principal.UserID),
			zap.String("object", objectName),
			zap.Error(err))
		jsonutil.BadGateway(w, "Failed to store file")
		return
	}

	created, err := h.entries.Create(ctx, entry.CreateInput{
		Name:      displayName,
		Path:      result.FilePath,
		Size:      header.Size,
		Type:      contentType,
		FileURL:   result.URL,
		Thumbnail: result.ThumbnailURL,
		UserID:    principal.UserID,
		ParentID:  parentID,
	})
	if err != nil {
		// The bytes are on the backend but the row never landed; remove
		// the object again.
		if cleanupErr := h.media.DeleteFile(ctx, media.ObjectName(result.URL, result.FilePath)); cleanupErr != nil {
			h.logger.Warn("failed to clean up orphaned upload",
				zap.String("object", objectName),
				zap.Error(cleanupErr))
		}
		h.logger.Error("failed to create file record",
			zap.String("user_id", principal.UserID),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to save file record")
		return
	}

	h.logger.Info("file uploaded",
		zap.String("user_id", principal.UserID),
		zap.String("file_id", created.ID.Hex()),
		zap.String("type", contentType),
		zap.Int64("size", header.Size))

	jsonutil.Created(w, map[string]any{
		"success": true,
		"message": "File uploaded successfully",
		"file":    created,
	})
}

// uploadFolder is the media backend folder for a user's uploads.
func uploadFolder(userID string, parentID *primitive.ObjectID) string {
	if parentID != nil {
		return "/droppic/" + userID + "/folder/" + parentID.Hex()
	}
	return "/droppic/" + userID
}

// ToggleTrash handles PATCH /files/{fileID}/trash. It flips the entry's
// trash flag; trashing or restoring a folder carries its whole subtree
// along.
//
// Response (200 OK): {"success": true, "message": ..., "file": {...}}
func (h *Handler) ToggleTrash(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}
	ctx := r.Context()

	id, err := fileIDParam(r)
	if err != nil {
		jsonutil.BadRequest(w, "Invalid file id")
		return
	}

	existing, err := h.entries.GetForOwner(ctx, id, principal.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "File not found")
			return
		}
		h.logger.Error("failed to load entry", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update file")
		return
	}

	trashed := !existing.IsTrash
	updated, err := h.entries.SetTrashForOwner(ctx, id, principal.UserID, trashed)
	if err != nil {
		h.logger.Error("failed to update trash flag", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update file")
		return
	}

	if updated.IsFolder {
		if err := h.cascadeTrash(r, principal.UserID, updated.ID, trashed); err != nil {
			h.logger.Error("failed to cascade trash to folder contents",
				zap.String("folder_id", updated.ID.Hex()),
				zap.Error(err))
			jsonutil.InternalError(w, "Failed to update folder contents")
			return
		}
	}

	message := "File moved to trash"
	if !trashed {
		message = "File restored from trash"
	}

	jsonutil.OK(w, map[string]any{
		"success": true,
		"message": message,
		"file":    updated,
	})
}

func (h *Handler) cascadeTrash(r *http.Request, userID string, folderID primitive.ObjectID, trashed bool) error {
	descendants, err := h.entries.Descendants(r.Context(), userID, folderID)
	if err != nil {
		return err
	}
	ids := make([]primitive.ObjectID, 0, len(descendants))
	for _, d := range descendants {
		ids = append(ids, d.ID)
	}
	_, err = h.entries.SetTrashByIDsForOwner(r.Context(), userID, ids, trashed)
	return err
}

// ToggleStar handles PATCH /files/{fileID}/star.
//
// Response (200 OK): {"success": true, "message": ..., "file": {...}}
func (h *Handler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}
	ctx := r.Context()

	id, err := fileIDParam(r)
	if err != nil {
		jsonutil.BadRequest(w, "Invalid file id")
		return
	}

	existing, err := h.entries.GetForOwner(ctx, id, principal.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "File not found")
			return
		}
		h.logger.Error("failed to load entry", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update file")
		return
	}

	updated, err := h.entries.SetStarredForOwner(ctx, id, principal.UserID, !existing.IsStarred)
	if err != nil {
		h.logger.Error("failed to update star flag", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update file")
		return
	}

	message := "File starred"
	if !updated.IsStarred {
		message = "File unstarred"
	}

	jsonutil.OK(w, map[string]any{
		"success": true,
		"message": message,
		"file":    updated,
	})
}

// Delete handles DELETE /files/{fileID}/delete. The entry is removed
// permanently; a folder takes its whole subtree with it. Media cleanup is
// best-effort: the metadata is gone even when the backend object could
// not be removed, and the response reports which happened.
//
// Response (200 OK):
//
//	{
//	    "success": true,
//	    "message": "File deleted successfully",
//	    "deleteFile": {...},
//	    "deletedCount": 3,
//	    "mediaCleanup": "ok" | "skipped" | "failed"
//	}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}
	ctx := r.Context()

	id, err := fileIDParam(r)
	if err != nil {
		jsonutil.BadRequest(w, "Invalid file id")
		return
	}

	existing, err := h.entries.GetForOwner(ctx, id, principal.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "File not found")
			return
		}
		h.logger.Error("failed to load entry", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete file")
		return
	}

	toDelete := []models.FileEntry{*existing}
	if existing.IsFolder {
		descendants, err := h.entries.Descendants(ctx, principal.UserID, existing.ID)
		if err != nil {
			h.logger.Error("failed to collect folder contents", zap.Error(err))
			jsonutil.InternalError(w, "Failed to delete folder")
			return
		}
		toDelete = append(toDelete, descendants...)
	}

	cleanup := MediaCleanupSkipped
	for _, e := range toDelete {
		if e.IsFolder {
			continue
		}
		switch h.deleteMediaObject(r, e) {
		case MediaCleanupOK:
			if cleanup != MediaCleanupFailed {
				cleanup = MediaCleanupOK
			}
		case MediaCleanupFailed:
			cleanup = MediaCleanupFailed
		}
	}

	ids := make([]primitive.ObjectID, 0, len(toDelete))
	for _, e := range toDelete {
		ids = append(ids, e.ID)
	}
	deleted, err := h.entries.DeleteByIDsForOwner(ctx, principal.UserID, ids)
	if err != nil {
		h.logger.Error("failed to delete entries", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete file")
		return
	}

	h.logger.Info("entry deleted",
		zap.String("user_id", principal.UserID),
		zap.String("file_id", existing.ID.Hex()),
		zap.Int64("deleted", deleted),
		zap.String("media_cleanup", cleanup))

	jsonutil.OK(w, map[string]any{
		"success":      true,
		"message":      "File deleted successfully",
		"deleteFile":   existing,
		"deletedCount": deleted,
		"mediaCleanup": cleanup,
	})
}

// deleteMediaObject removes one entry's bytes from the media backend and
// reports the cleanup status. The object name comes from the stored URL
// (query string stripped) with the backend path as fallback; a listing
// lookup resolves it to a backend file id when possible, otherwise the
// name is deleted directly.
func (h *Handler) deleteMediaObject(r *http.Request, e models.FileEntry) string {
	name := media.ObjectName(e.FileURL, e.Path)
	if name == "" {
		return MediaCleanupSkipped
	}
	ctx := r.Context()

	target := name
	matches, err := h.media.ListFiles(ctx, media.ListOptions{Name: name, Limit: 1})
	if err != nil {
		h.logger.Warn("media listing failed during delete",
			zap.String("object", name),
			zap.Error(err))
	} else if len(matches) > 0 {
		target = matches[0].FileID
	}

	if err := h.media.DeleteFile(ctx, target); err != nil {
		h.logger.Warn("media delete failed",
			zap.String("entry_id", e.ID.Hex()),
			zap.String("object", target),
			zap.Error(err))
		return MediaCleanupFailed
	}
	return MediaCleanupOK
}

// EmptyTrash handles DELETE /files/empty-trash. Every trashed entry the
// caller owns is removed permanently, wherever it sits in the tree. Media
// cleanup failures are counted, not fatal; the rows go regardless.
//
// An empty trash is a no-op: 200 with "No files found in trash" and no
// writes of any kind.
//
// Response (200 OK):
//
//	{
//	    "success": true,
//	    "message": "Trash emptied",
//	    "deletedCount": 7,
//	    "mediaFailures": 0
//	}
func (h *Handler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}
	ctx := r.Context()

	trashed, err := h.entries.ListTrashed(ctx, principal.UserID)
	if err != nil {
		h.logger.Error("failed to list trash",
			zap.String("user_id", principal.UserID),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to empty trash")
		return
	}
	if len(trashed) == 0 {
		jsonutil.OK(w, map[string]any{
			"success": true,
			"message": "No files found in trash",
		})
		return
	}

	mediaFailures := 0
	for _, e := range trashed {
		if e.IsFolder {
			continue
		}
		if h.deleteMediaObject(r, e) == MediaCleanupFailed {
			mediaFailures++
		}
	}

	deleted, err := h.entries.DeleteTrashedForOwner(ctx, principal.UserID)
	if err != nil {
		h.logger.Error("failed to delete trashed entries",
			zap.String("user_id", principal.UserID),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to empty trash")
		return
	}

	h.logger.Info("trash emptied",
		zap.String("user_id", principal.UserID),
		zap.Int64("deleted", deleted),
		zap.Int("media_failures", mediaFailures))

	jsonutil.OK(w, map[string]any{
		"success":       true,
		"message":       "Trash emptied",
		"deletedCount":  deleted,
		"mediaFailures": mediaFailures,
	})
}

func fileIDParam(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "fileID"))
}
