package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TypeFolder is the literal stored in FileEntry.Type for folders.
const TypeFolder = "folder"

// FileEntry is a single node in a user's file tree. Files and folders share
// one collection; folders are rows with IsFolder set, Size 0, and no media
// content. ParentID forms an adjacency list (nil = root level).
type FileEntry struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
	Path string             `bson:"path" json:"path"` // media storage path, or synthetic path for folders
	Size int64              `bson:"size" json:"size"`
	Type string             `bson:"type" json:"type"` // MIME type, or "folder"

	// Media provider references (empty for folders)
	FileURL   string `bson:"file_url" json:"fileUrl"`
	Thumbnail string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`

	// Ownership. UserID is the opaque identifier issued by the auth
	// provider; every query against this collection is scoped by it.
	UserID   string              `bson:"user_id" json:"userId"`
	ParentID *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"`

	IsFolder  bool `bson:"is_folder" json:"isFolder"`
	IsStarred bool `bson:"is_starred" json:"isStarred"`
	IsTrash   bool `bson:"is_trash" json:"isTrash"`

	// TrashedAt is set when IsTrash flips to true and cleared on restore.
	// The trash retention job uses it to decide when to purge.
	TrashedAt *time.Time `bson:"trashed_at,omitempty" json:"trashedAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
