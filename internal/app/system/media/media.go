// Package media abstracts the external media service that holds file
// bytes. The database keeps metadata only; the bytes and thumbnails live
// behind one of the Store implementations here.
//
// Two backends exist:
//   - imagekit: the hosted media CDN the production deployment uses
//   - local: disk-backed storage with generated thumbnails, for
//     development and tests
package media

import (
	"context"
	"io"
)

// UploadInput describes a file to push to the media backend.
type UploadInput struct {
	// FileName is the object name to store under. Callers pass a
	// uuid-based name so concurrent uploads of "photo.jpg" never collide.
	FileName string
	// Folder is the backend folder to place the object in, e.g.
	// "/droppic/<userID>/folder/<parentID>".
	Folder string
	// ContentType is the MIME type of the data.
	ContentType string
	// Data is the file bytes. The backend reads it to completion.
	Data io.Reader
}

// UploadResult is what the backend reports after a successful upload.
type UploadResult struct {
	// URL is the public URL of the stored object.
	URL string
	// ThumbnailURL is a preview URL when the backend generated one
	// (images), empty otherwise.
	ThumbnailURL string
	// FilePath is the backend's own path for the object, stored so the
	// object can be located again at delete time.
	FilePath string
}

// ListOptions filters a backend file listing.
type ListOptions struct {
	// Name restricts results to objects with this exact name.
	Name string
	// Limit caps the number of results; 0 means backend default.
	Limit int
}

// FileInfo is one object in a backend listing.
type FileInfo struct {
	FileID string
	Name   string
	URL    string
}

// Store is the capability surface the handlers need from a media backend.
type Store interface {
	// Upload stores a file and returns its public URL and backend path.
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)

	// ListFiles searches the backend's objects. The delete path uses it
	// to locate an object by name when the stored URL does not resolve.
	ListFiles(ctx context.Context, opts ListOptions) ([]FileInfo, error)

	// DeleteFile removes an object by name or id. Implementations treat
	// a missing object as success; delete is idempotent.
	DeleteFile(ctx context.Context, name string) error
}
