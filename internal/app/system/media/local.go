package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// thumbDir is the subtree local thumbnails live under. It is excluded
// from listings so a thumbnail never shadows its original.
const thumbDir = "thumbs"

// thumbWidth matches the preview size the web client renders.
const thumbWidth = 400

// LocalConfig configures the disk-backed media backend.
type LocalConfig struct {
	// BasePath is the directory objects are written under.
	BasePath string
	// BaseURL is the public prefix objects are served from, e.g. "/media".
	BaseURL string
}

// Local is a Store backed by the local filesystem. Uploaded images get a
// generated thumbnail alongside the original.
type Local struct {
	store    storage.Store
	basePath string
	baseURL  string
	logger   *zap.Logger
}

// NewLocal creates the disk-backed media backend.
func NewLocal(cfg LocalConfig, logger *zap.Logger) (*Local, error) {
	store, err := storage.NewLocal(storage.LocalConfig{
		BasePath: cfg.BasePath,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("local media: %w", err)
	}

	return &Local{
		store:    store,
		basePath: cfg.BasePath,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		logger:   logger,
	}, nil
}

// Upload writes the file under the folder path and, for images, renders a
// thumbnail next to it.
func (l *Local) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	objectPath := path.Join(strings.TrimPrefix(input.Folder, "/"), input.FileName)

	// Buffer the payload; image uploads need a second pass for the
	// thumbnail.
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("local media: read upload data: %w", err)
	}

	opts := &storage.PutOptions{
		ContentType: input.ContentType,
	}
	if err := l.store.Put(ctx, objectPath, bytes.NewReader(data), opts); err != nil {
		return nil, fmt.Errorf("local media: store object: %w", err)
	}

	result := &UploadResult{
		URL:      l.objectURL(objectPath),
		FilePath: "/" + objectPath,
	}

	if strings.HasPrefix(input.ContentType, "image/") {
		thumbPath, err := l.writeThumbnail(ctx, objectPath, data)
		if err != nil {
			// A missing thumbnail degrades the preview, nothing else.
			l.logger.Warn("failed to generate thumbnail",
				zap.String("path", objectPath),
				zap.Error(err))
		} else {
			result.ThumbnailURL = l.objectURL(thumbPath)
		}
	}

	return result, nil
}

func (l *Local) writeThumbnail(ctx context.Context, objectPath string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	thumbPath := path.Join(thumbDir, objectPath)
	opts := &storage.PutOptions{ContentType: "image/jpeg"}
	if err := l.store.Put(ctx, thumbPath, &buf, opts); err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}
	return thumbPath, nil
}

// ListFiles walks the storage tree looking for objects with the requested
// name. Thumbnails are skipped.
func (l *Local) ListFiles(ctx context.Context, opts ListOptions) ([]FileInfo, error) {
	var out []FileInfo

	err := filepath.WalkDir(l.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, relErr := filepath.Rel(l.basePath, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == thumbDir {
				return filepath.SkipDir
			}
			return nil
		}

		if opts.Name != "" && d.Name() != opts.Name {
			return nil
		}

		out = append(out, FileInfo{
			FileID: rel,
			Name:   d.Name(),
			URL:    l.objectURL(rel),
		})
		if opts.Limit > 0 && len(out) >= opts.Limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("local media: list files: %w", err)
	}

	return out, nil
}

// DeleteFile removes an object and its thumbnail. The argument is either a
// relative path (a FileID from ListFiles) or a bare object name, in which
// case the first match in the tree is removed. Missing objects are fine.
func (l *Local) DeleteFile(ctx context.Context, name string) error {
	objectPath := strings.TrimPrefix(name, "/")

	if !strings.Contains(objectPath, "/") {
		matches, err := l.ListFiles(ctx, ListOptions{Name: objectPath, Limit: 1})
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}
		objectPath = matches[0].FileID
	}

	if err := l.store.Delete(ctx, objectPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local media: delete object: %w", err)
	}
	if err := l.store.Delete(ctx, path.Join(thumbDir, objectPath)); err != nil && !os.IsNotExist(err) {
		l.logger.Debug("thumbnail cleanup failed",
			zap.String("path", objectPath),
			zap.Error(err))
	}
	return nil
}

func (l *Local) objectURL(objectPath string) string {
	return l.baseURL + "/" + objectPath
}
