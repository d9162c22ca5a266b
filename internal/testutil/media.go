package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dalemusser/droppic/internal/app/system/media"
)

// FakeMedia is an in-memory media.Store for handler and job tests. It
// records every call and can be told to fail specific operations.
type FakeMedia struct {
	mu sync.Mutex

	// objects maps object name -> stored URL.
	objects map[string]string

	// FailUpload, FailList, and FailDelete make the corresponding
	// operation return an error.
	FailUpload bool
	FailList   bool
	FailDelete bool

	// Uploads and Deletes record the calls made, in order.
	Uploads []media.UploadInput
	Deletes []string
}

// NewFakeMedia creates an empty fake media backend.
func NewFakeMedia() *FakeMedia {
	return &FakeMedia{objects: make(map[string]string)}
}

// Upload records the call and fabricates a plausible result.
func (f *FakeMedia) Upload(ctx context.Context, input media.UploadInput) (*media.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailUpload {
		return nil, errors.New("fake media: upload failed")
	}

	// Drain the reader the way a real backend would.
	if input.Data != nil {
		if _, err := io.Copy(io.Discard, input.Data); err != nil {
			return nil, err
		}
	}

	folder := strings.TrimSuffix(input.Folder, "/")
	url := fmt.Sprintf("https://media.test%s/%s", folder, input.FileName)

	f.Uploads = append(f.Uploads, input)
	f.objects[input.FileName] = url

	result := &media.UploadResult{
		URL:      url,
		FilePath: folder + "/" + input.FileName,
	}
	if strings.HasPrefix(input.ContentType, "image/") {
		result.ThumbnailURL = fmt.Sprintf("https://media.test/thumbs%s/%s", folder, input.FileName)
	}
	return result, nil
}

// ListFiles returns stored objects matching the options.
func (f *FakeMedia) ListFiles(ctx context.Context, opts media.ListOptions) ([]media.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailList {
		return nil, errors.New("fake media: list failed")
	}

	var out []media.FileInfo
	for name, url := range f.objects {
		if opts.Name != "" && name != opts.Name {
			continue
		}
		out = append(out, media.FileInfo{FileID: "fake_" + name, Name: name, URL: url})
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

// DeleteFile records the call and removes the object if present.
func (f *FakeMedia) DeleteFile(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailDelete {
		return errors.New("fake media: delete failed")
	}

	f.Deletes = append(f.Deletes, name)
	delete(f.objects, name)
	delete(f.objects, strings.TrimPrefix(name, "fake_"))
	return nil
}

// Has reports whether an object with the given name is stored.
func (f *FakeMedia) Has(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[name]
	return ok
}

// DeleteCount returns the number of DeleteFile calls made.
func (f *FakeMedia) DeleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Deletes)
}
