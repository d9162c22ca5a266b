package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	defaultUploadBaseURL = "https://upload.imagekit.io"
	defaultAPIBaseURL    = "https://api.imagekit.io"
)

// ImageKitConfig configures the hosted media backend.
type ImageKitConfig struct {
	// PrivateKey authenticates API calls (HTTP basic auth, key as the
	// username with an empty password).
	PrivateKey string
	// URLEndpoint is the account's delivery endpoint, e.g.
	// "https://ik.imagekit.io/yourid". Informational; upload responses
	// carry absolute URLs already.
	URLEndpoint string
	// UploadBaseURL and APIBaseURL override the service hosts. Tests
	// point them at an httptest server; production leaves them empty.
	UploadBaseURL string
	APIBaseURL    string
}

// ImageKit is a Store backed by the ImageKit REST API.
type ImageKit struct {
	cfg    ImageKitConfig
	client *http.Client
	logger *zap.Logger
}

// NewImageKit creates the hosted media backend.
func NewImageKit(cfg ImageKitConfig, logger *zap.Logger) (*ImageKit, error) {
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("imagekit: private key is required")
	}
	if cfg.UploadBaseURL == "" {
		cfg.UploadBaseURL = defaultUploadBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}

	return &ImageKit{
		cfg: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}, nil
}

type imagekitFile struct {
	FileID       string `json:"fileId"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	FilePath     string `json:"filePath"`
}

type imagekitError struct {
	Message string `json:"message"`
}

// Upload pushes a file via the multipart upload endpoint.
func (ik *ImageKit) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", input.FileName)
	if err != nil {
		return nil, fmt.Errorf("imagekit: build upload form: %w", err)
	}
	if _, err := io.Copy(part, input.Data); err != nil {
		return nil, fmt.Errorf("imagekit: read upload data: %w", err)
	}
	if err := mw.WriteField("fileName", input.FileName); err != nil {
		return nil, fmt.Errorf("imagekit: build upload form: %w", err)
	}
	if input.Folder != "" {
		if err := mw.WriteField("folder", input.Folder); err != nil {
			return nil, fmt.Errorf("imagekit: build upload form: %w", err)
		}
	}
	// The caller already made the name unique; a second rename on the
	// backend would desync the stored URL from the stored name.
	if err := mw.WriteField("useUniqueFileName", "false"); err != nil {
		return nil, fmt.Errorf("imagekit: build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("imagekit: build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ik.cfg.UploadBaseURL+"/api/v1/files/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("imagekit: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(ik.cfg.PrivateKey, "")

	resp, err := ik.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagekit: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ik.apiError("upload", resp)
	}

	var f imagekitFile
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("imagekit: decode upload response: %w", err)
	}

	ik.logger.Debug("uploaded file to imagekit",
		zap.String("file_id", f.FileID),
		zap.String("name", f.Name))

	return &UploadResult{
		URL:          f.URL,
		ThumbnailURL: f.ThumbnailURL,
		FilePath:     f.FilePath,
	}, nil
}

// ListFiles searches the account's media library.
func (ik *ImageKit) ListFiles(ctx context.Context, opts ListOptions) ([]FileInfo, error) {
	q := url.Values{}
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	endpoint := ik.cfg.APIBaseURL + "/v1/files"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("imagekit: build list request: %w", err)
	}
	req.SetBasicAuth(ik.cfg.PrivateKey, "")

	resp, err := ik.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagekit: list files: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ik.apiError("list files", resp)
	}

	var files []imagekitFile
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, fmt.Errorf("imagekit: decode list response: %w", err)
	}

	out := make([]FileInfo, 0, len(files))
	for _, f := range files {
		out = append(out, FileInfo{
			FileID: f.FileID,
			Name:   f.Name,
			URL:    f.URL,
		})
	}
	return out, nil
}

// DeleteFile removes an object. The argument is treated as a file id when
// it came from ListFiles, which is how the delete handler calls it; a 404
// from the service counts as success.
func (ik *ImageKit) DeleteFile(ctx context.Context, name string) error {
	endpoint := ik.cfg.APIBaseURL + "/v1/files/" + url.PathEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("imagekit: build delete request: %w", err)
	}
	req.SetBasicAuth(ik.cfg.PrivateKey, "")

	resp, err := ik.client.Do(req)
	if err != nil {
		return fmt.Errorf("imagekit: delete file: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		// Already gone; delete is idempotent.
		ik.logger.Debug("imagekit file already deleted", zap.String("name", name))
		return nil
	default:
		return ik.apiError("delete file", resp)
	}
}

func (ik *ImageKit) apiError(op string, resp *http.Response) error {
	var apiErr imagekitError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("imagekit: %s: %s (status %d)", op, apiErr.Message, resp.StatusCode)
	}
	return fmt.Errorf("imagekit: %s: unexpected status %d", op, resp.StatusCode)
}
