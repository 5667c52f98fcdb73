// Package yandexdisk adapts the Yandex.Disk REST API to the storage.Storage
// capability interface. The flow is: request an upload URL, PUT to the
// returned href, request a download URL, GET the href, DELETE by path, and
// list resources under the app's root folder.
package yandexdisk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/marmos91/cloudraid/internal/logger"
	"github.com/marmos91/cloudraid/pkg/model"
	"github.com/marmos91/cloudraid/pkg/storage"
)

const baseURL = "https://cloud-api.yandex.net/v1/disk"

// Config configures a Yandex.Disk-backed Storage.
type Config struct {
	// Token is the catalog identifier for this storage row, distinct from
	// the OAuth token used to authenticate requests.
	Token string

	// OAuthToken authenticates every request ("Authorization: OAuth <token>").
	OAuthToken string

	// HTTPClient is reused across every call. Defaults to http.DefaultClient
	// when nil.
	HTTPClient *http.Client
}

// Storage is a Yandex.Disk-backed implementation of storage.Storage.
type Storage struct {
	token      string
	oauthToken string
	client     *http.Client

	mu     sync.RWMutex
	closed bool
}

// New returns a Storage backed by the given configuration. A nil
// HTTPClient falls back to http.DefaultClient.
func New(cfg Config) *Storage {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Storage{
		token:      cfg.Token,
		oauthToken: cfg.OAuthToken,
		client:     client,
	}
}

var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Token() string           { return s.token }
func (s *Storage) Type() model.StorageType { return model.StorageTypeYandexDisk }

func (s *Storage) authHeader(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "OAuth "+s.oauthToken)
}

func (s *Storage) checkClosed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	return nil
}

// uploadHref asks the API for a one-time upload URL for name, per the
// resources/upload call in yandex_disk.py's upload/upload_by_chunks.
func (s *Storage) uploadHref(ctx context.Context, name string) (string, error) {
	u := baseURL + "/resources/upload?" + url.Values{"path": {name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	s.authHeader(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("yandexdisk: get upload href: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Href string `json:"href"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("yandexdisk: decode upload href: %w", err)
		}
		return body.Href, nil
	case http.StatusConflict:
		return "", storage.ErrObjectExists
	default:
		return "", fmt.Errorf("yandexdisk: upload href status %d", resp.StatusCode)
	}
}

func (s *Storage) putHref(ctx context.Context, href string, body io.Reader) (model.UploadStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, href, body)
	if err != nil {
		return model.UploadFailed, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return model.UploadFailed, fmt.Errorf("yandexdisk: put href: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return model.UploadFailed, fmt.Errorf("yandexdisk: put href status %d", resp.StatusCode)
	}
	return model.UploadOK, nil
}

// Upload uploads data to name in one PUT, matching yandex_disk.py's upload.
func (s *Storage) Upload(ctx context.Context, name string, data []byte) (model.UploadStatus, error) {
	if err := s.checkClosed(); err != nil {
		return model.UploadFailed, err
	}

	href, err := s.uploadHref(ctx, name)
	if err != nil {
		if err == storage.ErrObjectExists {
			logger.WarnCtx(ctx, "object already exists", logger.BlockName(name))
			return model.UploadFailed, err
		}
		return model.UploadFailed, err
	}
	if href == "" {
		return model.UploadFailed, fmt.Errorf("yandexdisk: empty upload href")
	}
	return s.putHref(ctx, href, strings.NewReader(string(data)))
}

// UploadChunked uploads r's contents to name via the same upload href,
// letting the HTTP client stream the body in chunkSize-sized reads rather
// than buffering the whole block, matching upload_by_chunks's intent.
func (s *Storage) UploadChunked(ctx context.Context, name string, r io.Reader, size int64, chunkSize int) (model.UploadStatus, error) {
	if err := s.checkClosed(); err != nil {
		return model.UploadFailed, err
	}

	href, err := s.uploadHref(ctx, name)
	if err != nil {
		return model.UploadFailed, err
	}
	if href == "" {
		return model.UploadFailed, fmt.Errorf("yandexdisk: empty upload href")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, href, io.NopCloser(r))
	if err != nil {
		return model.UploadFailed, err
	}
	if size >= 0 {
		req.ContentLength = size
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return model.UploadFailed, fmt.Errorf("yandexdisk: put href chunked: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return model.UploadFailed, fmt.Errorf("yandexdisk: put href chunked status %d", resp.StatusCode)
	}
	return model.UploadOK, nil
}

func (s *Storage) downloadHref(ctx context.Context, name string) (string, error) {
	u := baseURL + "/resources/download?" + url.Values{"path": {name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	s.authHeader(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("yandexdisk: get download href: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("yandexdisk: download href status %d", resp.StatusCode)
	}
	var body struct {
		Href string `json:"href"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("yandexdisk: decode download href: %w", err)
	}
	return body.Href, nil
}

// Download fetches name's full contents, matching yandex_disk.py's download.
func (s *Storage) Download(ctx context.Context, name string) ([]byte, model.DownloadStatus, error) {
	if err := s.checkClosed(); err != nil {
		return nil, model.DownloadFailed, err
	}

	href, err := s.downloadHref(ctx, name)
	if err != nil {
		return nil, model.DownloadFailed, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return nil, model.DownloadFailed, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, model.DownloadFailed, fmt.Errorf("yandexdisk: get href: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, model.DownloadNotFound, storage.ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, model.DownloadFailed, fmt.Errorf("yandexdisk: get href status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.DownloadFailed, fmt.Errorf("yandexdisk: read body: %w", err)
	}
	return data, model.DownloadOK, nil
}

// DownloadChunked streams name's contents into w, copying in chunkSize
// increments so the caller can bound per-read memory.
func (s *Storage) DownloadChunked(ctx context.Context, name string, w io.Writer, chunkSize int) (int64, model.DownloadStatus, error) {
	if err := s.checkClosed(); err != nil {
		return 0, model.DownloadFailed, err
	}

	href, err := s.downloadHref(ctx, name)
	if err != nil {
		return 0, model.DownloadFailed, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return 0, model.DownloadFailed, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, model.DownloadFailed, fmt.Errorf("yandexdisk: get href chunked: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, model.DownloadNotFound, storage.ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return 0, model.DownloadFailed, fmt.Errorf("yandexdisk: get href chunked status %d", resp.StatusCode)
	}

	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}
	n, err := io.CopyBuffer(w, resp.Body, make([]byte, chunkSize))
	if err != nil {
		return n, model.DownloadFailed, err
	}
	return n, model.DownloadOK, nil
}

// Delete removes name permanently, matching yandex_disk.py's delete
// (permanently=true, force_async=true; 202/204 both mean accepted).
func (s *Storage) Delete(ctx context.Context, name string) (model.DeleteStatus, error) {
	if err := s.checkClosed(); err != nil {
		return model.DeleteFailed, err
	}

	u := baseURL + "/resources?" + url.Values{
		"path":        {name},
		"permanently": {"true"},
		"force_async": {"true"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return model.DeleteFailed, err
	}
	s.authHeader(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return model.DeleteFailed, fmt.Errorf("yandexdisk: delete: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusNoContent:
		return model.DeleteOK, nil
	case http.StatusNotFound:
		return model.DeleteNotFound, storage.ErrObjectNotFound
	default:
		return model.DeleteFailed, fmt.Errorf("yandexdisk: delete status %d", resp.StatusCode)
	}
}

// List returns every file name under resources/files. Fetches a single
// page of up to 1000 entries; a catalog this size does not need deeper
// pagination.
func (s *Storage) List(ctx context.Context) ([]string, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}

	u := baseURL + "/resources/files?" + url.Values{"limit": {"1000"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	s.authHeader(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yandexdisk: list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yandexdisk: list status %d", resp.StatusCode)
	}

	var body struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("yandexdisk: decode list: %w", err)
	}

	names := make([]string, 0, len(body.Items))
	for _, item := range body.Items {
		names = append(names, item.Name)
	}
	return names, nil
}

// Size returns used/total capacity from the GET /disk call, matching
// yandex_disk.py's size.
func (s *Storage) Size(ctx context.Context) (used, total int64, err error) {
	if err := s.checkClosed(); err != nil {
		return 0, 0, err
	}

	u := baseURL + "?" + url.Values{"fields": {"total_space,used_space"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, err
	}
	s.authHeader(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("yandexdisk: size: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("yandexdisk: size status %d", resp.StatusCode)
	}

	var body struct {
		UsedSpace  int64 `json:"used_space"`
		TotalSpace int64 `json:"total_space"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("yandexdisk: decode size: %w", err)
	}
	return body.UsedSpace, body.TotalSpace, nil
}

// Close marks the storage closed; subsequent calls return ErrStorageClosed.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
