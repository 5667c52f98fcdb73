// Package memory is an in-process Storage fake used by the upload, download,
// and balancer test suites so they can run without a real backend.
package memory

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/marmos91/cloudraid/pkg/model"
	"github.com/marmos91/cloudraid/pkg/storage"
)

// errInjected is returned by UploadChunked while the forced-failure counter
// (set by FailNext) hasn't yet reached zero. It is a transient-style error,
// not storage.ErrObjectExists, so callers retry it rather than giving up
// immediately.
var errInjected = errors.New("memory: injected upload failure")

// Storage is a goroutine-safe in-memory implementation of storage.Storage.
type Storage struct {
	token string

	mu       sync.RWMutex
	objects  map[string][]byte
	total    int64
	closed   bool
	failNext int
}

// New returns an empty memory storage with the given catalog token and
// total capacity (used to exercise the balancer's load-ratio ordering).
func New(token string, total int64) *Storage {
	return &Storage{
		token:   token,
		objects: make(map[string][]byte),
		total:   total,
	}
}

var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Token() string           { return s.token }
func (s *Storage) Type() model.StorageType { return model.StorageTypeMemory }

// FailNext arranges for the next n calls to UploadChunked, across any
// object name, to fail with errInjected before uploads are allowed to
// succeed again. Object names are random per block replica, so tests drive
// this by call count rather than by name — enough to exercise both the
// upload engine's per-task retry loop and its second-pass retry of whatever
// is still failed once the first wave drains.
func (s *Storage) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

func (s *Storage) consumeFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return true
	}
	return false
}

func (s *Storage) Upload(_ context.Context, name string, data []byte) (model.UploadStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.UploadFailed, storage.ErrStorageClosed
	}
	if _, ok := s.objects[name]; ok {
		return model.UploadFailed, storage.ErrObjectExists
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[name] = cp
	return model.UploadOK, nil
}

func (s *Storage) UploadChunked(ctx context.Context, name string, r io.Reader, _ int64, chunkSize int) (model.UploadStatus, error) {
	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}
	buf := make([]byte, 0, chunkSize)
	chunk := make([]byte, chunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.UploadFailed, err
		}
	}
	if s.consumeFailure() {
		return model.UploadFailed, errInjected
	}
	return s.Upload(ctx, name, buf)
}

func (s *Storage) Download(_ context.Context, name string) ([]byte, model.DownloadStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, model.DownloadFailed, storage.ErrStorageClosed
	}
	data, ok := s.objects[name]
	if !ok {
		return nil, model.DownloadNotFound, storage.ErrObjectNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, model.DownloadOK, nil
}

func (s *Storage) DownloadChunked(ctx context.Context, name string, w io.Writer, chunkSize int) (int64, model.DownloadStatus, error) {
	data, status, err := s.Download(ctx, name)
	if err != nil {
		return 0, status, err
	}
	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}
	var written int64
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		n, err := w.Write(data[off:end])
		written += int64(n)
		if err != nil {
			return written, model.DownloadFailed, err
		}
	}
	return written, model.DownloadOK, nil
}

func (s *Storage) Delete(_ context.Context, name string) (model.DeleteStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.DeleteFailed, storage.ErrStorageClosed
	}
	if _, ok := s.objects[name]; !ok {
		return model.DeleteNotFound, storage.ErrObjectNotFound
	}
	delete(s.objects, name)
	return model.DeleteOK, nil
}

func (s *Storage) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.objects))
	for n := range s.objects {
		names = append(names, n)
	}
	return names, nil
}

func (s *Storage) Size(_ context.Context) (used, total int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum int64
	for _, data := range s.objects {
		sum += int64(len(data))
	}
	return sum, s.total, nil
}

// Close marks the storage as closed; subsequent calls return ErrStorageClosed.
func (s *Storage) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
