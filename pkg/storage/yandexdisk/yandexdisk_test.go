package yandexdisk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serverClient returns a client that sends every request, whatever its
// host, to srv, so the adapter's fixed API host reaches the test server.
func serverClient(srv *httptest.Server) *http.Client {
	target, _ := url.Parse(srv.URL)
	return &http.Client{Transport: redirectTransport{target: target}}
}

type redirectTransport struct{ target *url.URL }

func (t redirectTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func TestUploadAndDownload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/resources/upload", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"href":"` + "http://" + r.Host + "/put" + `"}`))
	})
	mux.HandleFunc("/put", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/v1/disk/resources/download", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"href":"` + "http://" + r.Host + "/get" + `"}`))
	})
	mux.HandleFunc("/get", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("block-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(Config{Token: "tok", OAuthToken: "oauth", HTTPClient: serverClient(srv)})
	ctx := context.Background()

	status, err := s.Upload(ctx, "block-1", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 0, int(status))

	data, dlStatus, err := s.Download(ctx, "block-1")
	require.NoError(t, err)
	assert.Equal(t, 0, int(dlStatus))
	assert.Equal(t, "block-bytes", string(data))
}

func TestUploadConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/resources/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(Config{Token: "tok", OAuthToken: "oauth", HTTPClient: serverClient(srv)})
	_, err := s.Upload(context.Background(), "exists.bin", []byte("x"))
	require.Error(t, err)
}

func TestDeleteAndList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/resources/files", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"name":"a.bin"},{"name":"b.bin"}]}`))
	})
	mux.HandleFunc("/v1/disk/resources", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(Config{Token: "tok", OAuthToken: "oauth", HTTPClient: serverClient(srv)})

	status, err := s.Delete(context.Background(), "a.bin")
	require.NoError(t, err)
	assert.Equal(t, 0, int(status))

	names, err := s.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.bin", "b.bin"}, names)
}

func TestSize(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"used_space":100,"total_space":1000}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(Config{Token: "tok", OAuthToken: "oauth", HTTPClient: serverClient(srv)})
	used, total, err := s.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), used)
	assert.Equal(t, int64(1000), total)
}

func TestClosedStorageRejectsCalls(t *testing.T) {
	s := New(Config{Token: "tok", OAuthToken: "oauth"})
	require.NoError(t, s.Close())

	_, err := s.Upload(context.Background(), "x", []byte("y"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "closed"))
}
