package s3_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/config"
	"docanalyst/internal/port"
	s3store "docanalyst/internal/storage/s3"
)

type recordedRequest struct {
	method string
	path   string
}

func fakeS3(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.Path})
		mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			w.Header().Set("ETag", `"abc123"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func newStore(t *testing.T, endpoint string) port.ObjectStorage {
	t.Helper()
	store, err := s3store.NewExportStore(&config.S3Config{
		Region:    "us-east-1",
		Bucket:    "exports",
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return store
}

func TestExportStore_UploadUsesDefaultBucket(t *testing.T) {
	srv, requests := fakeS3(t)
	store := newStore(t, srv.URL)

	body := []byte("hello")
	out, err := store.Upload(context.Background(), port.UploadInput{
		Key:         "results/a.txt",
		Body:        bytes.NewReader(body),
		ContentType: "text/plain",
		Size:        int64(len(body)),
	})

	require.NoError(t, err)
	assert.Equal(t, `"abc123"`, out.ETag)
	assert.Contains(t, out.Location, "/exports/results/a.txt")

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/exports/results/a.txt", reqs[0].path)
}

func TestExportStore_Delete(t *testing.T) {
	srv, requests := fakeS3(t)
	store := newStore(t, srv.URL)

	require.NoError(t, store.Delete(context.Background(), "other", "k.pdf"))

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodDelete, reqs[0].method)
	assert.Equal(t, "/other/k.pdf", reqs[0].path)
}

func TestExportStore_PresignedURL(t *testing.T) {
	store := newStore(t, "http://localhost:9000")

	url, err := store.GetPresignedURL(context.Background(), "", "results/a.pdf", 900)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/exports/results/a.pdf?"))
	assert.Contains(t, url, "X-Amz-Expires=900")
}
