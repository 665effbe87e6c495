package storage

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a path-style S3 endpoint that keeps objects in memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		data, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)

	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if strings.Contains(r.Header.Get("Content-Encoding"), "aws-chunked") {
			body = decodeAWSChunked(body)
		}
		f.objects[r.URL.Path] = body
		f.puts++
		w.Header().Set("ETag", `"fake"`)
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// decodeAWSChunked strips the aws-chunked framing the SDK may use for streamed checksums.
func decodeAWSChunked(raw []byte) []byte {
	var out bytes.Buffer
	rd := bufio.NewReader(bytes.NewReader(raw))
	for {
		header, err := rd.ReadString('\n')
		if err != nil {
			return out.Bytes()
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(header), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil || size == 0 {
			return out.Bytes()
		}
		if _, err := io.CopyN(&out, rd, size); err != nil {
			return out.Bytes()
		}
		_, _ = rd.ReadString('\n')
	}
}

func newFakeS3Store(t *testing.T) (SnapshotStore, *fakeS3) {
	t.Helper()

	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))

	fake := &fakeS3{objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewSnapshotStore(context.Background(), ServiceConfig{
		Driver:            "s3",
		S3BucketName:      "chat",
		S3Endpoint:        srv.URL,
		S3AccessKeyID:     "key",
		S3SecretAccessKey: "secret",
		S3ObjectKey:       "history/messages.json",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, fake
}

func TestS3StoreLoadMissing(t *testing.T) {
	store, _ := newFakeS3Store(t)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3StoreLoadObject(t *testing.T) {
	store, fake := newFakeS3Store(t)
	fake.objects["/chat/history/messages.json"] = []byte(`[{"id":7,"message":"kept"}]`)

	data, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":7,"message":"kept"}]`, string(data))
}

func TestS3StoreSaveReplaces(t *testing.T) {
	store, fake := newFakeS3Store(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []byte(`[{"id":1}]`)))
	require.NoError(t, store.Save(ctx, []byte(`[{"id":1},{"id":2}]`)))

	data, err := store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(data))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 2, fake.puts)
	assert.Len(t, fake.objects, 1, "the history is a single object")
}

func TestS3StoreRequiresBucketAndKey(t *testing.T) {
	_, err := NewSnapshotStore(context.Background(), ServiceConfig{Driver: "s3", S3ObjectKey: "k"})
	assert.Error(t, err)
}
