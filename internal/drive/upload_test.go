package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDoer fails every request and counts attempts, to prove a code path
// makes no network calls.
type countingDoer struct {
	calls int
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	return nil, fmt.Errorf("unexpected network call to %s", req.URL)
}

// fakeDrive is a minimal Google endpoint for tests: token exchange, folder
// search/create, multipart upload, permission grant.
type fakeDrive struct {
	srv *httptest.Server
	mux *http.ServeMux

	uploadBodies   [][]byte
	uploadTypes    []string
	permissionReqs int
	failPermission bool
}

func newFakeDrive(t *testing.T) *fakeDrive {
	t.Helper()

	f := &fakeDrive{mux: http.NewServeMux()}

	f.mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "test-token", ExpiresIn: 3599, TokenType: "Bearer"})
	})
	f.mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		f.uploadBodies = append(f.uploadBodies, body)
		f.uploadTypes = append(f.uploadTypes, r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(uploadResponse{
			ID:          "file-123",
			Name:        "a.png",
			WebViewLink: "https://drive.google.com/file/d/file-123/view?usp=drivesdk",
		})
	})
	f.mux.HandleFunc("POST /drive/files/{id}/permissions", func(w http.ResponseWriter, r *http.Request) {
		f.permissionReqs++
		if f.failPermission {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": {"message": "internal error"}}`))
			return
		}
		w.Write([]byte(`{"id": "perm-1"}`))
	})

	f.srv = httptest.NewServer(f.mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeDrive) client(t *testing.T, opts ...Option) *Client {
	opts = append(opts, WithEndpoints(f.srv.URL+"/token", f.srv.URL+"/drive", f.srv.URL+"/upload"))
	return testClient(t, opts...)
}

func TestBuildMultipartBody_Shape(t *testing.T) {
	content := []byte("17 bytes of data\x00")
	require.Len(t, content, 17)

	body, contentType, err := buildMultipartBody("a.png", "image/png", "folder-1", content)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/related", mediaType)
	require.NotEmpty(t, params["boundary"])

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])

	meta, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "application/json", meta.Header.Get("Content-Type"))
	var metadata struct {
		Name    string   `json:"name"`
		Parents []string `json:"parents"`
	}
	require.NoError(t, json.NewDecoder(meta).Decode(&metadata))
	assert.Equal(t, "a.png", metadata.Name)
	assert.Equal(t, []string{"folder-1"}, metadata.Parents)

	filePart, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "image/png", filePart.Header.Get("Content-Type"))
	got, err := io.ReadAll(filePart)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Exactly two parts.
	_, err = reader.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestUpload_RejectsEmptyPayloadBeforeNetwork(t *testing.T) {
	doer := &countingDoer{}
	c := testClient(t, WithHTTPClient(doer))

	_, err := c.Upload(context.Background(), UploadRequest{
		FileName: "empty.txt",
		MimeType: "text/plain",
		Content:  nil,
		FolderID: "folder-1",
	})

	require.ErrorIs(t, err, ErrEmptyPayload)
	assert.Equal(t, 0, doer.calls)
}

func TestUpload_RejectsMissingDestinationBeforeNetwork(t *testing.T) {
	doer := &countingDoer{}
	c := testClient(t, WithHTTPClient(doer))

	_, err := c.Upload(context.Background(), UploadRequest{
		FileName: "a.png",
		MimeType: "image/png",
		Content:  []byte("data"),
	})

	require.ErrorIs(t, err, ErrNoDestination)
	assert.Equal(t, 0, doer.calls)
}

func TestUpload_Success(t *testing.T) {
	fake := newFakeDrive(t)
	c := fake.client(t)

	result, err := c.Upload(context.Background(), UploadRequest{
		FileName: "a.png",
		MimeType: "image/png",
		Content:  []byte("png-bytes"),
		FolderID: "folder-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "file-123", result.FileID)
	assert.Equal(t, "a.png", result.FileName)
	assert.Equal(t, "https://drive.google.com/file/d/file-123/view", result.PublicURL)
	assert.Equal(t, "https://drive.google.com/file/d/file-123/view?usp=drivesdk", result.WebViewLink)
	assert.Empty(t, result.PermissionWarning)
	assert.Equal(t, 1, fake.permissionReqs)

	// Raw bytes travel verbatim inside the multipart body.
	require.Len(t, fake.uploadBodies, 1)
	assert.Contains(t, string(fake.uploadBodies[0]), "png-bytes")
	assert.Contains(t, fake.uploadTypes[0], "multipart/related")
}

func TestUpload_PermissionFailureIsNonFatal(t *testing.T) {
	fake := newFakeDrive(t)
	fake.failPermission = true
	c := fake.client(t)

	result, err := c.Upload(context.Background(), UploadRequest{
		FileName: "a.png",
		MimeType: "image/png",
		Content:  []byte("png-bytes"),
		FolderID: "folder-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "file-123", result.FileID)
	assert.Equal(t, "https://drive.google.com/file/d/file-123/view?usp=drivesdk", result.WebViewLink)
	assert.NotEmpty(t, result.PermissionWarning)
	assert.Equal(t, 1, fake.permissionReqs)
}

func TestUpload_UpstreamFailureSurfacesBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "test-token"})
	})
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "The user's Drive storage quota has been exceeded."}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, WithEndpoints(srv.URL+"/token", srv.URL+"/drive", srv.URL+"/upload"))

	_, err := c.Upload(context.Background(), UploadRequest{
		FileName: "big.bin",
		Content:  []byte("data"),
		FolderID: "folder-1",
	})

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, http.StatusForbidden, uploadErr.StatusCode)
	assert.Contains(t, uploadErr.Body, "storage quota")
}

func TestPublicFileURL_Deterministic(t *testing.T) {
	assert.Equal(t, "https://drive.google.com/file/d/abc123/view", PublicFileURL("abc123"))
}
