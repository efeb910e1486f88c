package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// uploadBoundary is pinned so the request body is reproducible in tests.
// Drive does not care what the token is as long as it matches the header.
const uploadBoundary = "formdrop_upload_boundary_7f3a91"

// UploadRequest carries one file to upload. Exactly one of FolderID or
// FolderName must be set; with FolderName the destination is resolved
// search-or-create per call.
type UploadRequest struct {
	FileName   string
	MimeType   string
	Content    []byte
	FolderID   string
	FolderName string
}

// UploadResult is returned on a successful upload. PermissionWarning is set
// when the file was created but the public-read grant failed; the file is
// still usable through service-account-scoped access and the grant can be
// retried independently.
type UploadResult struct {
	FileID            string
	FileName          string
	WebViewLink       string
	PublicURL         string
	PermissionWarning string
}

type uploadResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WebViewLink string `json:"webViewLink"`
}

// PublicFileURL derives the shareable viewer URL for a Drive file id.
func PublicFileURL(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", fileID)
}

// Upload mints a fresh access token, resolves the destination folder if
// needed, uploads the file as multipart/related, and grants public read
// access. Empty payloads are rejected before any network call.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Content) == 0 {
		return nil, ErrEmptyPayload
	}
	if req.FolderID == "" && req.FolderName == "" {
		return nil, ErrNoDestination
	}
	if req.MimeType == "" {
		req.MimeType = "application/octet-stream"
	}

	accessToken, err := c.mintAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	folderID := req.FolderID
	if folderID == "" {
		folderID, err = c.resolveFolder(ctx, accessToken, req.FolderName)
		if err != nil {
			return nil, err
		}
	}

	uploaded, err := c.uploadMultipart(ctx, accessToken, folderID, req)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		FileID:      uploaded.ID,
		FileName:    uploaded.Name,
		WebViewLink: uploaded.WebViewLink,
		PublicURL:   PublicFileURL(uploaded.ID),
	}

	// Best effort: a failed grant does not fail the upload.
	if err := c.grantPublicRead(ctx, accessToken, uploaded.ID); err != nil {
		slog.Warn("public read grant failed", "file_id", uploaded.ID, "error", err)
		result.PermissionWarning = err.Error()
	}

	return result, nil
}

// buildMultipartBody assembles the multipart/related body: a JSON metadata
// part followed by the raw file bytes. No base64 transform is applied to the
// content.
func buildMultipartBody(fileName, mimeType, folderID string, content []byte) ([]byte, string, error) {
	metadata, err := json.Marshal(map[string]any{
		"name":    fileName,
		"parents": []string{folderID},
	})
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(uploadBoundary); err != nil {
		return nil, "", err
	}

	metaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json"}})
	if err != nil {
		return nil, "", err
	}
	if _, err := metaPart.Write(metadata); err != nil {
		return nil, "", err
	}

	filePart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {mimeType}})
	if err != nil {
		return nil, "", err
	}
	if _, err := filePart.Write(content); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), "multipart/related; boundary=" + uploadBoundary, nil
}

func (c *Client) uploadMultipart(ctx context.Context, accessToken, folderID string, ur UploadRequest) (*uploadResponse, error) {
	body, contentType, err := buildMultipartBody(ur.FileName, ur.MimeType, folderID, ur.Content)
	if err != nil {
		return nil, &UploadError{Op: "upload", Err: err}
	}

	u := c.uploadURL + "?uploadType=multipart&fields=id,name,webViewLink"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, &UploadError{Op: "upload", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UploadError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UploadError{Op: "upload", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UploadError{Op: "upload", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var up uploadResponse
	if err := json.Unmarshal(respBody, &up); err != nil {
		return nil, &UploadError{Op: "upload", Err: fmt.Errorf("decode response: %w", err)}
	}
	if up.ID == "" {
		return nil, &UploadError{Op: "upload", StatusCode: resp.StatusCode, Body: "upload response missing id"}
	}
	return &up, nil
}

// grantPublicRead makes the file readable by anyone with the link.
func (c *Client) grantPublicRead(ctx context.Context, accessToken, fileID string) error {
	permission, err := json.Marshal(map[string]string{
		"role": "reader",
		"type": "anyone",
	})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/files/%s/permissions", c.apiBase, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(permission))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("permission grant returned status %d: %s", resp.StatusCode, string(body))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
