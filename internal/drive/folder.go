package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const folderMimeType = "application/vnd.google-apps.folder"

type folderSearchResponse struct {
	Files []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"files"`
}

type folderCreateResponse struct {
	ID string `json:"id"`
}

// resolveFolder returns the id of the named folder, creating it when no
// non-trashed match exists. First match wins; folder names are expected to be
// unique by application convention. The search-then-create window is not
// atomic, so two concurrent first-time uploads can still each create a
// folder; the cache only shrinks that window.
func (c *Client) resolveFolder(ctx context.Context, accessToken, name string) (string, error) {
	if c.cache != nil {
		if id, ok := c.cache.Get(name); ok {
			return id, nil
		}
	}

	id, err := c.searchFolder(ctx, accessToken, name)
	if err != nil {
		return "", err
	}
	if id == "" {
		id, err = c.createFolder(ctx, accessToken, name)
		if err != nil {
			return "", err
		}
	}

	if c.cache != nil {
		c.cache.Put(name, id)
	}
	return id, nil
}

func (c *Client) searchFolder(ctx context.Context, accessToken, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQueryValue(name), folderMimeType)

	u := fmt.Sprintf("%s/files?q=%s&fields=%s", c.apiBase,
		url.QueryEscape(query), url.QueryEscape("files(id, name)"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &UploadError{Op: "folder search", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UploadError{Op: "folder search", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UploadError{Op: "folder search", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UploadError{Op: "folder search", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var sr folderSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", &UploadError{Op: "folder search", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(sr.Files) == 0 {
		return "", nil
	}
	return sr.Files[0].ID, nil
}

func (c *Client) createFolder(ctx context.Context, accessToken, name string) (string, error) {
	metadata, err := json.Marshal(map[string]any{
		"name":     name,
		"mimeType": folderMimeType,
	})
	if err != nil {
		return "", &UploadError{Op: "folder create", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/files", bytes.NewReader(metadata))
	if err != nil {
		return "", &UploadError{Op: "folder create", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UploadError{Op: "folder create", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UploadError{Op: "folder create", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UploadError{Op: "folder create", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var cr folderCreateResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", &UploadError{Op: "folder create", Err: fmt.Errorf("decode response: %w", err)}
	}
	if cr.ID == "" {
		return "", &UploadError{Op: "folder create", StatusCode: resp.StatusCode, Body: "create response missing id"}
	}
	return cr.ID, nil
}

// escapeQueryValue escapes single quotes and backslashes for Drive q-string
// literals.
func escapeQueryValue(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		if r == '\'' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
