package endpoints

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"formdrop/internal/drive"
	"formdrop/internal/history"

	"github.com/gin-gonic/gin"
)

// Uploader is the Drive upload capability; tests substitute a mock.
type Uploader interface {
	Upload(ctx context.Context, req drive.UploadRequest) (*drive.UploadResult, error)
}

// Recorder persists upload records; nil disables history.
type Recorder interface {
	Add(ctx context.Context, rec history.Record) (history.Record, error)
}

// UploadResponse is the response contract consumed by the form frontend.
// Field names match what the frontend already stores in entry rows.
type UploadResponse struct {
	Success     bool   `json:"success"`
	FileID      string `json:"fileId,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	URL         string `json:"url,omitempty"`
	WebViewLink string `json:"webViewLink,omitempty"`
	Error       string `json:"error,omitempty"`
	Message     string `json:"message,omitempty"`
}

// HandleUpload accepts one multipart form file and pushes it to Google Drive.
func HandleUpload(uploader Uploader, store Recorder, folderID, folderName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			slog.Warn("no file in upload request", "error", err)
			c.JSON(http.StatusBadRequest, UploadResponse{
				Success: false,
				Error:   "bad_request",
				Message: "No file uploaded or file field is missing",
			})
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			slog.Error("failed to read upload body", "error", err)
			c.JSON(http.StatusInternalServerError, UploadResponse{
				Success: false,
				Error:   "server_error",
				Message: "Failed to read uploaded file",
			})
			return
		}

		fileName := filepath.Base(header.Filename)
		if fileName == "" || fileName == "." {
			fileName = "uploaded-file"
		}
		mimeType := header.Header.Get("Content-Type")

		result, err := uploader.Upload(c.Request.Context(), drive.UploadRequest{
			FileName:   fileName,
			MimeType:   mimeType,
			Content:    content,
			FolderID:   folderID,
			FolderName: folderName,
		})
		if err != nil {
			status, category := classifyError(err)
			slog.Error("upload failed", "error", err, "category", category, "filename", fileName)
			c.JSON(status, UploadResponse{
				Success: false,
				Error:   category,
				Message: err.Error(),
			})
			return
		}

		slog.Info("file uploaded", "file_id", result.FileID, "filename", result.FileName,
			"permission_warning", result.PermissionWarning != "")

		if store != nil {
			// Best effort; the upload already succeeded.
			if _, err := store.Add(c.Request.Context(), history.Record{
				FileName:    result.FileName,
				FileID:      result.FileID,
				URL:         result.PublicURL,
				WebViewLink: result.WebViewLink,
				MimeType:    mimeType,
				Size:        int64(len(content)),
			}); err != nil {
				slog.Warn("failed to record upload history", "error", err, "file_id", result.FileID)
			}
		}

		c.JSON(http.StatusOK, UploadResponse{
			Success:     true,
			FileID:      result.FileID,
			FileName:    result.FileName,
			URL:         result.PublicURL,
			WebViewLink: result.WebViewLink,
		})
	}
}

// classifyError maps the drive error taxonomy onto HTTP statuses: fix your
// input (4xx), fix the deployment (500), or upstream trouble worth retrying
// (502).
func classifyError(err error) (int, string) {
	var credErr *drive.CredentialFormatError
	var authErr *drive.AuthenticationError
	var uploadErr *drive.UploadError

	switch {
	case errors.Is(err, drive.ErrEmptyPayload):
		return http.StatusBadRequest, "empty_file"
	case errors.Is(err, drive.ErrNoDestination):
		return http.StatusInternalServerError, "configuration"
	case errors.As(err, &credErr):
		return http.StatusInternalServerError, "configuration"
	case errors.As(err, &authErr):
		return http.StatusBadGateway, "authentication"
	case errors.As(err, &uploadErr):
		return http.StatusBadGateway, "upload"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
