package drive

import (
	"errors"
	"fmt"
)

// ErrEmptyPayload is returned when an upload is attempted with zero-length
// content. It is detected before any network call is made.
var ErrEmptyPayload = errors.New("file content is empty")

// ErrNoDestination is returned when an upload names neither a folder id nor
// a folder name. This is a configuration defect, also detected before any
// network call.
var ErrNoDestination = errors.New("no destination folder id or name configured")

// CredentialFormatError means the private key could not be imported even
// after normalization. It carries structural diagnostics only, never key
// material.
type CredentialFormatError struct {
	InputLength       int
	BodyLength        int
	HasMarker         bool
	HasEscapedNewline bool
	Err               error
}

func (e *CredentialFormatError) Error() string {
	return fmt.Sprintf("private key import failed (input_length=%d body_length=%d has_marker=%t has_escaped_newline=%t): %v",
		e.InputLength, e.BodyLength, e.HasMarker, e.HasEscapedNewline, e.Err)
}

func (e *CredentialFormatError) Unwrap() error { return e.Err }

// AuthenticationError means the token endpoint rejected the signed assertion.
// Body is the upstream response body verbatim; it contains no caller secrets
// and is relayed for operator diagnosis.
type AuthenticationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token endpoint returned status %d: %s", e.StatusCode, e.Body)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// UploadError means the folder resolution or multipart upload call failed.
type UploadError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *UploadError) Unwrap() error { return e.Err }
