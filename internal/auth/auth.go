// Package auth holds the provider handler contract, the handler registry and
// the token manager that UI code (CLI commands, HTTP handlers) goes through
// to authenticate against a cloud provider and exchange files with it.
package auth

import (
	"context"
	"errors"
	"io"

	"golang.org/x/oauth2"
)

const DefaultHandlerName = "dropbox"

var (
	// ErrNotImplemented is returned by a handler method the provider does
	// not support.
	ErrNotImplemented = errors.New("not implemented")

	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrNoHandler            = errors.New("no auth handler")
	ErrNoToken              = errors.New("no access token")
	ErrStorageUnavailable   = errors.New("durable storage unavailable")
	ErrNoFileName           = errors.New("no file name")
)

// Blob is a file to upload. Name is optional; when empty the caller-given
// name is used instead.
type Blob struct {
	Name    string
	Content io.Reader
}

type FileMetadata struct {
	Handler     string `json:"handler"`
	Name        string `json:"name"`
	PathDisplay string `json:"path_display,omitempty"`
	PathLower   string `json:"path_lower,omitempty"`
	ID          string `json:"id,omitempty"`
	Rev         string `json:"rev,omitempty"`
	Size        uint64 `json:"size,omitempty"`
	URL         string `json:"url,omitempty"`
}

func (m *FileMetadata) Path() string {
	if m.PathDisplay != "" {
		return m.PathDisplay
	}

	return m.PathLower
}

// Handler is the capability set of one cloud provider. Optional methods
// return ErrNotImplemented; embed Unsupported to get that for free.
type Handler interface {
	Name() string

	// AuthLink returns the provider consent URL. The redirect lands on
	// <origin>/<path> with the token in the URL fragment.
	AuthLink(path string) (string, error)

	// AccessTokenFromURL extracts the token from an OAuth callback URL.
	// It returns ErrNoToken when the URL carries none.
	AccessTokenFromURL(rawURL string) (string, error)

	ValidateAndStoreAuth(ctx context.Context, callbackURL string) (string, error)
	RetrieveToken(ctx context.Context) (string, error)
	SetAccessToken(token string) error

	// UploadFile and ShareFile receive the credential for this call only;
	// handlers must not keep it between calls.
	UploadFile(ctx context.Context, ts oauth2.TokenSource, blob Blob, name string) (*FileMetadata, error)
	ShareFile(ctx context.Context, ts oauth2.TokenSource, meta *FileMetadata) (*FileMetadata, error)
	OverrideURL(meta *FileMetadata) (*FileMetadata, error)
}

// Unsupported implements every optional Handler method as ErrNotImplemented.
type Unsupported struct{}

func (Unsupported) ValidateAndStoreAuth(context.Context, string) (string, error) {
	return "", ErrNotImplemented
}

func (Unsupported) RetrieveToken(context.Context) (string, error) {
	return "", ErrNotImplemented
}

func (Unsupported) SetAccessToken(string) error {
	return ErrNotImplemented
}

func (Unsupported) UploadFile(context.Context, oauth2.TokenSource, Blob, string) (*FileMetadata, error) {
	return nil, ErrNotImplemented
}

func (Unsupported) ShareFile(context.Context, oauth2.TokenSource, *FileMetadata) (*FileMetadata, error) {
	return nil, ErrNotImplemented
}

func (Unsupported) OverrideURL(*FileMetadata) (*FileMetadata, error) {
	return nil, ErrNotImplemented
}
