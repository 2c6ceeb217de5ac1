// Package authtest provides a scriptable auth.Handler and an in-memory
// storage.Store for tests.
package authtest

import (
	"context"
	"mapshare/internal/auth"
	"mapshare/internal/storage"
	"sync"

	"golang.org/x/oauth2"
)

// Handler is an auth.Handler whose behavior is set per method. A nil func
// means the capability is missing and the method returns
// auth.ErrNotImplemented; AccessTokenFromURL falls back to fragment parsing.
type Handler struct {
	HandlerName string

	AuthLinkFunc       func(path string) (string, error)
	TokenFromURLFunc   func(rawURL string) (string, error)
	ValidateFunc       func(ctx context.Context, callbackURL string) (string, error)
	RetrieveFunc       func(ctx context.Context) (string, error)
	SetAccessTokenFunc func(token string) error
	UploadFunc         func(ctx context.Context, ts oauth2.TokenSource, blob auth.Blob, name string) (*auth.FileMetadata, error)
	ShareFunc          func(ctx context.Context, ts oauth2.TokenSource, meta *auth.FileMetadata) (*auth.FileMetadata, error)
	OverrideFunc       func(meta *auth.FileMetadata) (*auth.FileMetadata, error)

	mu        sync.Mutex
	setTokens []string
}

var _ auth.Handler = (*Handler)(nil)

func (h *Handler) Name() string {
	return h.HandlerName
}

func (h *Handler) AuthLink(path string) (string, error) {
	if h.AuthLinkFunc == nil {
		return "", auth.ErrNotImplemented
	}
	return h.AuthLinkFunc(path)
}

func (h *Handler) AccessTokenFromURL(rawURL string) (string, error) {
	if h.TokenFromURLFunc == nil {
		return auth.ParseFragmentToken(rawURL)
	}
	return h.TokenFromURLFunc(rawURL)
}

func (h *Handler) ValidateAndStoreAuth(ctx context.Context, callbackURL string) (string, error) {
	if h.ValidateFunc == nil {
		return "", auth.ErrNotImplemented
	}
	return h.ValidateFunc(ctx, callbackURL)
}

func (h *Handler) RetrieveToken(ctx context.Context) (string, error) {
	if h.RetrieveFunc == nil {
		return "", auth.ErrNotImplemented
	}
	return h.RetrieveFunc(ctx)
}

func (h *Handler) SetAccessToken(token string) error {
	if h.SetAccessTokenFunc == nil {
		return auth.ErrNotImplemented
	}

	h.mu.Lock()
	h.setTokens = append(h.setTokens, token)
	h.mu.Unlock()

	return h.SetAccessTokenFunc(token)
}

// SetTokens returns every token passed to SetAccessToken, in call order.
func (h *Handler) SetTokens() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.setTokens...)
}

func (h *Handler) UploadFile(ctx context.Context, ts oauth2.TokenSource, blob auth.Blob, name string) (*auth.FileMetadata, error) {
	if h.UploadFunc == nil {
		return nil, auth.ErrNotImplemented
	}
	return h.UploadFunc(ctx, ts, blob, name)
}

func (h *Handler) ShareFile(ctx context.Context, ts oauth2.TokenSource, meta *auth.FileMetadata) (*auth.FileMetadata, error) {
	if h.ShareFunc == nil {
		return nil, auth.ErrNotImplemented
	}
	return h.ShareFunc(ctx, ts, meta)
}

func (h *Handler) OverrideURL(meta *auth.FileMetadata) (*auth.FileMetadata, error) {
	if h.OverrideFunc == nil {
		return nil, auth.ErrNotImplemented
	}
	return h.OverrideFunc(meta)
}

type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	writes int
}

var _ storage.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.writes++
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Writes counts Set calls.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
