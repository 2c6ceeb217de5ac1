package auth

import (
	"context"
	"errors"
	"fmt"
	"mapshare/internal/logger"
	"mapshare/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Manager validates, persists and retrieves provider tokens and dispatches
// file operations to a handler. Handlers with their own token routines are
// delegated to; otherwise the token is kept in the store under h.Name().
type Manager struct {
	store storage.Store
}

// NewManager returns a Manager backed by store. A nil store is allowed and
// makes every fallback storage access fail with ErrStorageUnavailable.
func NewManager(store storage.Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) ValidateAndStoreAuth(ctx context.Context, h Handler, callbackURL string) (string, error) {
	if h == nil {
		return "", ErrNoHandler
	}

	token, err := h.ValidateAndStoreAuth(ctx, callbackURL)
	if !errors.Is(err, ErrNotImplemented) {
		return token, err
	}

	token, err = h.AccessTokenFromURL(callbackURL)
	if err != nil {
		return "", err
	}

	if token == "" {
		return "", ErrNoToken
	}

	if m.store == nil {
		return "", ErrStorageUnavailable
	}

	if err := m.store.Set(ctx, h.Name(), token); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	logger.Log.Info("access token stored",
		zap.String("handler", h.Name()))

	return token, nil
}

func (m *Manager) RetrieveAuthToken(ctx context.Context, h Handler) (string, error) {
	if h == nil {
		return "", ErrNoHandler
	}

	token, err := h.RetrieveToken(ctx)
	if !errors.Is(err, ErrNotImplemented) {
		return token, err
	}

	if m.store == nil {
		return "", ErrStorageUnavailable
	}

	token, err = m.store.Get(ctx, h.Name())
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNoToken
	}

	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	if err := h.SetAccessToken(token); err != nil && !errors.Is(err, ErrNotImplemented) {
		return "", fmt.Errorf("failed to set %s access token: %w", h.Name(), err)
	}

	return token, nil
}

func (m *Manager) DeleteAuthToken(ctx context.Context, h Handler) error {
	if h == nil {
		return ErrNoHandler
	}

	if m.store == nil {
		return ErrStorageUnavailable
	}

	return m.store.Delete(ctx, h.Name())
}

func (m *Manager) UploadFile(ctx context.Context, h Handler, blob Blob, name string) (*FileMetadata, error) {
	if h == nil {
		return nil, unsupported("upload", ErrNoHandler)
	}

	meta, err := h.UploadFile(ctx, m.TokenSource(ctx, h), blob, name)
	if errors.Is(err, ErrNotImplemented) {
		return nil, unsupported("upload", err)
	}

	return meta, err
}

func (m *Manager) ShareFile(ctx context.Context, h Handler, meta *FileMetadata) (*FileMetadata, error) {
	if h == nil {
		return nil, unsupported("share", ErrNoHandler)
	}

	shared, err := h.ShareFile(ctx, m.TokenSource(ctx, h), meta)
	if errors.Is(err, ErrNotImplemented) {
		return nil, unsupported("share", err)
	}

	return shared, err
}

// OverrideURL rewrites the shareable URL of meta. Rewriting is best-effort:
// nil means the handler is missing, cannot rewrite, or failed.
func (m *Manager) OverrideURL(h Handler, meta *FileMetadata) *FileMetadata {
	if h == nil || meta == nil {
		return nil
	}

	out, err := h.OverrideURL(meta)
	if err != nil {
		if !errors.Is(err, ErrNotImplemented) {
			logger.Log.Warn("url override failed",
				zap.String("handler", h.Name()),
				zap.Error(err))
		}
		return nil
	}

	return out
}

// TokenSource returns a source that reads h's token on first use. The
// token is looked up at most once per source.
func (m *Manager) TokenSource(ctx context.Context, h Handler) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &storedTokenSource{ctx: ctx, m: m, h: h})
}

type storedTokenSource struct {
	ctx context.Context
	m   *Manager
	h   Handler
}

func (s *storedTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.m.RetrieveAuthToken(s.ctx, s.h)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

func unsupported(op string, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnsupportedOperation, cause)
}
