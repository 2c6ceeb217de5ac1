// Package gdrive implements auth.Handler for Google Drive. Files are shared
// with an "anyone with the link" reader permission. Drive links cannot be
// rewritten to a CORS-friendly host, so OverrideURL is not implemented.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"mapshare/internal/auth"
	"mapshare/internal/logger"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	Name            = "gdrive"
	DefaultAuthPath = "auth"
)

var ErrMissingClientID = errors.New("gdrive client id is not configured")

type Config struct {
	ClientID       string
	RedirectOrigin string
	// FolderID is the parent folder for uploads; empty means My Drive root.
	FolderID string
}

type serviceFactory func(ctx context.Context, ts oauth2.TokenSource) (*drive.Service, error)

type Handler struct {
	auth.Unsupported

	clientID       string
	redirectOrigin string
	folderID       string
	newService     serviceFactory
}

var _ auth.Handler = (*Handler)(nil)

func New(cfg Config) *Handler {
	return &Handler{
		clientID:       cfg.ClientID,
		redirectOrigin: strings.TrimSuffix(cfg.RedirectOrigin, "/"),
		folderID:       cfg.FolderID,
		newService:     newDriveService,
	}
}

func newDriveService(ctx context.Context, ts oauth2.TokenSource) (*drive.Service, error) {
	return drive.NewService(ctx, option.WithTokenSource(ts))
}

func (h *Handler) Name() string {
	return Name
}

func (h *Handler) AuthLink(path string) (string, error) {
	if h.clientID == "" {
		return "", ErrMissingClientID
	}

	if path == "" {
		path = DefaultAuthPath
	}

	cfg := oauth2.Config{
		ClientID:    h.clientID,
		Endpoint:    google.Endpoint,
		RedirectURL: h.redirectOrigin + "/" + strings.TrimPrefix(path, "/"),
		Scopes:      []string{drive.DriveFileScope},
	}

	return cfg.AuthCodeURL(auth.EncodeState(Name),
		oauth2.SetAuthURLParam("response_type", "token")), nil
}

func (h *Handler) AccessTokenFromURL(rawURL string) (string, error) {
	return auth.ParseFragmentToken(rawURL)
}

func (h *Handler) UploadFile(ctx context.Context, ts oauth2.TokenSource, blob auth.Blob, name string) (*auth.FileMetadata, error) {
	if blob.Content == nil {
		return nil, fmt.Errorf("gdrive upload: empty blob")
	}

	fileName := blob.Name
	if fileName == "" {
		fileName = name
	}

	if fileName == "" {
		return nil, fmt.Errorf("gdrive upload: %w", auth.ErrNoFileName)
	}

	svc, err := h.service(ctx, ts)
	if err != nil {
		return nil, err
	}

	driveFile := &drive.File{Name: fileName}
	if h.folderID != "" {
		driveFile.Parents = []string{h.folderID}
	}

	created, err := svc.Files.Create(driveFile).
		Media(blob.Content).
		Fields("id", "name", "size").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	logger.Log.Info("gdrive file uploaded",
		zap.String("id", created.Id),
		zap.String("name", created.Name))

	return &auth.FileMetadata{
		Handler:     Name,
		Name:        created.Name,
		PathDisplay: "/" + created.Name,
		ID:          created.Id,
		Size:        uint64(created.Size),
	}, nil
}

func (h *Handler) ShareFile(ctx context.Context, ts oauth2.TokenSource, meta *auth.FileMetadata) (*auth.FileMetadata, error) {
	if meta == nil || meta.ID == "" {
		return nil, fmt.Errorf("gdrive share: metadata has no file id")
	}

	svc, err := h.service(ctx, ts)
	if err != nil {
		return nil, err
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := svc.Permissions.Create(meta.ID, perm).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("failed to share gdrive file: %w", err)
	}

	f, err := svc.Files.Get(meta.ID).
		Fields("id", "webViewLink", "webContentLink").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read gdrive link: %w", err)
	}

	shared := *meta
	shared.Handler = Name
	shared.URL = f.WebContentLink
	if shared.URL == "" {
		shared.URL = f.WebViewLink
	}

	logger.Log.Info("gdrive file shared",
		zap.String("id", meta.ID))

	return &shared, nil
}

func (h *Handler) service(ctx context.Context, ts oauth2.TokenSource) (*drive.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ts == nil {
		return nil, auth.ErrNoToken
	}

	// A missing token must come back as auth.ErrNoToken, not as a
	// transport error from the drive client.
	if _, err := ts.Token(); err != nil {
		return nil, err
	}

	svc, err := h.newService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to create gdrive service: %w", err)
	}

	return svc, nil
}
