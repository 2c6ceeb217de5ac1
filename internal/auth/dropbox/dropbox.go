package dropbox

import (
	"context"
	"errors"
	"fmt"
	"mapshare/internal/auth"
	"mapshare/internal/logger"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/sharing"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	Name = "dropbox"

	DefaultAuthPath = "auth"
	DefaultFolder   = "/keplergl"

	domain         = "www.dropbox.com"
	corsFreeDomain = "dl.dropboxusercontent.com"
)

var ErrMissingClientID = errors.New("dropbox client id is not configured")

var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.dropbox.com/oauth2/authorize",
	TokenURL: "https://api.dropboxapi.com/oauth2/token",
}

type Config struct {
	ClientID       string
	RedirectOrigin string
	Folder         string
}

type clientFactory func(token string) (files.Client, sharing.Client)

type Handler struct {
	auth.Unsupported

	clientID       string
	redirectOrigin string
	folder         string
	newClients     clientFactory
}

var _ auth.Handler = (*Handler)(nil)

func New(cfg Config) *Handler {
	folder := cfg.Folder
	if folder == "" {
		folder = DefaultFolder
	}

	return &Handler{
		clientID:       cfg.ClientID,
		redirectOrigin: strings.TrimSuffix(cfg.RedirectOrigin, "/"),
		folder:         normalizePath(folder),
		newClients:     newSDKClients,
	}
}

func newSDKClients(token string) (files.Client, sharing.Client) {
	cfg := dropbox.Config{Token: token}
	return files.New(cfg), sharing.New(cfg)
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
		Endpoint:    Endpoint,
		RedirectURL: h.redirectOrigin + "/" + strings.TrimPrefix(path, "/"),
	}

	return cfg.AuthCodeURL(auth.EncodeState(Name),
		oauth2.SetAuthURLParam("response_type", "token")), nil
}

func (h *Handler) AccessTokenFromURL(rawURL string) (string, error) {
	return auth.ParseFragmentToken(rawURL)
}

// SetAccessToken is not supported: the token is handed to UploadFile and
// ShareFile on every call instead of being kept on a shared client.
func (h *Handler) SetAccessToken(string) error {
	return auth.ErrNotImplemented
}

func (h *Handler) UploadFile(ctx context.Context, ts oauth2.TokenSource, blob auth.Blob, name string) (*auth.FileMetadata, error) {
	if blob.Content == nil {
		return nil, fmt.Errorf("dropbox upload: empty blob")
	}

	if blob.Name == "" && name == "" {
		return nil, fmt.Errorf("dropbox upload: %w", auth.ErrNoFileName)
	}

	fc, _, err := h.clients(ctx, ts)
	if err != nil {
		return nil, err
	}

	target := h.UploadPath(blob, name)

	arg := files.NewUploadArg(target)
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: "overwrite"}}
	arg.Autorename = false

	res, err := fc.Upload(arg, blob.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to dropbox: %w", err)
	}

	logger.Log.Info("dropbox file uploaded",
		zap.String("path", res.PathDisplay),
		zap.Uint64("size", res.Size))

	return &auth.FileMetadata{
		Handler:     Name,
		Name:        res.Name,
		PathDisplay: res.PathDisplay,
		PathLower:   res.PathLower,
		ID:          res.Id,
		Rev:         res.Rev,
		Size:        res.Size,
	}, nil
}

// UploadPath is where UploadFile puts blob: the upload folder joined with
// the blob's own name, or name when the blob has none.
func (h *Handler) UploadPath(blob auth.Blob, name string) string {
	fileName := blob.Name
	if fileName == "" {
		fileName = name
	}

	return h.folder + "/" + strings.TrimPrefix(fileName, "/")
}

func (h *Handler) ShareFile(ctx context.Context, ts oauth2.TokenSource, meta *auth.FileMetadata) (*auth.FileMetadata, error) {
	if meta == nil || meta.Path() == "" {
		return nil, fmt.Errorf("dropbox share: metadata has no path")
	}

	_, sc, err := h.clients(ctx, ts)
	if err != nil {
		return nil, err
	}

	arg := sharing.NewCreateSharedLinkWithSettingsArg(meta.Path())
	res, err := sc.CreateSharedLinkWithSettings(arg)
	if isLinkExists(err) {
		res, err = existingLink(sc, meta.Path())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to share dropbox file: %w", err)
	}

	shared := *meta
	shared.Handler = Name
	shared.URL = linkURL(res)

	logger.Log.Info("dropbox file shared",
		zap.String("path", meta.Path()))

	return &shared, nil
}

// OverrideURL points a shared link at the CORS-friendly content host:
//
//	https://www.dropbox.com/s/abc/file.json?dl=0
//	-> https://dl.dropboxusercontent.com/s/abc/file.json
func (h *Handler) OverrideURL(meta *auth.FileMetadata) (*auth.FileMetadata, error) {
	if meta == nil {
		return nil, fmt.Errorf("dropbox override: nil metadata")
	}

	u, _, _ := strings.Cut(meta.URL, "?")

	out := *meta
	out.URL = strings.Replace(u, domain, corsFreeDomain, 1)
	return &out, nil
}

// existingLink returns the link already shared for path. Re-exporting to the
// same path hits this on every run after the first.
func existingLink(sc sharing.Client, path string) (sharing.IsSharedLinkMetadata, error) {
	arg := sharing.NewListSharedLinksArg()
	arg.Path = path
	arg.DirectOnly = true

	res, err := sc.ListSharedLinks(arg)
	if err != nil {
		return nil, err
	}

	if len(res.Links) == 0 {
		return nil, fmt.Errorf("no shared link found for %s", path)
	}

	return res.Links[0], nil
}

func (h *Handler) clients(ctx context.Context, ts oauth2.TokenSource) (files.Client, sharing.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if ts == nil {
		return nil, nil, auth.ErrNoToken
	}

	tok, err := ts.Token()
	if err != nil {
		return nil, nil, err
	}

	fc, sc := h.newClients(tok.AccessToken)
	return fc, sc, nil
}
