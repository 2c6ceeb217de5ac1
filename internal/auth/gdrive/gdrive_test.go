package gdrive

import (
	"context"
	"encoding/json"
	"io"
	"mapshare/internal/auth"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

type fakeDrive struct {
	mu          sync.Mutex
	permissions []map[string]any
	uploads     int
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/permissions"):
		var p map[string]any
		_ = json.NewDecoder(r.Body).Decode(&p)
		f.permissions = append(f.permissions, p)
		_, _ = io.WriteString(w, `{"id":"anyoneWithLink","type":"anyone","role":"reader"}`)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/files"):
		_, _ = io.Copy(io.Discard, r.Body)
		f.uploads++
		_, _ = io.WriteString(w, `{"id":"file-1","name":"x.json","size":"15"}`)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files/file-1"):
		_, _ = io.WriteString(w, `{"id":"file-1","webViewLink":"https://drive.google.com/file/d/file-1/view","webContentLink":"https://drive.google.com/uc?id=file-1&export=download"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"not found"}}`)
	}
}

func newTestHandler(t *testing.T) (*Handler, *fakeDrive) {
	t.Helper()

	fake := &fakeDrive{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	h := New(Config{ClientID: "client.apps.googleusercontent.com", RedirectOrigin: "http://localhost:8080"})
	h.newService = func(ctx context.Context, _ oauth2.TokenSource) (*drive.Service, error) {
		return drive.NewService(ctx,
			option.WithHTTPClient(srv.Client()),
			option.WithEndpoint(srv.URL+"/"))
	}

	return h, fake
}

func staticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}

type failingSource struct{ err error }

func (s failingSource) Token() (*oauth2.Token, error) { return nil, s.err }

func TestAuthLink(t *testing.T) {
	h := New(Config{ClientID: "client.apps.googleusercontent.com", RedirectOrigin: "http://localhost:8080/"})

	link, err := h.AuthLink("/auth")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "token", q.Get("response_type"))
	assert.Equal(t, "http://localhost:8080/auth", q.Get("redirect_uri"))
	assert.Equal(t, drive.DriveFileScope, q.Get("scope"))
	assert.Equal(t, Name, auth.HandlerNameFromCallback("http://x/#state="+url.QueryEscape(q.Get("state"))))
}

func TestAuthLink_MissingClientID(t *testing.T) {
	_, err := New(Config{}).AuthLink("auth")
	assert.ErrorIs(t, err, ErrMissingClientID)
}

func TestAccessTokenFromURL(t *testing.T) {
	token, err := New(Config{}).AccessTokenFromURL("http://localhost:8080/auth#access_token=ya29.abc&token_type=Bearer&expires_in=3599")
	require.NoError(t, err)
	assert.Equal(t, "ya29.abc", token)
}

func TestUploadFile(t *testing.T) {
	h, fake := newTestHandler(t)

	meta, err := h.UploadFile(context.Background(), staticToken("ya29.abc"),
		auth.Blob{Content: strings.NewReader(`{"datasets":[]}`)}, "x.json")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.uploads)
	assert.Equal(t, Name, meta.Handler)
	assert.Equal(t, "file-1", meta.ID)
	assert.Equal(t, "/x.json", meta.Path())
	assert.EqualValues(t, 15, meta.Size)
}

func TestUploadFile_NoFileName(t *testing.T) {
	h, fake := newTestHandler(t)

	_, err := h.UploadFile(context.Background(), staticToken("ya29.abc"), auth.Blob{Content: strings.NewReader("{}")}, "")
	assert.ErrorIs(t, err, auth.ErrNoFileName)
	assert.Zero(t, fake.uploads)
}

func TestShareFile(t *testing.T) {
	h, fake := newTestHandler(t)

	shared, err := h.ShareFile(context.Background(), staticToken("ya29.abc"), &auth.FileMetadata{ID: "file-1", Name: "x.json"})
	require.NoError(t, err)

	assert.Equal(t, "https://drive.google.com/uc?id=file-1&export=download", shared.URL)
	assert.Equal(t, "x.json", shared.Name)

	require.Len(t, fake.permissions, 1)
	assert.Equal(t, "anyone", fake.permissions[0]["type"])
	assert.Equal(t, "reader", fake.permissions[0]["role"])
}

func TestShareFile_NoID(t *testing.T) {
	h, fake := newTestHandler(t)

	_, err := h.ShareFile(context.Background(), staticToken("ya29.abc"), &auth.FileMetadata{PathDisplay: "/x.json"})
	assert.Error(t, err)
	assert.Empty(t, fake.permissions)
}

func TestUploadFile_TokenError(t *testing.T) {
	h, fake := newTestHandler(t)

	_, err := h.UploadFile(context.Background(), failingSource{err: auth.ErrNoToken},
		auth.Blob{Content: strings.NewReader("{}")}, "x.json")
	assert.ErrorIs(t, err, auth.ErrNoToken)
	assert.Zero(t, fake.uploads)
}

func TestOverrideURL_NotImplemented(t *testing.T) {
	_, err := New(Config{}).OverrideURL(&auth.FileMetadata{URL: "https://drive.google.com/x"})
	assert.ErrorIs(t, err, auth.ErrNotImplemented)
}
