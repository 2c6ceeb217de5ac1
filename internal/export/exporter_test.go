package export

import (
	"context"
	"errors"
	"io"
	"os"
	"mapshare/internal/auth"
	"mapshare/internal/auth/authtest"
	"mapshare/internal/db"
	"mapshare/internal/model"
	"mapshare/internal/repository"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var fixedNow = time.Date(2024, 3, 5, 14, 7, 9, 123_000_000, time.UTC)

func newRepo(t *testing.T) *repository.ExportRepository {
	t.Helper()

	conn, err := db.Open(filepath.Join(t.TempDir(), "mapshare.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return repository.NewExportRepository(conn)
}

func newManager(t *testing.T) *auth.Manager {
	t.Helper()

	store := authtest.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "fake", "XYZ"))
	return auth.NewManager(store)
}

func uploadingHandler(uploadedName *string) *authtest.Handler {
	return &authtest.Handler{
		HandlerName: "fake",
		UploadFunc: func(_ context.Context, ts oauth2.TokenSource, blob auth.Blob, name string) (*auth.FileMetadata, error) {
			if _, err := ts.Token(); err != nil {
				return nil, err
			}

			if blob.Name != "" {
				name = blob.Name
			}
			if uploadedName != nil {
				*uploadedName = name
			}

			_, _ = io.Copy(io.Discard, blob.Content)
			return &auth.FileMetadata{Handler: "fake", Name: name, PathDisplay: "/keplergl/" + name}, nil
		},
		ShareFunc: func(_ context.Context, _ oauth2.TokenSource, meta *auth.FileMetadata) (*auth.FileMetadata, error) {
			out := *meta
			out.URL = "https://www.dropbox.com/s/abc" + meta.PathDisplay + "?dl=0"
			return &out, nil
		},
	}
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "keplergl_2024-03-05T14:07:09.123Z.json", DefaultName(fixedNow))

	loc := time.FixedZone("UTC+2", 2*60*60)
	assert.Equal(t, "keplergl_2024-03-05T14:07:09.123Z.json", DefaultName(fixedNow.In(loc)))
}

func TestExport_Overridden(t *testing.T) {
	repo := newRepo(t)
	h := uploadingHandler(nil)
	h.OverrideFunc = func(meta *auth.FileMetadata) (*auth.FileMetadata, error) {
		out := *meta
		out.URL = strings.Replace(strings.Split(meta.URL, "?")[0], "www.dropbox.com", "dl.dropboxusercontent.com", 1)
		return &out, nil
	}

	e := New(newManager(t), repo)
	e.now = func() time.Time { return fixedNow }

	res, err := e.Export(context.Background(), h, auth.Blob{Content: strings.NewReader("{}")}, "map.json")
	require.NoError(t, err)

	assert.True(t, res.Overridden)
	assert.NotEmpty(t, res.UUID)
	assert.Equal(t, "https://dl.dropboxusercontent.com/s/abc/keplergl/map.json", res.Metadata.URL)

	rec, err := repo.GetByUUID(res.UUID)
	require.NoError(t, err)
	assert.Equal(t, model.ExportSuccess, rec.Status)
	assert.Equal(t, "fake", rec.Handler)
	assert.Equal(t, "map.json", rec.Name)
	assert.Equal(t, "/keplergl/map.json", rec.Path)
	assert.Equal(t, res.Metadata.URL, rec.URL)
	assert.True(t, fixedNow.Equal(rec.ExportedAt))
}

func TestExport_OverrideUnsupportedKeepsSharedURL(t *testing.T) {
	e := New(newManager(t), nil)

	res, err := e.Export(context.Background(), uploadingHandler(nil), auth.Blob{Content: strings.NewReader("{}")}, "map.json")
	require.NoError(t, err)

	assert.False(t, res.Overridden)
	assert.Equal(t, "https://www.dropbox.com/s/abc/keplergl/map.json?dl=0", res.Metadata.URL)
}

func TestExport_DefaultName(t *testing.T) {
	var uploaded string
	e := New(newManager(t), nil)
	e.now = func() time.Time { return fixedNow }

	_, err := e.Export(context.Background(), uploadingHandler(&uploaded), auth.Blob{Content: strings.NewReader("{}")}, "")
	require.NoError(t, err)
	assert.Equal(t, "keplergl_2024-03-05T14:07:09.123Z.json", uploaded)
}

func TestExport_BlobNameWins(t *testing.T) {
	var uploaded string
	repo := newRepo(t)
	e := New(newManager(t), repo)

	res, err := e.Export(context.Background(), uploadingHandler(&uploaded), auth.Blob{Name: "report.json", Content: strings.NewReader("{}")}, "x.json")
	require.NoError(t, err)
	assert.Equal(t, "report.json", uploaded)

	rec, err := repo.GetByUUID(res.UUID)
	require.NoError(t, err)
	assert.Equal(t, "report.json", rec.Name)
}

func TestExport_UploadUnsupported(t *testing.T) {
	repo := newRepo(t)
	e := New(newManager(t), repo)

	_, err := e.Export(context.Background(), &authtest.Handler{HandlerName: "readonly"}, auth.Blob{Content: strings.NewReader("{}")}, "map.json")
	assert.ErrorIs(t, err, auth.ErrUnsupportedOperation)

	recent, err := repo.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, model.ExportFailed, recent[0].Status)
	assert.Contains(t, recent[0].ErrMsg, "upload")
	assert.Empty(t, recent[0].URL)
}

func TestExport_ShareFails(t *testing.T) {
	h := uploadingHandler(nil)
	h.ShareFunc = func(context.Context, oauth2.TokenSource, *auth.FileMetadata) (*auth.FileMetadata, error) {
		return nil, errors.New("email_not_verified")
	}

	_, err := New(newManager(t), nil).Export(context.Background(), h, auth.Blob{Content: strings.NewReader("{}")}, "map.json")
	assert.ErrorContains(t, err, "share: email_not_verified")
}

func TestExport_NotAuthenticated(t *testing.T) {
	e := New(auth.NewManager(authtest.NewMemoryStore()), nil)

	_, err := e.Export(context.Background(), uploadingHandler(nil), auth.Blob{Content: strings.NewReader("{}")}, "map.json")
	assert.ErrorIs(t, err, auth.ErrNoToken)
}

func TestExport_NilHandler(t *testing.T) {
	_, err := New(newManager(t), nil).Export(context.Background(), nil, auth.Blob{}, "map.json")
	assert.ErrorIs(t, err, auth.ErrNoHandler)
}

func TestExportFile_SaveDuringUploadIsReexported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":"A"}`), 0o644))

	var uploads []string
	h := uploadingHandler(nil)
	h.UploadFunc = func(_ context.Context, ts oauth2.TokenSource, blob auth.Blob, name string) (*auth.FileMetadata, error) {
		if _, err := ts.Token(); err != nil {
			return nil, err
		}

		b, err := io.ReadAll(blob.Content)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, string(b))

		// The user saves again while the first upload is in flight.
		if len(uploads) == 1 {
			require.NoError(t, os.WriteFile(path, []byte(`{"v":"B"}`), 0o644))
		}

		return &auth.FileMetadata{Name: name, PathDisplay: "/keplergl/" + name}, nil
	}

	var gate ChecksumGate
	e := New(newManager(t), nil)

	_, err := e.ExportFile(context.Background(), h, path, "map.json", &gate)
	require.NoError(t, err)

	_, err = e.ExportFile(context.Background(), h, path, "map.json", &gate)
	require.NoError(t, err)

	_, err = e.ExportFile(context.Background(), h, path, "map.json", &gate)
	assert.ErrorIs(t, err, ErrUnchanged)

	assert.Equal(t, []string{`{"v":"A"}`, `{"v":"B"}`}, uploads)
}

func TestExportFile_FailedExportIsNotMarked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	var gate ChecksumGate
	e := New(auth.NewManager(authtest.NewMemoryStore()), nil)

	_, err := e.ExportFile(context.Background(), uploadingHandler(nil), path, "map.json", &gate)
	assert.ErrorIs(t, err, auth.ErrNoToken)
	assert.True(t, gate.Changed(Checksum([]byte(`{}`))))
}

func TestExportFile_WithoutGate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	e := New(newManager(t), nil)
	for range 2 {
		res, err := e.ExportFile(context.Background(), uploadingHandler(nil), path, "map.json", nil)
		require.NoError(t, err)
		assert.Equal(t, "/keplergl/map.json", res.Metadata.Path())
	}
}

func TestExportFile_MissingFile(t *testing.T) {
	_, err := New(newManager(t), nil).ExportFile(context.Background(), uploadingHandler(nil),
		filepath.Join(t.TempDir(), "missing.json"), "map.json", nil)
	assert.ErrorContains(t, err, "failed to read map file")
}
