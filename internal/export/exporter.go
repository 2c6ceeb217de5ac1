package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mapshare/internal/auth"
	"mapshare/internal/logger"
	"mapshare/internal/model"
	"mapshare/internal/repository"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnchanged is returned by ExportFile when the file content matches the
// last export recorded in the gate.
var ErrUnchanged = errors.New("content unchanged since last export")

type Exporter struct {
	manager *auth.Manager
	repo    *repository.ExportRepository
	now     func() time.Time
}

type Result struct {
	UUID     string             `json:"uuid"`
	Metadata *auth.FileMetadata `json:"metadata"`
	// Overridden is false when the handler could not rewrite the shared
	// URL and Metadata.URL is the provider's own link.
	Overridden bool `json:"overridden"`
}

// New returns an Exporter. repo may be nil to skip recording history.
func New(manager *auth.Manager, repo *repository.ExportRepository) *Exporter {
	return &Exporter{
		manager: manager,
		repo:    repo,
		now:     time.Now,
	}
}

func DefaultName(t time.Time) string {
	return "keplergl_" + t.UTC().Format("2006-01-02T15:04:05.000Z") + ".json"
}

// Export uploads blob with h, shares it, and rewrites the shared URL when
// the handler supports it.
func (e *Exporter) Export(ctx context.Context, h auth.Handler, blob auth.Blob, name string) (*Result, error) {
	if h == nil {
		return nil, auth.ErrNoHandler
	}

	if name == "" && blob.Name == "" {
		name = DefaultName(e.now())
	}

	rec := &model.Export{
		UUID:    uuid.NewString(),
		Handler: h.Name(),
		Name:    name,
	}
	if blob.Name != "" {
		rec.Name = blob.Name
	}

	res, err := e.export(ctx, h, blob, name)
	if err != nil {
		rec.Status = model.ExportFailed
		rec.ErrMsg = err.Error()
	} else {
		rec.Status = model.ExportSuccess
		rec.Path = res.Metadata.Path()
		rec.URL = res.Metadata.URL
		res.UUID = rec.UUID
	}

	e.record(rec)

	if err != nil {
		logger.Log.Error("export failed",
			zap.String("handler", h.Name()),
			zap.String("name", rec.Name),
			zap.Error(err))
		return nil, err
	}

	logger.Log.Info("export complete",
		zap.String("handler", h.Name()),
		zap.String("path", rec.Path),
		zap.String("url", rec.URL))

	return res, nil
}

// ExportFile reads path once and exports exactly those bytes. With a gate,
// content already exported returns ErrUnchanged, and a successful export
// marks the checksum of the uploaded bytes.
func (e *Exporter) ExportFile(ctx context.Context, h auth.Handler, path, name string, gate *ChecksumGate) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}

	sum := Checksum(data)
	if gate != nil && !gate.Changed(sum) {
		return nil, ErrUnchanged
	}

	res, err := e.Export(ctx, h, auth.Blob{Content: bytes.NewReader(data)}, name)
	if err != nil {
		return nil, err
	}

	if gate != nil {
		gate.Mark(sum)
	}

	return res, nil
}

func (e *Exporter) export(ctx context.Context, h auth.Handler, blob auth.Blob, name string) (*Result, error) {
	uploaded, err := e.manager.UploadFile(ctx, h, blob, name)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	shared, err := e.manager.ShareFile(ctx, h, uploaded)
	if err != nil {
		return nil, fmt.Errorf("share: %w", err)
	}

	if overridden := e.manager.OverrideURL(h, shared); overridden != nil {
		return &Result{Metadata: overridden, Overridden: true}, nil
	}

	return &Result{Metadata: shared}, nil
}

func (e *Exporter) record(rec *model.Export) {
	if e.repo == nil {
		return
	}

	rec.ExportedAt = e.now()
	if err := e.repo.Save(rec); err != nil {
		logger.Log.Warn("failed to record export",
			zap.String("uuid", rec.UUID),
			zap.Error(err))
	}
}
