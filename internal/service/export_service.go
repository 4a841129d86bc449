package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docanalyst/internal/config"
	"docanalyst/internal/domain"
	"docanalyst/internal/export"
	"docanalyst/internal/port"
)

// RenderedExport is a history result rendered in one format.
type RenderedExport struct {
	FileName    string
	ContentType string
	Data        []byte
}

// StoredExport describes an export written to the sink.
type StoredExport struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url,omitempty"`
	FileName string `json:"file_name"`
	Format   string `json:"format"`
}

// ExportService renders history results and stores them in object storage.
type ExportService interface {
	Render(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*RenderedExport, error)
	Store(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*StoredExport, error)
	Unstore(ctx context.Context, id uuid.UUID, format domain.ExportFormat) error
}

type exportService struct {
	repo    port.HistoryRepository
	storage port.ObjectStorage
	cfg     *config.Config
	log     *zap.Logger
}

// NewExportService creates a new ExportService implementation.
func NewExportService(repo port.HistoryRepository, storage port.ObjectStorage, cfg *config.Config, log *zap.Logger) ExportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &exportService{repo: repo, storage: storage, cfg: cfg, log: log}
}

// RenderResult renders r in format.
func RenderResult(r *domain.AnalysisResult, format domain.ExportFormat) (*RenderedExport, error) {
	var buf bytes.Buffer
	if err := export.Export(&buf, r, format); err != nil {
		return nil, &domain.StageError{File: r.FileName, Stage: domain.StageExport, Err: err}
	}
	return &RenderedExport{
		FileName:    export.FileName(r, format),
		ContentType: export.ContentType(format),
		Data:        buf.Bytes(),
	}, nil
}

func (s *exportService) Render(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*RenderedExport, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return RenderResult(entry.Result, format)
}

func (s *exportService) Store(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*StoredExport, error) {
	rendered, err := s.Render(ctx, id, format)
	if err != nil {
		return nil, err
	}

	key := storedKey(id, rendered.FileName)
	bucket := s.bucket()

	out, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        bytes.NewReader(rendered.Data),
		ContentType: rendered.ContentType,
		Size:        int64(len(rendered.Data)),
	})
	if err != nil {
		s.log.Error("exportService.Store: upload failed",
			zap.String("id", id.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, &domain.StageError{File: rendered.FileName, Stage: domain.StageExport, Err: err}
	}

	stored := &StoredExport{
		Key:      key,
		Location: out.Location,
		FileName: rendered.FileName,
		Format:   string(format),
	}
	if s.cfg.Export.Sink == "s3" {
		url, err := s.storage.GetPresignedURL(ctx, bucket, key, s.cfg.S3.PresignExpiry)
		if err != nil {
			s.log.Warn("exportService.Store: presign failed",
				zap.String("key", key),
				zap.Error(err),
			)
		} else {
			stored.URL = url
		}
	}

	s.log.Info("exportService.Store: export stored",
		zap.String("id", id.String()),
		zap.String("format", string(format)),
		zap.String("location", out.Location),
	)
	return stored, nil
}

// Unstore removes a previously stored export. Removing an export that was
// never stored is not an error.
func (s *exportService) Unstore(ctx context.Context, id uuid.UUID, format domain.ExportFormat) error {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	name := export.FileName(entry.Result, format)
	key := storedKey(id, name)
	if err := s.storage.Delete(ctx, s.bucket(), key); err != nil {
		s.log.Error("exportService.Unstore: delete failed",
			zap.String("id", id.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		return &domain.StageError{File: name, Stage: domain.StageExport, Err: err}
	}
	s.log.Info("exportService.Unstore: export removed", zap.String("key", key))
	return nil
}

func storedKey(id uuid.UUID, fileName string) string {
	return fmt.Sprintf("exports/%s/%s", id, fileName)
}

// bucket is empty for the local sink, which ignores it.
func (s *exportService) bucket() string {
	if s.cfg.Export.Sink == "s3" {
		return s.cfg.S3.Bucket
	}
	return ""
}
