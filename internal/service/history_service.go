package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docanalyst/internal/combiner"
	"docanalyst/internal/domain"
	"docanalyst/internal/export"
	"docanalyst/internal/port"
)

// DefaultHistoryLimit is applied to listings that do not set a limit.
const DefaultHistoryLimit = 20

// HistoryService defines the analysis history contract.
type HistoryService interface {
	List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Combine(ctx context.Context, ids []uuid.UUID, strategy domain.CombineStrategy) (*domain.AnalysisResult, error)
	WriteCSV(ctx context.Context, w io.Writer, filter domain.HistoryFilter) error
	Ping(ctx context.Context) error
}

type historyService struct {
	repo     port.HistoryRepository
	combiner *combiner.Combiner
	log      *zap.Logger
}

// NewHistoryService creates a new HistoryService implementation.
func NewHistoryService(repo port.HistoryRepository, comb *combiner.Combiner, log *zap.Logger) HistoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &historyService{repo: repo, combiner: comb, log: log}
}

func (s *historyService) List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultHistoryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *historyService) Get(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *historyService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("historyService.Delete: entry deleted", zap.String("id", id.String()))
	return nil
}

// Combine merges stored results in the order given and saves the combined
// result as a new entry.
func (s *historyService) Combine(ctx context.Context, ids []uuid.UUID, strategy domain.CombineStrategy) (*domain.AnalysisResult, error) {
	if len(ids) == 0 {
		return nil, domain.ErrEmptyCombineInput
	}
	results := make([]*domain.AnalysisResult, 0, len(ids))
	for _, id := range ids {
		entry, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading history entry %s: %w", id, err)
		}
		results = append(results, entry.Result)
	}

	combined, err := s.combiner.Combine(results, strategy)
	if err != nil {
		return nil, &domain.StageError{File: fmt.Sprintf("%d history entries", len(ids)), Stage: domain.StageCombine, Err: err}
	}
	if len(results) == 1 {
		return combined, nil
	}

	if err := s.repo.Save(ctx, domain.NewHistoryEntry(combined)); err != nil {
		return nil, fmt.Errorf("saving combined result: %w", err)
	}
	s.log.Info("historyService.Combine: combined results saved",
		zap.String("id", combined.ID.String()),
		zap.String("strategy", string(strategy)),
		zap.Int("count", len(results)),
	)
	return combined, nil
}

// WriteCSV writes every entry matching filter, ignoring its paging fields.
func (s *historyService) WriteCSV(ctx context.Context, w io.Writer, filter domain.HistoryFilter) error {
	filter.Offset, filter.Limit = 0, 0
	entries, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return err
	}
	return export.WriteHistoryCSV(w, entries)
}

func (s *historyService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
