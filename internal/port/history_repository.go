package port

import (
	"context"

	"github.com/google/uuid"

	"docanalyst/internal/domain"
)

// HistoryRepository persists analysis history entries.
type HistoryRepository interface {
	Save(ctx context.Context, entry *domain.HistoryEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error)
	List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}
