package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"docanalyst/internal/domain"
	"docanalyst/internal/port"
)

type historyRepo struct {
	db *bbolt.DB
}

// NewHistoryRepo creates a bbolt-backed HistoryRepository. Entries are keyed by
// their UUIDv7 bytes, so key order is creation order.
func NewHistoryRepo(db *bbolt.DB) port.HistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Save(ctx context.Context, entry *domain.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("historyRepo.Save: generating id: %w", err)
		}
		entry.ID = id
	}
	entry.SchemaVersion = domain.HistorySchemaVersion

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("historyRepo.Save: encoding entry: %w", err)
	}
	err = r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(historyBucket).Put(entry.ID[:], data)
	})
	if err != nil {
		return fmt.Errorf("historyRepo.Save: %w", err)
	}
	return nil
}

func (r *historyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entry *domain.HistoryEntry
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(historyBucket).Get(id[:])
		if data == nil {
			return domain.ErrNotFound
		}
		e, err := decodeEntry(data)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("historyRepo.GetByID: %w", err)
	}
	return entry, nil
}

// List returns matching entries newest first, with the total match count.
// Records written with an unknown schema version are skipped.
func (r *historyRepo) List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	entries := []*domain.HistoryEntry{}
	total := 0
	err := r.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			e, err := decodeEntry(v)
			if err != nil {
				continue
			}
			if !matches(e, filter) {
				continue
			}
			total++
			if total <= filter.Offset {
				continue
			}
			if filter.Limit > 0 && len(entries) >= filter.Limit {
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("historyRepo.List: %w", err)
	}
	return entries, total, nil
}

func (r *historyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(historyBucket)
		if b.Get(id[:]) == nil {
			return domain.ErrNotFound
		}
		return b.Delete(id[:])
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("historyRepo.Delete: %w", err)
	}
	return nil
}

func (r *historyRepo) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(historyBucket) == nil {
			return fmt.Errorf("historyRepo.Ping: bucket %q missing", historyBucket)
		}
		return nil
	})
}

func decodeEntry(data []byte) (*domain.HistoryEntry, error) {
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	if probe.SchemaVersion != domain.HistorySchemaVersion {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedSchema, probe.SchemaVersion)
	}
	var e domain.HistoryEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	return &e, nil
}

func matches(e *domain.HistoryEntry, f domain.HistoryFilter) bool {
	if f.FileType != "" && !strings.EqualFold(e.FileType, f.FileType) {
		return false
	}
	if f.AnalysisType != "" && !strings.EqualFold(e.AnalysisType, f.AnalysisType) {
		return false
	}
	if f.Provider != "" && !strings.EqualFold(e.Provider, f.Provider) {
		return false
	}
	return true
}
