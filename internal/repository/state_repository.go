package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/pointage/internal/model"
)

// StateRepository keeps the per-owner key/value blobs the browser client
// used to hold in local storage: one JSON entry list per period and the
// daily rate.
type StateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

func (r *StateRepository) LoadEntries(ctx context.Context, owner string, period model.Period) ([]model.TimeEntry, bool, error) {
	raw, ok, err := r.get(ctx, owner, period.StorageKey())
	if err != nil || !ok {
		return nil, ok, err
	}
	var entries []model.TimeEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", period.StorageKey(), err)
	}
	return entries, true, nil
}

func (r *StateRepository) SaveEntries(ctx context.Context, owner string, period model.Period, entries []model.TimeEntry) error {
	if entries == nil {
		entries = []model.TimeEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode %s: %w", period.StorageKey(), err)
	}
	return r.put(ctx, owner, period.StorageKey(), string(data))
}

func (r *StateRepository) LoadDailyRate(ctx context.Context, owner string) (string, bool, error) {
	return r.get(ctx, owner, model.DailyRateKey)
}

func (r *StateRepository) SaveDailyRate(ctx context.Context, owner, rate string) error {
	return r.put(ctx, owner, model.DailyRateKey, rate)
}

func (r *StateRepository) get(ctx context.Context, owner, key string) (string, bool, error) {
	var rows []struct {
		Value string
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT value
		FROM local_state
		WHERE owner = ? AND state_key = ?
		LIMIT 1
	`, owner, key).Scan(&rows).Error
	if err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Value, true, nil
}

func (r *StateRepository) put(ctx context.Context, owner, key, value string) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO local_state (owner, state_key, value, updated_at)
		VALUES (?, ?, ?, NOW())
		ON CONFLICT (owner, state_key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, owner, key, value).Error
}
