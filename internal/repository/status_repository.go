package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// DatabaseTime is a trivial round trip used by the health check.
func (r *StatusRepository) DatabaseTime(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := r.db.WithContext(ctx).Raw(`SELECT NOW() AS current_time`).Scan(&now).Error; err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (r *StatusRepository) CountUsers(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Raw(`SELECT COUNT(*) AS total FROM users`).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
