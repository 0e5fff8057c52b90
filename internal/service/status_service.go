package service

import (
	"context"
	"time"
)

type StatusRepository interface {
	DatabaseTime(ctx context.Context) (time.Time, error)
	CountUsers(ctx context.Context) (int64, error)
}

type StatusService struct {
	repo    StatusRepository
	version string
}

type Health struct {
	ServerTime   time.Time
	DatabaseTime time.Time
}

func NewStatusService(repo StatusRepository, version string) *StatusService {
	return &StatusService{repo: repo, version: version}
}

func (s *StatusService) Version() string {
	return s.version
}

func (s *StatusService) Health(ctx context.Context) (*Health, error) {
	dbTime, err := s.repo.DatabaseTime(ctx)
	if err != nil {
		return nil, err
	}
	return &Health{ServerTime: time.Now().UTC(), DatabaseTime: dbTime}, nil
}

func (s *StatusService) CountUsers(ctx context.Context) (int64, error) {
	return s.repo.CountUsers(ctx)
}
