package service

import (
	"context"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
)

type StatsService interface {
	Get(ctx context.Context, userID string) (*dto.StatsResponse, error)
}

type statsService struct {
	store storage.Storage
	loc   *time.Location
	now   Clock
}

func NewStatsService(store storage.Storage, loc *time.Location, now Clock) StatsService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &statsService{store: store, loc: loc, now: now}
}

func (s *statsService) Get(ctx context.Context, userID string) (*dto.StatsResponse, error) {
	stats, err := s.store.GetUserStats(ctx, userID, storage.RollingWeek(s.now(), s.loc))
	if err != nil {
		return nil, storageErr("stats", err)
	}
	return &dto.StatsResponse{
		HoursToday:     stats.HoursToday.InexactFloat64(),
		HoursWeek:      stats.HoursWeek.InexactFloat64(),
		ActiveProjects: stats.ActiveProjects,
		TeamMembers:    stats.TeamMembers,
	}, nil
}
