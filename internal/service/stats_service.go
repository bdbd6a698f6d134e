package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wenwu/saas-platform/panel-service/internal/models"
	"github.com/wenwu/saas-platform/panel-service/internal/repository"
)

// SystemStatsStore aggregates the admin overview.
type SystemStatsStore interface {
	System(ctx context.Context) (*models.SystemStats, error)
}

// StatsService serves the admin overview and the per-user dashboard.
type StatsService struct {
	stats   SystemStatsStore
	users   UserStore
	servers ServerStore
	tickets TicketStore
}

func NewStatsService(stats SystemStatsStore, users UserStore, servers ServerStore, tickets TicketStore) *StatsService {
	return &StatsService{stats: stats, users: users, servers: servers, tickets: tickets}
}

// System returns the admin overview
func (s *StatsService) System(ctx context.Context) (*models.SystemStats, error) {
	return s.stats.System(ctx)
}

// Dashboard returns the requesting user's overview
func (s *StatsService) Dashboard(ctx context.Context, userID string) (*models.UserDashboard, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	servers, err := s.servers.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}

	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	dashboard := &models.UserDashboard{
		TotalServers: len(servers),
		Credits:      user.Credits,
	}
	for _, srv := range servers {
		if srv.Status == models.ServerStatusRunning {
			dashboard.RunningServers++
		}
	}
	for _, t := range tickets {
		if t.Status == models.TicketStatusOpen || t.Status == models.TicketStatusInProgress {
			dashboard.OpenTickets++
		}
	}
	return dashboard, nil
}
