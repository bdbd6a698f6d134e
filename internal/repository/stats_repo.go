package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
)

type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// System aggregates the admin overview in one round trip
func (r *StatsRepository) System(ctx context.Context) (*models.SystemStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM panel.users),
			(SELECT COUNT(*) FROM panel.nodes),
			(SELECT COUNT(*) FROM panel.servers),
			(SELECT COUNT(*) FROM panel.servers WHERE status = 'running'),
			(SELECT COUNT(*) FROM panel.tickets WHERE status IN ('open', 'in_progress')),
			(SELECT COALESCE(SUM(credits), 0) FROM panel.users),
			(SELECT COALESCE(SUM(total_ram), 0) FROM panel.nodes),
			(SELECT COALESCE(SUM(used_ram), 0) FROM panel.nodes),
			(SELECT COALESCE(SUM(total_disk), 0) FROM panel.nodes),
			(SELECT COALESCE(SUM(used_disk), 0) FROM panel.nodes),
			(SELECT COALESCE(SUM(total_cpu), 0) FROM panel.nodes),
			(SELECT COALESCE(SUM(used_cpu), 0) FROM panel.nodes)
	`

	stats := &models.SystemStats{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalUsers, &stats.TotalNodes, &stats.TotalServers,
		&stats.RunningServers, &stats.OpenTickets, &stats.CreditsInCirculation,
		&stats.TotalRam, &stats.UsedRam,
		&stats.TotalDisk, &stats.UsedDisk,
		&stats.TotalCpu, &stats.UsedCpu,
	)
	if err != nil {
		return nil, fmt.Errorf("query system stats: %w", err)
	}
	return stats, nil
}
