package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
)

type ServerRepository struct {
	pool *pgxpool.Pool
}

func NewServerRepository(pool *pgxpool.Pool) *ServerRepository {
	return &ServerRepository{pool: pool}
}

// Create creates a new server row
func (r *ServerRepository) Create(ctx context.Context, srv *models.Server) error {
	if srv.ID == "" {
		srv.ID = uuid.New().String()
	}

	query := `
		INSERT INTO panel.servers (
			id, user_id, node_id, package_id, name, description,
			server_type, image_tag, allocated_ram, allocated_disk, allocated_cpu,
			status, billing_cycle, last_billed_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.pool.Exec(ctx, query,
		srv.ID, srv.UserID, srv.NodeID, srv.PackageID, srv.Name, srv.Description,
		srv.ServerType, srv.ImageTag, srv.AllocatedRam, srv.AllocatedDisk, srv.AllocatedCpu,
		srv.Status, srv.BillingCycle, srv.LastBilledAt, srv.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert server: %w", err)
	}

	return nil
}

// GetByID retrieves a server by ID
func (r *ServerRepository) GetByID(ctx context.Context, id string) (*models.Server, error) {
	query := serverSelect + ` WHERE id = $1`
	return r.scanServer(r.pool.QueryRow(ctx, query, id))
}

// ListByUser retrieves a user's servers, newest first
func (r *ServerRepository) ListByUser(ctx context.Context, userID string) ([]*models.Server, error) {
	query := serverSelect + ` WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query servers: %w", err)
	}
	defer rows.Close()

	return r.scanServers(rows)
}

// List retrieves all servers, newest first
func (r *ServerRepository) List(ctx context.Context) ([]*models.Server, error) {
	query := serverSelect + ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query servers: %w", err)
	}
	defer rows.Close()

	return r.scanServers(rows)
}

// CountByNode counts servers currently placed on a node
func (r *ServerRepository) CountByNode(ctx context.Context, nodeID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM panel.servers WHERE node_id = $1`, nodeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count servers: %w", err)
	}
	return count, nil
}

// UpdateStatus updates only the server's status
func (r *ServerRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE panel.servers SET status = $1, updated_at = now() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update server status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a server row. Callers must have released the server's
// capacity reservation before (or in the same logical step as) this call.
func (r *ServerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM panel.servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete server: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const serverSelect = `
	SELECT id, user_id, node_id, package_id, name, description,
		   server_type, image_tag, allocated_ram, allocated_disk, allocated_cpu,
		   status, billing_cycle, last_billed_at, expires_at, created_at, updated_at
	FROM panel.servers`

func (r *ServerRepository) scanServer(row pgx.Row) (*models.Server, error) {
	srv := &models.Server{}
	err := row.Scan(
		&srv.ID, &srv.UserID, &srv.NodeID, &srv.PackageID, &srv.Name, &srv.Description,
		&srv.ServerType, &srv.ImageTag, &srv.AllocatedRam, &srv.AllocatedDisk, &srv.AllocatedCpu,
		&srv.Status, &srv.BillingCycle, &srv.LastBilledAt, &srv.ExpiresAt,
		&srv.CreatedAt, &srv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan server: %w", err)
	}
	return srv, nil
}

func (r *ServerRepository) scanServers(rows pgx.Rows) ([]*models.Server, error) {
	var servers []*models.Server
	for rows.Next() {
		srv := &models.Server{}
		err := rows.Scan(
			&srv.ID, &srv.UserID, &srv.NodeID, &srv.PackageID, &srv.Name, &srv.Description,
			&srv.ServerType, &srv.ImageTag, &srv.AllocatedRam, &srv.AllocatedDisk, &srv.AllocatedCpu,
			&srv.Status, &srv.BillingCycle, &srv.LastBilledAt, &srv.ExpiresAt,
			&srv.CreatedAt, &srv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan server row: %w", err)
		}
		servers = append(servers, srv)
	}
	return servers, rows.Err()
}
