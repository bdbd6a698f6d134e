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

type NodeRepository struct {
	pool *pgxpool.Pool
}

func NewNodeRepository(pool *pgxpool.Pool) *NodeRepository {
	return &NodeRepository{pool: pool}
}

// Create creates a new node with zero used capacity
func (r *NodeRepository) Create(ctx context.Context, node *models.Node) error {
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	if node.Status == "" {
		node.Status = models.NodeStatusOnline
	}

	query := `
		INSERT INTO panel.nodes (
			id, name, location, ip_address, port,
			total_ram, total_disk, total_cpu, used_ram, used_disk, used_cpu,
			status, is_public
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, 0, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		node.ID, node.Name, node.Location, node.IPAddress, node.Port,
		node.TotalRam, node.TotalDisk, node.TotalCpu,
		node.Status, node.IsPublic,
	)
	if err != nil {
		return fmt.Errorf("insert node: %w", err)
	}

	return nil
}

// GetByID retrieves a node by ID
func (r *NodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := nodeSelect + ` WHERE id = $1`
	return r.scanNode(r.pool.QueryRow(ctx, query, id))
}

// List retrieves all nodes, newest first
func (r *NodeRepository) List(ctx context.Context) ([]*models.Node, error) {
	query := nodeSelect + ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	return r.scanNodes(rows)
}

// ListPublic retrieves nodes ordinary users may place servers on
func (r *NodeRepository) ListPublic(ctx context.Context) ([]*models.Node, error) {
	query := nodeSelect + ` WHERE is_public = true ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query public nodes: %w", err)
	}
	defer rows.Close()

	return r.scanNodes(rows)
}

// Update updates node metadata and totals. Used capacity is out of reach
// here; it moves only through Reserve and Release.
func (r *NodeRepository) Update(ctx context.Context, node *models.Node) error {
	query := `
		UPDATE panel.nodes SET
			name = $1,
			location = $2,
			ip_address = $3,
			port = $4,
			total_ram = $5,
			total_disk = $6,
			total_cpu = $7,
			status = $8,
			is_public = $9,
			updated_at = now()
		WHERE id = $10
	`

	tag, err := r.pool.Exec(ctx, query,
		node.Name, node.Location, node.IPAddress, node.Port,
		node.TotalRam, node.TotalDisk, node.TotalCpu,
		node.Status, node.IsPublic, node.ID,
	)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a node
func (r *NodeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM panel.nodes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reserve atomically adds the requested amounts to the node's used
// capacity, but only if all three dimensions fit. The node row is locked
// for the duration, so two concurrent reservations against the same node
// serialize and cannot both pass the check. On insufficient capacity the
// deficient dimensions are returned and nothing changes.
func (r *NodeRepository) Reserve(ctx context.Context, nodeID string, ram, disk, cpu int64) (deficient []string, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reserve: %w", err)
	}
	defer tx.Rollback(ctx)

	var node models.Node
	err = tx.QueryRow(ctx, `
		SELECT total_ram, total_disk, total_cpu, used_ram, used_disk, used_cpu
		FROM panel.nodes
		WHERE id = $1
		FOR UPDATE
	`, nodeID).Scan(
		&node.TotalRam, &node.TotalDisk, &node.TotalCpu,
		&node.UsedRam, &node.UsedDisk, &node.UsedCpu,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock node: %w", err)
	}

	if node.AvailableRam() < ram {
		deficient = append(deficient, "ram")
	}
	if node.AvailableDisk() < disk {
		deficient = append(deficient, "disk")
	}
	if node.AvailableCpu() < cpu {
		deficient = append(deficient, "cpu")
	}
	if len(deficient) > 0 {
		return deficient, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE panel.nodes SET
			used_ram = used_ram + $1,
			used_disk = used_disk + $2,
			used_cpu = used_cpu + $3,
			updated_at = now()
		WHERE id = $4
	`, ram, disk, cpu, nodeID)
	if err != nil {
		return nil, fmt.Errorf("apply reservation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reserve: %w", err)
	}
	return nil, nil
}

// Release atomically subtracts the given amounts from the node's used
// capacity, clamping each dimension at zero. Dimensions that had to be
// clamped are returned so the caller can flag the accounting bug.
func (r *NodeRepository) Release(ctx context.Context, nodeID string, ram, disk, cpu int64) (clamped []string, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin release: %w", err)
	}
	defer tx.Rollback(ctx)

	var usedRam, usedDisk, usedCpu int64
	err = tx.QueryRow(ctx, `
		SELECT used_ram, used_disk, used_cpu
		FROM panel.nodes
		WHERE id = $1
		FOR UPDATE
	`, nodeID).Scan(&usedRam, &usedDisk, &usedCpu)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock node: %w", err)
	}

	newRam := usedRam - ram
	newDisk := usedDisk - disk
	newCpu := usedCpu - cpu
	if newRam < 0 {
		newRam = 0
		clamped = append(clamped, "ram")
	}
	if newDisk < 0 {
		newDisk = 0
		clamped = append(clamped, "disk")
	}
	if newCpu < 0 {
		newCpu = 0
		clamped = append(clamped, "cpu")
	}

	_, err = tx.Exec(ctx, `
		UPDATE panel.nodes SET
			used_ram = $1,
			used_disk = $2,
			used_cpu = $3,
			updated_at = now()
		WHERE id = $4
	`, newRam, newDisk, newCpu, nodeID)
	if err != nil {
		return nil, fmt.Errorf("apply release: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit release: %w", err)
	}
	return clamped, nil
}

const nodeSelect = `
	SELECT id, name, location, ip_address, port,
		   total_ram, total_disk, total_cpu, used_ram, used_disk, used_cpu,
		   status, is_public, created_at, updated_at
	FROM panel.nodes`

func (r *NodeRepository) scanNode(row pgx.Row) (*models.Node, error) {
	node := &models.Node{}
	err := row.Scan(
		&node.ID, &node.Name, &node.Location, &node.IPAddress, &node.Port,
		&node.TotalRam, &node.TotalDisk, &node.TotalCpu,
		&node.UsedRam, &node.UsedDisk, &node.UsedCpu,
		&node.Status, &node.IsPublic, &node.CreatedAt, &node.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan node: %w", err)
	}
	return node, nil
}

func (r *NodeRepository) scanNodes(rows pgx.Rows) ([]*models.Node, error) {
	var nodes []*models.Node
	for rows.Next() {
		node := &models.Node{}
		err := rows.Scan(
			&node.ID, &node.Name, &node.Location, &node.IPAddress, &node.Port,
			&node.TotalRam, &node.TotalDisk, &node.TotalCpu,
			&node.UsedRam, &node.UsedDisk, &node.UsedCpu,
			&node.Status, &node.IsPublic, &node.CreatedAt, &node.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan node row: %w", err)
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}
