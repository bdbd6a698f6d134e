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

type PackageRepository struct {
	pool *pgxpool.Pool
}

func NewPackageRepository(pool *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{pool: pool}
}

// Create creates a new package
func (r *PackageRepository) Create(ctx context.Context, pkg *models.Package) error {
	if pkg.ID == "" {
		pkg.ID = uuid.New().String()
	}

	query := `
		INSERT INTO panel.packages (
			id, name, description, ram, disk, cpu, databases, backups,
			price_per_hour, price_per_day, price_per_month, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		pkg.ID, pkg.Name, pkg.Description, pkg.Ram, pkg.Disk, pkg.Cpu,
		pkg.Databases, pkg.Backups,
		pkg.PricePerHour, pkg.PricePerDay, pkg.PricePerMonth, pkg.IsActive,
	)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}

	return nil
}

// GetByID retrieves a package by ID
func (r *PackageRepository) GetByID(ctx context.Context, id string) (*models.Package, error) {
	query := packageSelect + ` WHERE id = $1`
	return r.scanPackage(r.pool.QueryRow(ctx, query, id))
}

// List retrieves all packages, newest first
func (r *PackageRepository) List(ctx context.Context) ([]*models.Package, error) {
	query := packageSelect + ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	return r.scanPackages(rows)
}

// ListActive retrieves packages available for ordering
func (r *PackageRepository) ListActive(ctx context.Context) ([]*models.Package, error) {
	query := packageSelect + ` WHERE is_active = true ORDER BY price_per_month ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active packages: %w", err)
	}
	defer rows.Close()

	return r.scanPackages(rows)
}

// Update updates a package. Servers hold a snapshot of the resources they
// were created with, so price/resource edits never touch existing servers.
func (r *PackageRepository) Update(ctx context.Context, pkg *models.Package) error {
	query := `
		UPDATE panel.packages SET
			name = $1,
			description = $2,
			ram = $3,
			disk = $4,
			cpu = $5,
			databases = $6,
			backups = $7,
			price_per_hour = $8,
			price_per_day = $9,
			price_per_month = $10,
			is_active = $11,
			updated_at = now()
		WHERE id = $12
	`

	tag, err := r.pool.Exec(ctx, query,
		pkg.Name, pkg.Description, pkg.Ram, pkg.Disk, pkg.Cpu,
		pkg.Databases, pkg.Backups,
		pkg.PricePerHour, pkg.PricePerDay, pkg.PricePerMonth, pkg.IsActive,
		pkg.ID,
	)
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a package
func (r *PackageRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM panel.packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const packageSelect = `
	SELECT id, name, description, ram, disk, cpu, databases, backups,
		   price_per_hour, price_per_day, price_per_month, is_active,
		   created_at, updated_at
	FROM panel.packages`

func (r *PackageRepository) scanPackage(row pgx.Row) (*models.Package, error) {
	pkg := &models.Package{}
	err := row.Scan(
		&pkg.ID, &pkg.Name, &pkg.Description, &pkg.Ram, &pkg.Disk, &pkg.Cpu,
		&pkg.Databases, &pkg.Backups,
		&pkg.PricePerHour, &pkg.PricePerDay, &pkg.PricePerMonth, &pkg.IsActive,
		&pkg.CreatedAt, &pkg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan package: %w", err)
	}
	return pkg, nil
}

func (r *PackageRepository) scanPackages(rows pgx.Rows) ([]*models.Package, error) {
	var pkgs []*models.Package
	for rows.Next() {
		pkg := &models.Package{}
		err := rows.Scan(
			&pkg.ID, &pkg.Name, &pkg.Description, &pkg.Ram, &pkg.Disk, &pkg.Cpu,
			&pkg.Databases, &pkg.Backups,
			&pkg.PricePerHour, &pkg.PricePerDay, &pkg.PricePerMonth, &pkg.IsActive,
			&pkg.CreatedAt, &pkg.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan package row: %w", err)
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, rows.Err()
}
