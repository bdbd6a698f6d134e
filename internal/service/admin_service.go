package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wenwu/saas-platform/panel-service/internal/models"
	"github.com/wenwu/saas-platform/panel-service/internal/repository"
)

// UserStore is the persistence contract for user accounts. There is
// deliberately no credits setter here.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateRole(ctx context.Context, id, role string) error
}

// NodeStore is the persistence contract for node CRUD.
type NodeStore interface {
	Create(ctx context.Context, node *models.Node) error
	GetByID(ctx context.Context, id string) (*models.Node, error)
	List(ctx context.Context) ([]*models.Node, error)
	ListPublic(ctx context.Context) ([]*models.Node, error)
	Update(ctx context.Context, node *models.Node) error
	Delete(ctx context.Context, id string) error
}

// PackageStore is the persistence contract for package CRUD.
type PackageStore interface {
	Create(ctx context.Context, pkg *models.Package) error
	GetByID(ctx context.Context, id string) (*models.Package, error)
	List(ctx context.Context) ([]*models.Package, error)
	ListActive(ctx context.Context) ([]*models.Package, error)
	Update(ctx context.Context, pkg *models.Package) error
	Delete(ctx context.Context, id string) error
}

// ServerCounter counts servers placed on a node.
type ServerCounter interface {
	CountByNode(ctx context.Context, nodeID string) (int64, error)
}

// AdminService covers privileged mutations: balance adjustments, role
// changes, and node/package administration.
type AdminService struct {
	users    UserStore
	nodes    NodeStore
	packages PackageStore
	servers  ServerCounter
	ledger   *LedgerService
	activity ActivityLogger
}

func NewAdminService(
	users UserStore,
	nodes NodeStore,
	packages PackageStore,
	servers ServerCounter,
	ledger *LedgerService,
	activity ActivityLogger,
) *AdminService {
	return &AdminService{
		users:    users,
		nodes:    nodes,
		packages: packages,
		servers:  servers,
		ledger:   ledger,
		activity: activity,
	}
}

// ==================== Users ====================

// AdjustCredits sets a user's balance to newBalance by routing the delta
// through the ledger as an admin adjustment. The credits field is never
// written directly; the adjustment is one chained ledger entry like any
// other balance change.
func (s *AdminService) AdjustCredits(ctx context.Context, adminID, targetUserID string, newBalance int64, reason string) (*models.CreditTransaction, error) {
	user, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if reason == "" {
		reason = "Admin adjustment"
	}

	delta := newBalance - user.Credits
	entry, err := s.ledger.Apply(ctx, targetUserID, delta, models.TransactionTypeAdminAdjustment, reason, nil)
	if err != nil {
		return nil, err
	}

	logActivity(ctx, s.activity, adminID, "user.credits.update", map[string]interface{}{
		"target_user_id": targetUserID,
		"amount":         delta,
		"reason":         reason,
	})
	return entry, nil
}

// SetRole changes a user's role. Self-demotion is permitted but lands in
// the audit log like every other role change.
func (s *AdminService) SetRole(ctx context.Context, adminID, targetUserID, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("unknown role %q", role)
	}

	if err := s.users.UpdateRole(ctx, targetUserID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set role: %w", err)
	}

	if adminID == targetUserID && role != models.RoleAdmin {
		log.Printf("[Admin] admin %s demoted themselves to %s", adminID, role)
	}

	logActivity(ctx, s.activity, adminID, "user.role.update", map[string]interface{}{
		"target_user_id": targetUserID,
		"new_role":       role,
	})
	return nil
}

// ListUsers returns all users
func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

// GetUser returns one user
func (s *AdminService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ==================== Nodes ====================

// CreateNode registers a new node
func (s *AdminService) CreateNode(ctx context.Context, adminID string, req *models.CreateNodeRequest) (*models.Node, error) {
	node := &models.Node{
		Name:      req.Name,
		Location:  req.Location,
		IPAddress: req.IPAddress,
		Port:      req.Port,
		TotalRam:  req.TotalRam,
		TotalDisk: req.TotalDisk,
		TotalCpu:  req.TotalCpu,
		Status:    models.NodeStatusOnline,
		IsPublic:  true,
	}
	if node.Port == 0 {
		node.Port = 2022
	}
	if req.IsPublic != nil {
		node.IsPublic = *req.IsPublic
	}

	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, fmt.Errorf("create node: %w", err)
	}

	logActivity(ctx, s.activity, adminID, "node.create", map[string]interface{}{
		"node_id":  node.ID,
		"name":     node.Name,
		"location": node.Location,
	})
	return node, nil
}

// UpdateNode applies a partial update to a node; used capacity is not
// touchable through this path.
func (s *AdminService) UpdateNode(ctx context.Context, adminID, nodeID string, req *models.UpdateNodeRequest) (*models.Node, error) {
	node, err := s.nodes.GetByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load node: %w", err)
	}

	if req.Name != nil {
		node.Name = *req.Name
	}
	if req.Location != nil {
		node.Location = *req.Location
	}
	if req.IPAddress != nil {
		node.IPAddress = *req.IPAddress
	}
	if req.Port != nil {
		node.Port = *req.Port
	}
	if req.TotalRam != nil {
		node.TotalRam = *req.TotalRam
	}
	if req.TotalDisk != nil {
		node.TotalDisk = *req.TotalDisk
	}
	if req.TotalCpu != nil {
		node.TotalCpu = *req.TotalCpu
	}
	if req.Status != nil {
		node.Status = *req.Status
	}
	if req.IsPublic != nil {
		node.IsPublic = *req.IsPublic
	}

	if err := s.nodes.Update(ctx, node); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update node: %w", err)
	}

	logActivity(ctx, s.activity, adminID, "node.update", map[string]interface{}{
		"node_id": nodeID,
	})
	return node, nil
}

// DeleteNode removes a node, refusing while servers remain on it: their
// reservations would become unreleasable.
func (s *AdminService) DeleteNode(ctx context.Context, adminID, nodeID string) error {
	count, err := s.servers.CountByNode(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("count servers on node: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d servers", ErrNodeInUse, count)
	}

	if err := s.nodes.Delete(ctx, nodeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete node: %w", err)
	}

	logActivity(ctx, s.activity, adminID, "node.delete", map[string]interface{}{
		"node_id": nodeID,
	})
	return nil
}

// ListNodes returns every node for admins, public nodes otherwise
func (s *AdminService) ListNodes(ctx context.Context, isAdmin bool) ([]*models.Node, error) {
	if isAdmin {
		return s.nodes.List(ctx)
	}
	return s.nodes.ListPublic(ctx)
}

// GetNode returns one node
func (s *AdminService) GetNode(ctx context.Context, id string) (*models.Node, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return node, nil
}

// ==================== Packages ====================

// CreatePackage creates a new package
func (s *AdminService) CreatePackage(ctx context.Context, adminID string, req *models.CreatePackageRequest) (*models.Package, error) {
	pkg := &models.Package{
		Name:          req.Name,
		Description:   req.Description,
		Ram:           req.Ram,
		Disk:          req.Disk,
		Cpu:           req.Cpu,
		Databases:     req.Databases,
		Backups:       req.Backups,
		PricePerHour:  req.PricePerHour,
		PricePerDay:   req.PricePerDay,
		PricePerMonth: req.PricePerMonth,
		IsActive:      true,
	}
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}

	if err := s.packages.Create(ctx, pkg); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}

	logActivity(ctx, s.activity, adminID, "package.create", map[string]interface{}{
		"package_id": pkg.ID,
		"name":       pkg.Name,
	})
	return pkg, nil
}

// UpdatePackage applies a partial update. Existing servers keep their
// resource snapshot regardless.
func (s *AdminService) UpdatePackage(ctx context.Context, adminID, packageID string, req *models.UpdatePackageRequest) (*models.Package, error) {
	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load package: %w", err)
	}

	if req.Name != nil {
		pkg.Name = *req.Name
	}
	if req.Description != nil {
		pkg.Description = *req.Description
	}
	if req.Ram != nil {
		pkg.Ram = *req.Ram
	}
	if req.Disk != nil {
		pkg.Disk = *req.Disk
	}
	if req.Cpu != nil {
		pkg.Cpu = *req.Cpu
	}
	if req.Databases != nil {
		pkg.Databases = *req.Databases
	}
	if req.Backups != nil {
		pkg.Backups = *req.Backups
	}
	if req.PricePerHour != nil {
		pkg.PricePerHour = *req.PricePerHour
	}
	if req.PricePerDay != nil {
		pkg.PricePerDay = *req.PricePerDay
	}
	if req.PricePerMonth != nil {
		pkg.PricePerMonth = *req.PricePerMonth
	}
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}

	if err := s.packages.Update(ctx, pkg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update package: %w", err)
	}

	logActivity(ctx, s.activity, adminID, "package.update", map[string]interface{}{
		"package_id": packageID,
	})
	return pkg, nil
}

// DeletePackage removes a package
func (s *AdminService) DeletePackage(ctx context.Context, adminID, packageID string) error {
	if err := s.packages.Delete(ctx, packageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete package: %w", err)
	}

	logActivity(ctx, s.activity, adminID, "package.delete", map[string]interface{}{
		"package_id": packageID,
	})
	return nil
}

// ListPackages returns every package for admins, active ones otherwise
func (s *AdminService) ListPackages(ctx context.Context, isAdmin bool) ([]*models.Package, error) {
	if isAdmin {
		return s.packages.List(ctx)
	}
	return s.packages.ListActive(ctx)
}
