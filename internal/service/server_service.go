package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
	"github.com/wenwu/saas-platform/panel-service/internal/repository"
)

// ServerStore is the persistence contract for server rows.
type ServerStore interface {
	Create(ctx context.Context, srv *models.Server) error
	GetByID(ctx context.Context, id string) (*models.Server, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Server, error)
	List(ctx context.Context) ([]*models.Server, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

// PackageGetter loads the package a server is created from.
type PackageGetter interface {
	GetByID(ctx context.Context, id string) (*models.Package, error)
}

// NodeGetter loads node rows for existence checks.
type NodeGetter interface {
	GetByID(ctx context.Context, id string) (*models.Node, error)
}

// ServerService orchestrates the server lifecycle: it is the only
// component that drives the capacity tracker and the ledger together.
type ServerService struct {
	servers  ServerStore
	packages PackageGetter
	nodes    NodeGetter
	capacity *CapacityTracker
	ledger   *LedgerService
	activity ActivityLogger
	now      func() time.Time
}

func NewServerService(
	servers ServerStore,
	packages PackageGetter,
	nodes NodeGetter,
	capacity *CapacityTracker,
	ledger *LedgerService,
	activity ActivityLogger,
) *ServerService {
	return &ServerService{
		servers:  servers,
		packages: packages,
		nodes:    nodes,
		capacity: capacity,
		ledger:   ledger,
		activity: activity,
		now:      time.Now,
	}
}

// Create provisions a new server for a user as one all-or-nothing unit:
//
//	quote -> reserve capacity -> debit ledger -> insert server row
//
// Each step that can fail after a prior step took effect compensates the
// prior steps before surfacing the failure, so a declined purchase never
// leaks a reservation and no reserved-but-unbilled or billed-but-
// unreserved state survives the call.
func (s *ServerService) Create(ctx context.Context, userID string, req *models.CreateServerRequest) (*models.CreateServerResponse, error) {
	cycle := req.BillingCycle
	if cycle == "" {
		cycle = models.BillingCycleMonthly
	}

	pkg, err := s.packages.GetByID(ctx, req.PackageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("package: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load package: %w", err)
	}

	node, err := s.nodes.GetByID(ctx, req.NodeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("node: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("load node: %w", err)
	}

	now := s.now()
	quote, err := QuoteForCycle(pkg, cycle, now)
	if err != nil {
		return nil, err
	}

	if err := s.capacity.Reserve(ctx, node.ID, pkg.Ram, pkg.Disk, pkg.Cpu); err != nil {
		return nil, err
	}

	serverID := uuid.New().String()

	_, err = s.ledger.Apply(ctx, userID, -quote.Cost, models.TransactionTypeUsage,
		fmt.Sprintf("Server creation: %s", req.Name), &serverID)
	if err != nil {
		// The reservation already took effect; without this release a
		// declined purchase leaks node capacity permanently.
		s.compensateRelease(ctx, node.ID, pkg)
		return nil, err
	}

	srv := &models.Server{
		ID:            serverID,
		UserID:        userID,
		NodeID:        node.ID,
		PackageID:     pkg.ID,
		Name:          req.Name,
		Description:   req.Description,
		ServerType:    req.ServerType,
		ImageTag:      req.ImageTag,
		AllocatedRam:  pkg.Ram,
		AllocatedDisk: pkg.Disk,
		AllocatedCpu:  pkg.Cpu,
		Status:        models.ServerStatusInstalling,
		BillingCycle:  cycle,
		LastBilledAt:  now,
		ExpiresAt:     quote.ExpiresAt,
	}

	if err := s.servers.Create(ctx, srv); err != nil {
		// Both prior steps took effect; unwind them in reverse order.
		if _, refundErr := s.ledger.Apply(ctx, userID, quote.Cost, models.TransactionTypeRefund,
			fmt.Sprintf("Refund: server creation failed for %s", req.Name), &serverID); refundErr != nil {
			log.Printf("[Server] COMPENSATION FAILED: refund %d credits to user %s: %v", quote.Cost, userID, refundErr)
		}
		s.compensateRelease(ctx, node.ID, pkg)
		return nil, fmt.Errorf("create server: %w", err)
	}

	logActivity(ctx, s.activity, userID, "server.create", map[string]interface{}{
		"server_id": serverID,
		"name":      req.Name,
		"node_id":   node.ID,
		"cost":      quote.Cost,
	})

	log.Printf("[Server] Created server %s on node %s for user %s (cost=%d cycle=%s)",
		serverID, node.ID, userID, quote.Cost, cycle)

	return &models.CreateServerResponse{
		ServerID:  serverID,
		Status:    srv.Status,
		Cost:      quote.Cost,
		ExpiresAt: quote.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (s *ServerService) compensateRelease(ctx context.Context, nodeID string, pkg *models.Package) {
	if err := s.capacity.Release(ctx, nodeID, pkg.Ram, pkg.Disk, pkg.Cpu); err != nil {
		log.Printf("[Server] COMPENSATION FAILED: release %d/%d/%d on node %s: %v",
			pkg.Ram, pkg.Disk, pkg.Cpu, nodeID, err)
	}
}

// UpdateStatus applies a power action. Status transitions carry no
// capacity or ledger effect; the actual infrastructure control is an
// external collaborator invoked after the state is recorded.
func (s *ServerService) UpdateStatus(ctx context.Context, requesterID string, requesterIsAdmin bool, serverID, action string) (string, error) {
	srv, err := s.authorize(ctx, requesterID, requesterIsAdmin, serverID)
	if err != nil {
		return "", err
	}

	newStatus, ok := models.StatusForAction(action)
	if !ok {
		return "", ErrInvalidAction
	}

	if err := s.servers.UpdateStatus(ctx, srv.ID, newStatus); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("update status: %w", err)
	}

	logActivity(ctx, s.activity, requesterID, "server."+action, map[string]interface{}{
		"server_id": srv.ID,
	})
	return newStatus, nil
}

// Delete removes a server. The capacity release happens before the row
// is removed: if the row went first a crash in between would leave the
// reservation orphaned forever, since nothing else would ever release
// it. The cost of this ordering is that a failed row delete leaves the
// capacity already returned; retrying the delete would release the same
// allocation again, so such failures are surfaced for inspection rather
// than retried blindly.
func (s *ServerService) Delete(ctx context.Context, requesterID string, requesterIsAdmin bool, serverID string) error {
	srv, err := s.authorize(ctx, requesterID, requesterIsAdmin, serverID)
	if err != nil {
		return err
	}

	if err := s.capacity.Release(ctx, srv.NodeID, srv.AllocatedRam, srv.AllocatedDisk, srv.AllocatedCpu); err != nil {
		return err
	}

	if err := s.servers.Delete(ctx, srv.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete server: %w", err)
	}

	logActivity(ctx, s.activity, requesterID, "server.delete", map[string]interface{}{
		"server_id": srv.ID,
		"node_id":   srv.NodeID,
	})

	log.Printf("[Server] Deleted server %s, released %d/%d/%d on node %s",
		srv.ID, srv.AllocatedRam, srv.AllocatedDisk, srv.AllocatedCpu, srv.NodeID)
	return nil
}

// Get returns a server the requester is allowed to see
func (s *ServerService) Get(ctx context.Context, requesterID string, requesterIsAdmin bool, serverID string) (*models.Server, error) {
	return s.authorize(ctx, requesterID, requesterIsAdmin, serverID)
}

// ListFor returns all servers for an admin, or the requester's own
func (s *ServerService) ListFor(ctx context.Context, requesterID string, requesterIsAdmin bool) ([]*models.Server, error) {
	if requesterIsAdmin {
		return s.servers.List(ctx)
	}
	return s.servers.ListByUser(ctx, requesterID)
}

func (s *ServerService) authorize(ctx context.Context, requesterID string, requesterIsAdmin bool, serverID string) (*models.Server, error) {
	srv, err := s.servers.GetByID(ctx, serverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load server: %w", err)
	}
	if !requesterIsAdmin && srv.UserID != requesterID {
		return nil, ErrForbidden
	}
	return srv, nil
}

// SetClock overrides the time source. Test hook.
func (s *ServerService) SetClock(now func() time.Time) {
	s.now = now
}
