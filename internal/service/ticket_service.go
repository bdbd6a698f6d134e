package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wenwu/saas-platform/panel-service/internal/models"
	"github.com/wenwu/saas-platform/panel-service/internal/repository"
)

// TicketStore is the persistence contract for support tickets.
type TicketStore interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error)
	List(ctx context.Context) ([]*models.Ticket, error)
	UpdateStatus(ctx context.Context, id, status string) error
	CreateMessage(ctx context.Context, msg *models.TicketMessage) error
	ListMessages(ctx context.Context, ticketID string) ([]*models.TicketMessage, error)
}

// TicketService handles support tickets and their message threads.
type TicketService struct {
	tickets  TicketStore
	activity ActivityLogger
}

func NewTicketService(tickets TicketStore, activity ActivityLogger) *TicketService {
	return &TicketService{tickets: tickets, activity: activity}
}

// Create opens a ticket with its first message
func (s *TicketService) Create(ctx context.Context, userID string, req *models.CreateTicketRequest) (*models.Ticket, error) {
	priority := req.Priority
	if priority == "" {
		priority = models.TicketPriorityMedium
	}

	ticket := &models.Ticket{
		UserID:          userID,
		Subject:         req.Subject,
		Priority:        priority,
		Category:        req.Category,
		Status:          models.TicketStatusOpen,
		RelatedServerID: req.RelatedServerID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	msg := &models.TicketMessage{
		TicketID: ticket.ID,
		UserID:   userID,
		Message:  req.Message,
	}
	if err := s.tickets.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("create ticket message: %w", err)
	}

	logActivity(ctx, s.activity, userID, "ticket.create", map[string]interface{}{
		"ticket_id": ticket.ID,
		"subject":   req.Subject,
	})
	return ticket, nil
}

// Get returns a ticket and its thread for the owner or an admin
func (s *TicketService) Get(ctx context.Context, requesterID string, requesterIsAdmin bool, ticketID string) (*models.Ticket, []*models.TicketMessage, error) {
	ticket, err := s.authorize(ctx, requesterID, requesterIsAdmin, ticketID)
	if err != nil {
		return nil, nil, err
	}

	msgs, err := s.tickets.ListMessages(ctx, ticketID)
	if err != nil {
		return nil, nil, fmt.Errorf("list ticket messages: %w", err)
	}
	return ticket, msgs, nil
}

// ListFor returns all tickets for an admin, or the requester's own
func (s *TicketService) ListFor(ctx context.Context, requesterID string, requesterIsAdmin bool) ([]*models.Ticket, error) {
	if requesterIsAdmin {
		return s.tickets.List(ctx)
	}
	return s.tickets.ListByUser(ctx, requesterID)
}

// Reply appends a message. A staff reply on a waiting ticket moves it to
// in_progress; a user reply on an in-progress ticket moves it to
// waiting_user.
func (s *TicketService) Reply(ctx context.Context, requesterID string, requesterIsAdmin bool, ticketID, message string) error {
	ticket, err := s.authorize(ctx, requesterID, requesterIsAdmin, ticketID)
	if err != nil {
		return err
	}

	msg := &models.TicketMessage{
		TicketID:     ticket.ID,
		UserID:       requesterID,
		Message:      message,
		IsStaffReply: requesterIsAdmin,
	}
	if err := s.tickets.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("create ticket message: %w", err)
	}

	if requesterIsAdmin && ticket.Status == models.TicketStatusWaitingUser {
		if err := s.tickets.UpdateStatus(ctx, ticket.ID, models.TicketStatusInProgress); err != nil {
			return fmt.Errorf("update ticket status: %w", err)
		}
	} else if !requesterIsAdmin && ticket.Status == models.TicketStatusInProgress {
		if err := s.tickets.UpdateStatus(ctx, ticket.ID, models.TicketStatusWaitingUser); err != nil {
			return fmt.Errorf("update ticket status: %w", err)
		}
	}

	logActivity(ctx, s.activity, requesterID, "ticket.reply", map[string]interface{}{
		"ticket_id": ticket.ID,
	})
	return nil
}

// UpdateStatus changes a ticket's status
func (s *TicketService) UpdateStatus(ctx context.Context, requesterID string, requesterIsAdmin bool, ticketID, status string) error {
	ticket, err := s.authorize(ctx, requesterID, requesterIsAdmin, ticketID)
	if err != nil {
		return err
	}

	if err := s.tickets.UpdateStatus(ctx, ticket.ID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update ticket status: %w", err)
	}

	logActivity(ctx, s.activity, requesterID, "ticket.status.update", map[string]interface{}{
		"ticket_id":  ticket.ID,
		"new_status": status,
	})
	return nil
}

func (s *TicketService) authorize(ctx context.Context, requesterID string, requesterIsAdmin bool, ticketID string) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load ticket: %w", err)
	}
	if !requesterIsAdmin && ticket.UserID != requesterID {
		return nil, ErrForbidden
	}
	return ticket, nil
}
