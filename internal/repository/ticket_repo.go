package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
)

type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

// Create creates a new ticket
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.Status == "" {
		ticket.Status = models.TicketStatusOpen
	}

	query := `
		INSERT INTO panel.tickets (id, user_id, subject, priority, category, status, related_server_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		ticket.ID, ticket.UserID, ticket.Subject, ticket.Priority,
		ticket.Category, ticket.Status, ticket.RelatedServerID,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	return nil
}

// GetByID retrieves a ticket by ID
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	query := ticketSelect + ` WHERE id = $1`

	ticket := &models.Ticket{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID, &ticket.UserID, &ticket.Subject, &ticket.Priority,
		&ticket.Category, &ticket.Status, &ticket.RelatedServerID,
		&ticket.CreatedAt, &ticket.UpdatedAt, &ticket.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan ticket: %w", err)
	}
	return ticket, nil
}

// ListByUser retrieves a user's tickets, newest first
func (r *TicketRepository) ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	query := ticketSelect + ` WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	return r.scanTickets(rows)
}

// List retrieves all tickets, newest first
func (r *TicketRepository) List(ctx context.Context) ([]*models.Ticket, error) {
	query := ticketSelect + ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	return r.scanTickets(rows)
}

// UpdateStatus updates a ticket's status, stamping closed_at when the
// ticket is closed
func (r *TicketRepository) UpdateStatus(ctx context.Context, id, status string) error {
	var closedAt *time.Time
	if status == models.TicketStatusClosed {
		now := time.Now()
		closedAt = &now
	}

	query := `UPDATE panel.tickets SET status = $1, closed_at = $2, updated_at = now() WHERE id = $3`
	tag, err := r.pool.Exec(ctx, query, status, closedAt, id)
	if err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateMessage appends a message to a ticket thread
func (r *TicketRepository) CreateMessage(ctx context.Context, msg *models.TicketMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	query := `
		INSERT INTO panel.ticket_messages (id, ticket_id, user_id, message, is_staff_reply)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, msg.ID, msg.TicketID, msg.UserID, msg.Message, msg.IsStaffReply)
	if err != nil {
		return fmt.Errorf("insert ticket message: %w", err)
	}

	return nil
}

// ListMessages retrieves a ticket's messages, oldest first
func (r *TicketRepository) ListMessages(ctx context.Context, ticketID string) ([]*models.TicketMessage, error) {
	query := `
		SELECT id, ticket_id, user_id, message, is_staff_reply, created_at
		FROM panel.ticket_messages
		WHERE ticket_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("query ticket messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.TicketMessage
	for rows.Next() {
		msg := &models.TicketMessage{}
		err := rows.Scan(&msg.ID, &msg.TicketID, &msg.UserID, &msg.Message, &msg.IsStaffReply, &msg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan ticket message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

const ticketSelect = `
	SELECT id, user_id, subject, priority, category, status, related_server_id,
		   created_at, updated_at, closed_at
	FROM panel.tickets`

func (r *TicketRepository) scanTickets(rows pgx.Rows) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	for rows.Next() {
		ticket := &models.Ticket{}
		err := rows.Scan(
			&ticket.ID, &ticket.UserID, &ticket.Subject, &ticket.Priority,
			&ticket.Category, &ticket.Status, &ticket.RelatedServerID,
			&ticket.CreatedAt, &ticket.UpdatedAt, &ticket.ClosedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}
