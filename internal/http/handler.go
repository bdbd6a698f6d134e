package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
	"github.com/wenwu/saas-platform/panel-service/internal/service"
)

type Handler struct {
	serverService  *service.ServerService
	adminService   *service.AdminService
	ledgerService  *service.LedgerService
	paymentService *service.PaymentService
	ticketService  *service.TicketService
	statsService   *service.StatsService
	activity       service.ActivityStore
}

func NewHandler(
	serverService *service.ServerService,
	adminService *service.AdminService,
	ledgerService *service.LedgerService,
	paymentService *service.PaymentService,
	ticketService *service.TicketService,
	statsService *service.StatsService,
	activity service.ActivityStore,
) *Handler {
	return &Handler{
		serverService:  serverService,
		adminService:   adminService,
		ledgerService:  ledgerService,
		paymentService: paymentService,
		ticketService:  ticketService,
		statsService:   statsService,
		activity:       activity,
	}
}

// respondServiceError maps the service error taxonomy onto HTTP. The
// code field lets clients tell "no room on this node" apart from "not
// enough credits", which need different corrective action.
func respondServiceError(c *gin.Context, err error) {
	var capErr *service.InsufficientCapacityError
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "forbidden"})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "insufficient_funds"})
	case errors.As(err, &capErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      capErr.Error(),
			"code":       "insufficient_capacity",
			"dimensions": capErr.Dimensions,
		})
	case errors.Is(err, service.ErrNodeInUse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "node_in_use"})
	case errors.Is(err, service.ErrInvalidAction), errors.Is(err, service.ErrInvalidBillingCycle):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_request"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ==================== Server Handlers ====================

// CreateServer creates a server for the current user
func (h *Handler) CreateServer(c *gin.Context) {
	userID, _ := requesterIdentity(c)

	var req models.CreateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.serverService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListServers lists the requester's servers (admins see all)
func (h *Handler) ListServers(c *gin.Context) {
	userID, isAdmin := requesterIdentity(c)

	servers, err := h.serverService.ListFor(c.Request.Context(), userID, isAdmin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	infos := make([]*models.ServerInfo, 0, len(servers))
	for _, srv := range servers {
		infos = append(infos, toServerInfo(srv))
	}
	c.JSON(http.StatusOK, gin.H{"servers": infos})
}

// GetServer returns one server
func (h *Handler) GetServer(c *gin.Context) {
	userID, isAdmin := requesterIdentity(c)

	srv, err := h.serverService.Get(c.Request.Context(), userID, isAdmin, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toServerInfo(srv))
}

// ServerAction applies a power action to a server
func (h *Handler) ServerAction(c *gin.Context) {
	userID, isAdmin := requesterIdentity(c)

	var req models.ServerActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.serverService.UpdateStatus(c.Request.Context(), userID, isAdmin, c.Param("id"), req.Action)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ServerActionResponse{ServerID: c.Param("id"), Status: status})
}

// DeleteServer deletes a server
func (h *Handler) DeleteServer(c *gin.Context) {
	userID, isAdmin := requesterIdentity(c)

	if err := h.serverService.Delete(c.Request.Context(), userID, isAdmin, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ==================== Catalog Handlers ====================

// ListNodes lists public nodes (admins see all, with connection details)
func (h *Handler) ListNodes(c *gin.Context) {
	_, isAdmin := requesterIdentity(c)

	nodes, err := h.adminService.ListNodes(c.Request.Context(), isAdmin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	infos := make([]*models.NodeInfo, 0, len(nodes))
	for _, node := range nodes {
		infos = append(infos, toNodeInfo(node, isAdmin))
	}
	c.JSON(http.StatusOK, gin.H{"nodes": infos})
}

// ListPackages lists packages available for ordering
func (h *Handler) ListPackages(c *gin.Context) {
	_, isAdmin := requesterIdentity(c)

	pkgs, err := h.adminService.ListPackages(c.Request.Context(), isAdmin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"packages": pkgs})
}

// ==================== Account Handlers ====================

// MyCredits returns the requester's current balance
func (h *Handler) MyCredits(c *gin.Context) {
	userID, _ := requesterIdentity(c)

	user, err := h.adminService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreditsResponse{Credits: user.Credits})
}

// MyTransactions returns the requester's ledger history
func (h *Handler) MyTransactions(c *gin.Context) {
	userID, _ := requesterIdentity(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.ledgerService.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	infos := make([]*models.TransactionInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, toTransactionInfo(entry))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": infos})
}

// MyActivity returns the requester's recent activity
func (h *Handler) MyActivity(c *gin.Context) {
	userID, _ := requesterIdentity(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.activity.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": entries})
}

// MyDashboard returns the requester's overview
func (h *Handler) MyDashboard(c *gin.Context) {
	userID, _ := requesterIdentity(c)

	dashboard, err := h.statsService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// ==================== Payment Handlers ====================

// ListCreditPackages returns the purchasable credit bundles
func (h *Handler) ListCreditPackages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packages": service.CreditPackages})
}

// Checkout starts a credit purchase
func (h *Handler) Checkout(c *gin.Context) {
	userID, _ := requesterIdentity(c)

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.paymentService.Checkout(c.Request.Context(), userID, req.CreditPackageID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListPayments returns the requester's payment history
func (h *Handler) ListPayments(c *gin.Context) {
	userID, _ := requesterIdentity(c)

	payments, err := h.paymentService.History(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	infos := make([]*models.PaymentInfo, 0, len(payments))
	for _, p := range payments {
		infos = append(infos, &models.PaymentInfo{
			ID:            p.ID,
			Amount:        p.Amount,
			Currency:      p.Currency,
			CreditsAmount: p.CreditsAmount,
			Status:        p.Status,
			CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"payments": infos})
}

// PaymentWebhook handles provider callbacks (internal secret guarded)
func (h *Handler) PaymentWebhook(c *gin.Context) {
	var event models.PaymentWebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), &event); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ==================== Ticket Handlers ====================

// CreateTicket opens a support ticket
func (h *Handler) CreateTicket(c *gin.Context) {
	userID, _ := requesterIdentity(c)

	var req models.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ticket_id": ticket.ID})
}

// ListTickets lists the requester's tickets (admins see all)
func (h *Handler) ListTickets(c *gin.Context) {
	userID, isAdmin := requesterIdentity(c)

	tickets, err := h.ticketService.ListFor(c.Request.Context(), userID, isAdmin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// GetTicket returns a ticket and its message thread
func (h *Handler) GetTicket(c *gin.Context) {
	userID, isAdmin := requesterIdentity(c)

	ticket, msgs, err := h.ticketService.Get(c.Request.Context(), userID, isAdmin, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket": ticket, "messages": msgs})
}

// ReplyTicket appends a message to a ticket
func (h *Handler) ReplyTicket(c *gin.Context) {
	userID, isAdmin := requesterIdentity(c)

	var req models.TicketReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ticketService.Reply(c.Request.Context(), userID, isAdmin, c.Param("id"), req.Message); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateTicketStatus changes a ticket's status
func (h *Handler) UpdateTicketStatus(c *gin.Context) {
	userID, isAdmin := requesterIdentity(c)

	var req models.TicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ticketService.UpdateStatus(c.Request.Context(), userID, isAdmin, c.Param("id"), req.Status); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ==================== DTO converters ====================

func toServerInfo(srv *models.Server) *models.ServerInfo {
	return &models.ServerInfo{
		ID:            srv.ID,
		UserID:        srv.UserID,
		NodeID:        srv.NodeID,
		PackageID:     srv.PackageID,
		Name:          srv.Name,
		Description:   srv.Description,
		ServerType:    srv.ServerType,
		ImageTag:      srv.ImageTag,
		AllocatedRam:  srv.AllocatedRam,
		AllocatedDisk: srv.AllocatedDisk,
		AllocatedCpu:  srv.AllocatedCpu,
		Status:        srv.Status,
		BillingCycle:  srv.BillingCycle,
		LastBilledAt:  srv.LastBilledAt.Format(time.RFC3339),
		ExpiresAt:     srv.ExpiresAt.Format(time.RFC3339),
		CreatedAt:     srv.CreatedAt.Format(time.RFC3339),
	}
}

func toNodeInfo(node *models.Node, withConnection bool) *models.NodeInfo {
	info := &models.NodeInfo{
		ID:        node.ID,
		Name:      node.Name,
		Location:  node.Location,
		TotalRam:  node.TotalRam,
		TotalDisk: node.TotalDisk,
		TotalCpu:  node.TotalCpu,
		UsedRam:   node.UsedRam,
		UsedDisk:  node.UsedDisk,
		UsedCpu:   node.UsedCpu,
		Status:    node.Status,
		IsPublic:  node.IsPublic,
		CreatedAt: node.CreatedAt.Format(time.RFC3339),
	}
	if withConnection {
		info.IPAddress = node.IPAddress
		info.Port = node.Port
	}
	return info
}

func toTransactionInfo(entry *models.CreditTransaction) *models.TransactionInfo {
	return &models.TransactionInfo{
		ID:              entry.ID,
		Amount:          entry.Amount,
		Type:            entry.Type,
		Description:     entry.Description,
		BalanceBefore:   entry.BalanceBefore,
		BalanceAfter:    entry.BalanceAfter,
		RelatedServerID: entry.RelatedServerID,
		CreatedAt:       entry.CreatedAt.Format(time.RFC3339),
	}
}

func toUserInfo(user *models.User) *models.UserInfo {
	info := &models.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Credits:   user.Credits,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastSignedIn != nil {
		info.LastSignedIn = user.LastSignedIn.Format(time.RFC3339)
	}
	return info
}
