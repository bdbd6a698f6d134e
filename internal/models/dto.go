package models

// ==================== Server DTOs ====================

// CreateServerRequest is sent by a user to create a server
type CreateServerRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	NodeID       string `json:"node_id" binding:"required"`
	PackageID    string `json:"package_id" binding:"required"`
	ServerType   string `json:"server_type" binding:"required"`
	ImageTag     string `json:"image_tag" binding:"required"`
	BillingCycle string `json:"billing_cycle"` // hourly / daily / monthly, 默认 monthly
}

// CreateServerResponse is returned after a successful create
type CreateServerResponse struct {
	ServerID  string `json:"server_id"`
	Status    string `json:"status"`
	Cost      int64  `json:"cost"`
	ExpiresAt string `json:"expires_at"`
}

// ServerActionRequest is a power action on a server
type ServerActionRequest struct {
	Action string `json:"action" binding:"required"` // start / stop / restart / reinstall
}

// ServerActionResponse is returned after a power action
type ServerActionResponse struct {
	ServerID string `json:"server_id"`
	Status   string `json:"status"`
}

// ServerInfo is the API view of a server
type ServerInfo struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	NodeID        string `json:"node_id"`
	PackageID     string `json:"package_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ServerType    string `json:"server_type"`
	ImageTag      string `json:"image_tag"`
	AllocatedRam  int64  `json:"allocated_ram"`
	AllocatedDisk int64  `json:"allocated_disk"`
	AllocatedCpu  int64  `json:"allocated_cpu"`
	Status        string `json:"status"`
	BillingCycle  string `json:"billing_cycle"`
	LastBilledAt  string `json:"last_billed_at"`
	ExpiresAt     string `json:"expires_at"`
	CreatedAt     string `json:"created_at"`
}

// ==================== Node DTOs ====================

// CreateNodeRequest is an admin request to register a node
type CreateNodeRequest struct {
	Name      string `json:"name" binding:"required"`
	Location  string `json:"location" binding:"required"`
	IPAddress string `json:"ip_address" binding:"required"`
	Port      int    `json:"port"`
	TotalRam  int64  `json:"total_ram" binding:"required"`
	TotalDisk int64  `json:"total_disk" binding:"required"`
	TotalCpu  int64  `json:"total_cpu" binding:"required"`
	IsPublic  *bool  `json:"is_public"`
}

// UpdateNodeRequest is an admin request to update a node; nil fields are
// left unchanged
type UpdateNodeRequest struct {
	Name      *string `json:"name"`
	Location  *string `json:"location"`
	IPAddress *string `json:"ip_address"`
	Port      *int    `json:"port"`
	TotalRam  *int64  `json:"total_ram"`
	TotalDisk *int64  `json:"total_disk"`
	TotalCpu  *int64  `json:"total_cpu"`
	Status    *string `json:"status"`
	IsPublic  *bool   `json:"is_public"`
}

// NodeInfo is the API view of a node
type NodeInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	IPAddress string `json:"ip_address,omitempty"` // 仅管理员可见
	Port      int    `json:"port,omitempty"`
	TotalRam  int64  `json:"total_ram"`
	TotalDisk int64  `json:"total_disk"`
	TotalCpu  int64  `json:"total_cpu"`
	UsedRam   int64  `json:"used_ram"`
	UsedDisk  int64  `json:"used_disk"`
	UsedCpu   int64  `json:"used_cpu"`
	Status    string `json:"status"`
	IsPublic  bool   `json:"is_public"`
	CreatedAt string `json:"created_at"`
}

// ==================== Package DTOs ====================

// CreatePackageRequest is an admin request to create a package
type CreatePackageRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Ram           int64  `json:"ram" binding:"required"`
	Disk          int64  `json:"disk" binding:"required"`
	Cpu           int64  `json:"cpu" binding:"required"`
	Databases     int    `json:"databases"`
	Backups       int    `json:"backups"`
	PricePerHour  int64  `json:"price_per_hour"`
	PricePerDay   int64  `json:"price_per_day"`
	PricePerMonth int64  `json:"price_per_month"`
	IsActive      *bool  `json:"is_active"`
}

// UpdatePackageRequest is an admin request to update a package
type UpdatePackageRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Ram           *int64  `json:"ram"`
	Disk          *int64  `json:"disk"`
	Cpu           *int64  `json:"cpu"`
	Databases     *int    `json:"databases"`
	Backups       *int    `json:"backups"`
	PricePerHour  *int64  `json:"price_per_hour"`
	PricePerDay   *int64  `json:"price_per_day"`
	PricePerMonth *int64  `json:"price_per_month"`
	IsActive      *bool   `json:"is_active"`
}

// ==================== Admin DTOs ====================

// AdjustCreditsRequest sets a user's balance to a new value; the delta is
// routed through the ledger as an admin adjustment
type AdjustCreditsRequest struct {
	Credits int64  `json:"credits" binding:"min=0"`
	Reason  string `json:"reason"`
}

// SetRoleRequest changes a user's role
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// UserInfo is the admin view of a user
type UserInfo struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Credits      int64  `json:"credits"`
	LastSignedIn string `json:"last_signed_in,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// ==================== Ledger DTOs ====================

// CreditsResponse is the current balance of the requesting user
type CreditsResponse struct {
	Credits int64 `json:"credits"`
}

// TransactionInfo is the API view of a ledger entry
type TransactionInfo struct {
	ID              string  `json:"id"`
	Amount          int64   `json:"amount"`
	Type            string  `json:"type"`
	Description     string  `json:"description"`
	BalanceBefore   int64   `json:"balance_before"`
	BalanceAfter    int64   `json:"balance_after"`
	RelatedServerID *string `json:"related_server_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// ==================== Payment DTOs ====================

// CheckoutRequest starts a credit purchase
type CheckoutRequest struct {
	CreditPackageID string `json:"credit_package_id" binding:"required"`
}

// CheckoutResponse is returned after a checkout is registered
type CheckoutResponse struct {
	PaymentID string `json:"payment_id"`
	Credits   int64  `json:"credits"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// PaymentWebhookEvent is delivered by the payment provider
type PaymentWebhookEvent struct {
	EventID   string `json:"event_id" binding:"required"`
	EventType string `json:"event_type" binding:"required"` // checkout.completed / payment.failed
	PaymentID string `json:"payment_id"`
	UserID    string `json:"user_id"`
	Credits   int64  `json:"credits"`
}

// PaymentInfo is the API view of a payment
type PaymentInfo struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	CreditsAmount int64  `json:"credits_amount"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// ==================== Ticket DTOs ====================

// CreateTicketRequest opens a support ticket
type CreateTicketRequest struct {
	Subject         string  `json:"subject" binding:"required"`
	Message         string  `json:"message" binding:"required"`
	Priority        string  `json:"priority"` // low / medium / high / urgent, 默认 medium
	Category        string  `json:"category" binding:"required"`
	RelatedServerID *string `json:"related_server_id"`
}

// TicketReplyRequest adds a message to a ticket
type TicketReplyRequest struct {
	Message string `json:"message" binding:"required"`
}

// TicketStatusRequest changes a ticket's status
type TicketStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open in_progress waiting_user closed"`
}

// ==================== Stats DTOs ====================

// SystemStats is the admin overview
type SystemStats struct {
	TotalUsers           int64 `json:"total_users"`
	TotalNodes           int64 `json:"total_nodes"`
	TotalServers         int64 `json:"total_servers"`
	RunningServers       int64 `json:"running_servers"`
	OpenTickets          int64 `json:"open_tickets"`
	CreditsInCirculation int64 `json:"credits_in_circulation"`
	TotalRam             int64 `json:"total_ram"`
	UsedRam              int64 `json:"used_ram"`
	TotalDisk            int64 `json:"total_disk"`
	UsedDisk             int64 `json:"used_disk"`
	TotalCpu             int64 `json:"total_cpu"`
	UsedCpu              int64 `json:"used_cpu"`
}

// UserDashboard is the per-user overview
type UserDashboard struct {
	TotalServers   int   `json:"total_servers"`
	RunningServers int   `json:"running_servers"`
	Credits        int64 `json:"credits"`
	OpenTickets    int   `json:"open_tickets"`
}
