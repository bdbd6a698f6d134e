package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
	"github.com/wenwu/saas-platform/panel-service/internal/repository"
)

// In-memory stand-ins for the repository layer. They reproduce the same
// semantics the SQL implementations provide (row locking becomes a
// mutex, conditional updates become compare-and-set) so the services can
// be exercised concurrently without a database.

type fakeCapacityStore struct {
	mu    sync.Mutex
	nodes map[string]*models.Node
}

func newFakeCapacityStore(nodes ...*models.Node) *fakeCapacityStore {
	s := &fakeCapacityStore{nodes: make(map[string]*models.Node)}
	for _, n := range nodes {
		s.nodes[n.ID] = n
	}
	return s
}

func (s *fakeCapacityStore) Reserve(ctx context.Context, nodeID string, ram, disk, cpu int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[nodeID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	var deficient []string
	if node.UsedRam+ram > node.TotalRam {
		deficient = append(deficient, "ram")
	}
	if node.UsedDisk+disk > node.TotalDisk {
		deficient = append(deficient, "disk")
	}
	if node.UsedCpu+cpu > node.TotalCpu {
		deficient = append(deficient, "cpu")
	}
	if len(deficient) > 0 {
		return deficient, nil
	}

	node.UsedRam += ram
	node.UsedDisk += disk
	node.UsedCpu += cpu
	return nil, nil
}

func (s *fakeCapacityStore) Release(ctx context.Context, nodeID string, ram, disk, cpu int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[nodeID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	var clamped []string
	if node.UsedRam-ram < 0 {
		node.UsedRam = 0
		clamped = append(clamped, "ram")
	} else {
		node.UsedRam -= ram
	}
	if node.UsedDisk-disk < 0 {
		node.UsedDisk = 0
		clamped = append(clamped, "disk")
	} else {
		node.UsedDisk -= disk
	}
	if node.UsedCpu-cpu < 0 {
		node.UsedCpu = 0
		clamped = append(clamped, "cpu")
	} else {
		node.UsedCpu -= cpu
	}
	return clamped, nil
}

func (s *fakeCapacityStore) node(nodeID string) *models.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[nodeID]
}

type fakeLedgerStore struct {
	mu       sync.Mutex
	balances map[string]int64
	entries  []*models.CreditTransaction
	applyErr error
}

func newFakeLedgerStore(balances map[string]int64) *fakeLedgerStore {
	if balances == nil {
		balances = make(map[string]int64)
	}
	return &fakeLedgerStore{balances: balances}
}

func (s *fakeLedgerStore) Apply(ctx context.Context, userID string, amount int64, txType, description string, relatedServerID *string) (*models.CreditTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applyErr != nil {
		return nil, s.applyErr
	}

	before, ok := s.balances[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	after := before + amount
	if after < 0 {
		return nil, repository.ErrInsufficientBalance
	}

	entry := &models.CreditTransaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		Amount:          amount,
		Type:            txType,
		Description:     description,
		BalanceBefore:   before,
		BalanceAfter:    after,
		RelatedServerID: relatedServerID,
		CreatedAt:       time.Now(),
	}
	s.balances[userID] = after
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *fakeLedgerStore) ListByUser(ctx context.Context, userID string, limit int) ([]*models.CreditTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.CreditTransaction
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].UserID == userID {
			out = append(out, s.entries[i])
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeLedgerStore) balance(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID]
}

func (s *fakeLedgerStore) entriesFor(userID string) []*models.CreditTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.CreditTransaction
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

type fakeServerStore struct {
	mu         sync.Mutex
	servers    map[string]*models.Server
	createErr  error
	createSeen int
}

func newFakeServerStore(servers ...*models.Server) *fakeServerStore {
	s := &fakeServerStore{servers: make(map[string]*models.Server)}
	for _, srv := range servers {
		s.servers[srv.ID] = srv
	}
	return s
}

func (s *fakeServerStore) Create(ctx context.Context, srv *models.Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createSeen++
	if s.createErr != nil {
		return s.createErr
	}
	cp := *srv
	s.servers[srv.ID] = &cp
	return nil
}

func (s *fakeServerStore) GetByID(ctx context.Context, id string) (*models.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	srv, ok := s.servers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *srv
	return &cp, nil
}

func (s *fakeServerStore) ListByUser(ctx context.Context, userID string) ([]*models.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Server
	for _, srv := range s.servers {
		if srv.UserID == userID {
			out = append(out, srv)
		}
	}
	return out, nil
}

func (s *fakeServerStore) List(ctx context.Context) ([]*models.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Server
	for _, srv := range s.servers {
		out = append(out, srv)
	}
	return out, nil
}

func (s *fakeServerStore) UpdateStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	srv, ok := s.servers[id]
	if !ok {
		return repository.ErrNotFound
	}
	srv.Status = status
	return nil
}

func (s *fakeServerStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.servers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.servers, id)
	return nil
}

func (s *fakeServerStore) CountByNode(ctx context.Context, nodeID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, srv := range s.servers {
		if srv.NodeID == nodeID {
			n++
		}
	}
	return n, nil
}

type fakePackageStore struct {
	mu       sync.Mutex
	packages map[string]*models.Package
}

func newFakePackageStore(pkgs ...*models.Package) *fakePackageStore {
	s := &fakePackageStore{packages: make(map[string]*models.Package)}
	for _, p := range pkgs {
		s.packages[p.ID] = p
	}
	return s
}

func (s *fakePackageStore) Create(ctx context.Context, pkg *models.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pkg.ID == "" {
		pkg.ID = uuid.New().String()
	}
	s.packages[pkg.ID] = pkg
	return nil
}

func (s *fakePackageStore) GetByID(ctx context.Context, id string) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pkg, ok := s.packages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return pkg, nil
}

func (s *fakePackageStore) List(ctx context.Context) ([]*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Package
	for _, p := range s.packages {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakePackageStore) ListActive(ctx context.Context) ([]*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Package
	for _, p := range s.packages {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePackageStore) Update(ctx context.Context, pkg *models.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[pkg.ID]; !ok {
		return repository.ErrNotFound
	}
	s.packages[pkg.ID] = pkg
	return nil
}

func (s *fakePackageStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.packages, id)
	return nil
}

type fakeNodeStore struct {
	capacity *fakeCapacityStore
}

func (s *fakeNodeStore) Create(ctx context.Context, node *models.Node) error {
	s.capacity.mu.Lock()
	defer s.capacity.mu.Unlock()
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	s.capacity.nodes[node.ID] = node
	return nil
}

func (s *fakeNodeStore) GetByID(ctx context.Context, id string) (*models.Node, error) {
	s.capacity.mu.Lock()
	defer s.capacity.mu.Unlock()
	node, ok := s.capacity.nodes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return node, nil
}

func (s *fakeNodeStore) List(ctx context.Context) ([]*models.Node, error) {
	s.capacity.mu.Lock()
	defer s.capacity.mu.Unlock()
	var out []*models.Node
	for _, n := range s.capacity.nodes {
		out = append(out, n)
	}
	return out, nil
}

func (s *fakeNodeStore) ListPublic(ctx context.Context) ([]*models.Node, error) {
	s.capacity.mu.Lock()
	defer s.capacity.mu.Unlock()
	var out []*models.Node
	for _, n := range s.capacity.nodes {
		if n.IsPublic {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeNodeStore) Update(ctx context.Context, node *models.Node) error {
	s.capacity.mu.Lock()
	defer s.capacity.mu.Unlock()
	if _, ok := s.capacity.nodes[node.ID]; !ok {
		return repository.ErrNotFound
	}
	s.capacity.nodes[node.ID] = node
	return nil
}

func (s *fakeNodeStore) Delete(ctx context.Context, id string) error {
	s.capacity.mu.Lock()
	defer s.capacity.mu.Unlock()
	if _, ok := s.capacity.nodes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.capacity.nodes, id)
	return nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) List(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *fakeUserStore) UpdateRole(ctx context.Context, id, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]*models.Payment)}
}

func (s *fakePaymentStore) Create(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	s.payments[payment.ID] = payment
	return nil
}

func (s *fakePaymentStore) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePaymentStore) ListByUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ClaimEvent mirrors the conditional UPDATE: the claim succeeds only if
// no event id is attached yet.
func (s *fakePaymentStore) ClaimEvent(ctx context.Context, paymentID, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if p.ProviderEventID != nil {
		return false, nil
	}
	p.ProviderEventID = &eventID
	p.Status = models.PaymentStatusCompleted
	return true, nil
}

func (s *fakePaymentStore) ReleaseClaim(ctx context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return repository.ErrNotFound
	}
	p.ProviderEventID = nil
	p.Status = models.PaymentStatusPending
	return nil
}

func (s *fakePaymentStore) MarkFailed(ctx context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = models.PaymentStatusFailed
	return nil
}

type fakeTicketStore struct {
	mu       sync.Mutex
	tickets  map[string]*models.Ticket
	messages map[string][]*models.TicketMessage
}

func newFakeTicketStore() *fakeTicketStore {
	return &fakeTicketStore{
		tickets:  make(map[string]*models.Ticket),
		messages: make(map[string][]*models.TicketMessage),
	}
}

func (s *fakeTicketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	s.tickets[ticket.ID] = ticket
	return nil
}

func (s *fakeTicketStore) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTicketStore) ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Ticket
	for _, t := range s.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTicketStore) List(ctx context.Context) ([]*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Ticket
	for _, t := range s.tickets {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeTicketStore) UpdateStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	return nil
}

func (s *fakeTicketStore) CreateMessage(ctx context.Context, msg *models.TicketMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	s.messages[msg.TicketID] = append(s.messages[msg.TicketID], msg)
	return nil
}

func (s *fakeTicketStore) ListMessages(ctx context.Context, ticketID string) ([]*models.TicketMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[ticketID], nil
}

type fakeActivityLog struct {
	mu      sync.Mutex
	actions []string
}

func (s *fakeActivityLog) Log(ctx context.Context, userID, action string, details map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, fmt.Sprintf("%s:%s", userID, action))
	return nil
}

func (s *fakeActivityLog) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}
