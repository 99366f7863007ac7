//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/domain/ports/adapter"
	"servido-backend/internal/domain/ports/repository"
	"servido-backend/internal/usecase"
)

func newTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// =============================
// Repositories
// =============================

// MockProductRepo is a small in-memory product catalog for unit tests.
type MockProductRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Product

	FindByIDFunc       func(ctx context.Context, tx repository.Tx, id string) (*model.Product, error)
	DecrementStockFunc func(ctx context.Context, tx repository.Tx, id string, quantity int) (bool, error)
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{store: make(map[string]*model.Product)}
}

func (m *MockProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProductRepo) List(ctx context.Context, tx repository.Tx, filter model.ProductFilter) ([]*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Product
	for _, p := range m.store {
		if filter.SellerID != "" && p.SellerID != filter.SellerID {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockProductRepo) Update(ctx context.Context, tx repository.Tx, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockProductRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

// DecrementStock mirrors the conditional update of the real repo.
func (m *MockProductRepo) DecrementStock(ctx context.Context, tx repository.Tx, id string, quantity int) (bool, error) {
	if m.DecrementStockFunc != nil {
		return m.DecrementStockFunc(ctx, tx, id, quantity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Stock == nil {
		return true, nil
	}
	if *p.Stock < quantity {
		return false, nil
	}
	*p.Stock -= quantity
	return true, nil
}

// MockServiceRepo backs catalog service tests.
type MockServiceRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Service
}

var _ repository.ServiceRepository = (*MockServiceRepo)(nil)

func NewMockServiceRepo() *MockServiceRepo {
	return &MockServiceRepo{store: make(map[string]*model.Service)}
}

func (m *MockServiceRepo) Save(ctx context.Context, tx repository.Tx, s *model.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockServiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockServiceRepo) ListBySeller(ctx context.Context, tx repository.Tx, sellerID string) ([]*model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Service
	for _, s := range m.store {
		if sellerID != "" && s.SellerID != sellerID {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockServiceRepo) Update(ctx context.Context, tx repository.Tx, s *model.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockServiceRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

// MockPendingRepo keys pending purchases by purchase id; Delete on a
// missing id returns ErrNotFound, same as the real repo.
type MockPendingRepo struct {
	mu    sync.RWMutex
	store map[string]*model.PendingPurchase

	SaveFunc   func(ctx context.Context, tx repository.Tx, p *model.PendingPurchase) error
	DeleteFunc func(ctx context.Context, tx repository.Tx, id string) error
}

var _ repository.PendingPurchaseRepository = (*MockPendingRepo)(nil)

func NewMockPendingRepo() *MockPendingRepo {
	return &MockPendingRepo{store: make(map[string]*model.PendingPurchase)}
}

func (m *MockPendingRepo) Save(ctx context.Context, tx repository.Tx, p *model.PendingPurchase) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPendingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PendingPurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPendingRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockPendingRepo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// MockPurchaseRepo captures archived purchases.
type MockPurchaseRepo struct {
	mu    sync.RWMutex
	Saved []*model.Purchase

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Purchase) error
}

var _ repository.PurchaseRepository = (*MockPurchaseRepo)(nil)

func NewMockPurchaseRepo() *MockPurchaseRepo { return &MockPurchaseRepo{} }

func (m *MockPurchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.Saved = append(m.Saved, &cp)
	return nil
}

func (m *MockPurchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.Saved {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPurchaseRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]*model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Purchase
	for _, p := range m.Saved {
		if p.BuyerID == buyerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockFailedRepo captures settlement-time stock shortfall records.
type MockFailedRepo struct {
	mu    sync.RWMutex
	Saved []*model.FailedPurchaseLine
}

var _ repository.FailedPurchaseRepository = (*MockFailedRepo)(nil)

func NewMockFailedRepo() *MockFailedRepo { return &MockFailedRepo{} }

func (m *MockFailedRepo) Save(ctx context.Context, tx repository.Tx, f *model.FailedPurchaseLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.Saved = append(m.Saved, &cp)
	return nil
}

func (m *MockFailedRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]*model.FailedPurchaseLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.FailedPurchaseLine
	for _, f := range m.Saved {
		if f.BuyerID == buyerID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockUserRepo keeps users in memory and records seller-role upserts.
type MockUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User

	UpsertCalls []string

	UpsertRoleFunc func(ctx context.Context, tx repository.Tx, id string, role model.UserRole, snap *model.SubscriptionSnapshot) error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[string]*model.User)}
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) MergeUpdate(ctx context.Context, tx repository.Tx, id string, patch model.UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (m *MockUserRepo) UpsertRole(ctx context.Context, tx repository.Tx, id string, role model.UserRole, snap *model.SubscriptionSnapshot) error {
	if m.UpsertRoleFunc != nil {
		return m.UpsertRoleFunc(ctx, tx, id, role, snap)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls = append(m.UpsertCalls, id)
	u, ok := m.store[id]
	if !ok {
		u = &model.User{ID: id, CreatedAt: time.Now()}
		m.store[id] = u
	}
	u.Role = role
	u.Subscription = snap
	u.IsSubscribed = snap != nil && snap.Status == model.SubscriptionStatusActive
	u.UpdatedAt = time.Now()
	return nil
}

// MockSubRepo holds subscriptions keyed by id.
type MockSubRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Subscription
}

var _ repository.SubscriptionRepository = (*MockSubRepo)(nil)

func NewMockSubRepo() *MockSubRepo {
	return &MockSubRepo{store: make(map[string]*model.Subscription)}
}

func (m *MockSubRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSubRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var newest *model.Subscription
	for _, s := range m.store {
		if s.UserID != userID || s.Status != model.SubscriptionStatusActive {
			continue
		}
		if newest == nil || s.EndDate.After(newest.EndDate) {
			newest = s
		}
	}
	if newest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (m *MockSubRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.SubscriptionStatus, autoRenew bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	s.AutoRenew = autoRenew
	s.UpdatedAt = time.Now()
	return nil
}

func (m *MockSubRepo) ListOverdue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive && now.After(s.EndDate) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubRepo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

func (m *MockSubRepo) Get(id string) *model.Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.store[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// MockTxnRepo captures audit transactions.
type MockTxnRepo struct {
	mu    sync.RWMutex
	Saved []*model.Transaction
}

var _ repository.TransactionRepository = (*MockTxnRepo)(nil)

func NewMockTxnRepo() *MockTxnRepo { return &MockTxnRepo{} }

func (m *MockTxnRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.Saved = append(m.Saved, &cp)
	return nil
}

func (m *MockTxnRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Transaction
	for _, t := range m.Saved {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// =============================
// Adapters
// =============================

// MockPaymentGateway records preference requests and serves canned
// payment lookups.
type MockPaymentGateway struct {
	mu       sync.Mutex
	Requests []adapter.PreferenceRequest
	Payments map[string]*adapter.PaymentInfo

	CreatePreferenceFunc func(ctx context.Context, req adapter.PreferenceRequest) (*adapter.Preference, error)
	GetPaymentFunc       func(ctx context.Context, paymentID string) (*adapter.PaymentInfo, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{Payments: make(map[string]*adapter.PaymentInfo)}
}

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) CreatePreference(ctx context.Context, req adapter.PreferenceRequest) (*adapter.Preference, error) {
	if m.CreatePreferenceFunc != nil {
		return m.CreatePreferenceFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	return &adapter.Preference{ID: "pref-1", RedirectURL: "https://checkout.example/pref-1"}, nil
}

func (m *MockPaymentGateway) GetPayment(ctx context.Context, paymentID string) (*adapter.PaymentInfo, error) {
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, paymentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.Payments[paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *info
	return &cp, nil
}

// MockLocker grants every lock unless told otherwise.
type MockLocker struct {
	mu      sync.Mutex
	Locked  []string
	DenyAll bool
}

var _ usecase.Locker = (*MockLocker)(nil)

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DenyAll {
		return "", domain.ErrLockUnavailable
	}
	m.Locked = append(m.Locked, key)
	return "token", nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error { return nil }

type noTx struct{}

// MockTxManager runs the callback without a real transaction.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, noTx{})
}
