package service

import (
	"context"
	"sync"
	"time"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockCountryVATRepository struct {
	mock.Mock
}

func (m *MockCountryVATRepository) Create(ctx context.Context, rate *model.CountryVAT) error {
	args := m.Called(ctx, rate)
	if args.Error(0) == nil && rate.ID == uuid.Nil {
		rate.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockCountryVATRepository) Update(ctx context.Context, rate *model.CountryVAT) error {
	return m.Called(ctx, rate).Error(0)
}

func (m *MockCountryVATRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCountryVATRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CountryVAT, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CountryVAT), args.Error(1)
}

func (m *MockCountryVATRepository) FindByCountry(ctx context.Context, country string) (*model.CountryVAT, error) {
	args := m.Called(ctx, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CountryVAT), args.Error(1)
}

func (m *MockCountryVATRepository) ListActive(ctx context.Context) ([]model.CountryVAT, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CountryVAT), args.Error(1)
}

func (m *MockCountryVATRepository) ListAll(ctx context.Context) ([]model.CountryVAT, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CountryVAT), args.Error(1)
}

func (m *MockCountryVATRepository) CountActiveByCountry(ctx context.Context, country string, excludeID *uuid.UUID) (int64, error) {
	args := m.Called(ctx, country, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) FindTaxAttributes(ctx context.Context, ids []uuid.UUID) ([]model.ProductTaxAttributes, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductTaxAttributes), args.Error(1)
}

func (m *MockProductRepository) UpdateTaxExempt(ctx context.Context, id uuid.UUID, exempt bool) (int64, error) {
	args := m.Called(ctx, id, exempt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) UpdateTaxInclusive(ctx context.Context, id uuid.UUID, inclusive bool) (int64, error) {
	args := m.Called(ctx, id, inclusive)
	return args.Get(0).(int64), args.Error(1)
}

type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) List(ctx context.Context) ([]model.ExchangeRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) FindByCurrency(ctx context.Context, currency string) (*model.ExchangeRate, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) Save(ctx context.Context, rate *model.ExchangeRate) error {
	return m.Called(ctx, rate).Error(0)
}

func (m *MockExchangeRateRepository) UpsertAPIRate(ctx context.Context, currency string, rate decimal.Decimal, fetchedAt time.Time) error {
	return m.Called(ctx, currency, rate, fetchedAt).Error(0)
}

// fakeAuditRepository records entries in memory
type fakeAuditRepository struct {
	mu      sync.Mutex
	entries []model.AuditLog
	err     error
}

func (f *fakeAuditRepository) Log(_ context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepository) List(_ context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AuditLog
	for _, e := range f.entries {
		if action == "" || e.Action == action {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAuditRepository) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// passthroughTx runs the callback with the caller's context
type passthroughTx struct {
	calls int
}

func (p *passthroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) published() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type stubProvider struct {
	rates map[string]decimal.Decimal
	err   error
}

func (s stubProvider) LatestRates(_ context.Context, _ string) (map[string]decimal.Decimal, error) {
	return s.rates, s.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
