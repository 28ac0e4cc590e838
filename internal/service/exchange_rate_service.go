package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"marketplace/internal/apperr"
	"marketplace/internal/logger"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SetManualRateRequest struct {
	Rate string `json:"rate" binding:"required"` // Units of currency per one base unit
}

type SetMarkupRequest struct {
	MarkupPercent string `json:"markup_percent" binding:"required"`
}

type ExchangeRateResponse struct {
	Currency      string  `json:"currency"`
	APIRate       string  `json:"api_rate"`
	ManualRate    *string `json:"manual_rate"`
	UseManual     bool    `json:"use_manual"`
	MarkupPercent string  `json:"markup_percent"`
	Source        string  `json:"source"`
	EffectiveRate *string `json:"effective_rate"`
	FetchedAt     *string `json:"fetched_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type ConvertResponse struct {
	Amount    string `json:"amount"`
	From      string `json:"from"`
	To        string `json:"to"`
	Converted string `json:"converted"`
}

type RefreshResult struct {
	BaseCurrency string `json:"base_currency"`
	Updated      int    `json:"updated"`
	FetchedAt    string `json:"fetched_at"`
}

// RateProvider supplies the latest provider rates relative to a base currency
type RateProvider interface {
	LatestRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// --- Interface ---

type ExchangeRateService interface {
	BaseCurrency() string
	ListRates(ctx context.Context) ([]ExchangeRateResponse, error)
	GetEffectiveRate(ctx context.Context, currency string) (decimal.Decimal, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
	SetManualRate(ctx context.Context, currency string, req SetManualRateRequest, userID string) (ExchangeRateResponse, error)
	ClearManualRate(ctx context.Context, currency string, userID string) (ExchangeRateResponse, error)
	SetMarkup(ctx context.Context, currency string, req SetMarkupRequest, userID string) (ExchangeRateResponse, error)
	RefreshFromProvider(ctx context.Context, userID string) (RefreshResult, error)
}

type exchangeRateService struct {
	repo      repository.ExchangeRateRepository
	txManager repository.TransactionManager
	provider  RateProvider
	base      string
	memo      *gocache.Cache
	audit     auditRecorder
	events    EventPublisher
	log       *logger.Logger
}

func NewExchangeRateService(
	repo repository.ExchangeRateRepository,
	txManager repository.TransactionManager,
	provider RateProvider,
	baseCurrency string,
	memoTTL time.Duration,
	auditRepo repository.AuditRepository,
	events EventPublisher,
	log *logger.Logger,
) ExchangeRateService {
	if events == nil {
		events = noopPublisher{}
	}
	return &exchangeRateService{
		repo:      repo,
		txManager: txManager,
		provider:  provider,
		base:      strings.ToUpper(strings.TrimSpace(baseCurrency)),
		memo:      gocache.New(memoTTL, 2*memoTTL),
		audit:     auditRecorder{repo: auditRepo, log: log},
		events:    events,
		log:       log,
	}
}

func (s *exchangeRateService) BaseCurrency() string {
	return s.base
}

func (s *exchangeRateService) ListRates(ctx context.Context) ([]ExchangeRateResponse, error) {
	rates, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Database(err, "failed to fetch exchange rates")
	}
	return lo.Map(rates, func(r model.ExchangeRate, _ int) ExchangeRateResponse {
		return toExchangeRateResponse(r)
	}), nil
}

// GetEffectiveRate returns units of currency per base unit after overrides and markup.
// The base currency is always 1.
func (s *exchangeRateService) GetEffectiveRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	code, err := normalizeCurrency(currency)
	if err != nil {
		return decimal.Zero, err
	}
	if code == s.base {
		return decimal.NewFromInt(1), nil
	}

	if cached, ok := s.memo.Get(code); ok {
		return cached.(decimal.Decimal), nil
	}

	rate, err := s.repo.FindByCurrency(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, apperr.NotFound("no exchange rate for %s", code)
		}
		return decimal.Zero, apperr.Database(err, "failed to fetch exchange rate")
	}

	effective, ok := rate.EffectiveRate()
	if !ok {
		return decimal.Zero, apperr.NotFound("no usable exchange rate for %s", code)
	}

	s.memo.Set(code, effective, gocache.DefaultExpiration)
	return effective, nil
}

// Convert moves an amount between currencies through the base currency.
// Empty currency codes mean the base currency.
func (s *exchangeRateService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if strings.TrimSpace(from) == "" {
		from = s.base
	}
	if strings.TrimSpace(to) == "" {
		to = s.base
	}
	if strings.EqualFold(strings.TrimSpace(from), strings.TrimSpace(to)) {
		return amount, nil
	}

	fromRate, err := s.GetEffectiveRate(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := s.GetEffectiveRate(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}

	return amount.Div(fromRate).Mul(toRate), nil
}

func (s *exchangeRateService) SetManualRate(ctx context.Context, currency string, req SetManualRateRequest, userID string) (ExchangeRateResponse, error) {
	code, err := s.nonBaseCurrency(currency)
	if err != nil {
		return ExchangeRateResponse{}, err
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(req.Rate))
	if err != nil || !rate.IsPositive() {
		return ExchangeRateResponse{}, apperr.Validation("rate must be a positive decimal, got %q", req.Rate)
	}

	record, err := s.findOrNew(ctx, code)
	if err != nil {
		return ExchangeRateResponse{}, err
	}
	record.ManualRate = &rate
	record.UseManual = true

	return s.save(ctx, record, model.ActionSetManualRate, userID, req)
}

func (s *exchangeRateService) ClearManualRate(ctx context.Context, currency string, userID string) (ExchangeRateResponse, error) {
	code, err := s.nonBaseCurrency(currency)
	if err != nil {
		return ExchangeRateResponse{}, err
	}

	record, err := s.repo.FindByCurrency(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExchangeRateResponse{}, apperr.NotFound("no exchange rate for %s", code)
		}
		return ExchangeRateResponse{}, apperr.Database(err, "failed to fetch exchange rate")
	}
	record.ManualRate = nil
	record.UseManual = false

	return s.save(ctx, record, model.ActionClearManualRate, userID, map[string]string{"currency": code})
}

func (s *exchangeRateService) SetMarkup(ctx context.Context, currency string, req SetMarkupRequest, userID string) (ExchangeRateResponse, error) {
	code, err := s.nonBaseCurrency(currency)
	if err != nil {
		return ExchangeRateResponse{}, err
	}
	markup, err := decimal.NewFromString(strings.TrimSpace(req.MarkupPercent))
	if err != nil || markup.IsNegative() || markup.GreaterThan(hundred) {
		return ExchangeRateResponse{}, apperr.Validation("markup_percent must be between 0 and 100, got %q", req.MarkupPercent)
	}

	record, err := s.findOrNew(ctx, code)
	if err != nil {
		return ExchangeRateResponse{}, err
	}
	record.MarkupPercent = markup

	return s.save(ctx, record, model.ActionSetMarkup, userID, req)
}

// RefreshFromProvider stores the latest provider rates. Only api_rate and
// fetched_at change; manual overrides and markups are kept.
func (s *exchangeRateService) RefreshFromProvider(ctx context.Context, userID string) (RefreshResult, error) {
	if s.provider == nil {
		return RefreshResult{}, apperr.Upstream(errors.New("no provider configured"), "exchange rate refresh unavailable")
	}

	latest, err := s.provider.LatestRates(ctx, s.base)
	if err != nil {
		s.log.WithContext(ctx).Warnw("exchange rate refresh failed", "base", s.base, "error", err)
		return RefreshResult{}, apperr.Upstream(err, "failed to fetch exchange rates")
	}

	codes := lo.Keys(latest)
	sort.Strings(codes)

	fetchedAt := time.Now().UTC()
	updated := 0
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, raw := range codes {
			code, err := normalizeCurrency(raw)
			if err != nil || code == s.base || !latest[raw].IsPositive() {
				continue
			}
			if err := s.repo.UpsertAPIRate(txCtx, code, latest[raw], fetchedAt); err != nil {
				return apperr.Database(err, "failed to store exchange rate "+code)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return RefreshResult{}, err
	}

	s.memo.Flush()

	result := RefreshResult{
		BaseCurrency: s.base,
		Updated:      updated,
		FetchedAt:    fetchedAt.Format(time.RFC3339),
	}
	s.audit.record(ctx, userID, model.ActionRefreshExchangeRates, "", s.base, result)
	s.events.Publish(EventExchangeRatesUpdated, result)

	s.log.WithContext(ctx).Infow("exchange rates refreshed", "base", s.base, "updated", updated)
	return result, nil
}

// --- Helpers ---

func (s *exchangeRateService) save(ctx context.Context, record *model.ExchangeRate, action, userID string, details interface{}) (ExchangeRateResponse, error) {
	if err := s.repo.Save(ctx, record); err != nil {
		return ExchangeRateResponse{}, apperr.Database(err, "failed to save exchange rate")
	}
	s.memo.Flush()

	resp := toExchangeRateResponse(*record)
	s.audit.record(ctx, userID, action, record.ID.String(), record.Currency, details)
	s.events.Publish(EventExchangeRatesUpdated, resp)

	return resp, nil
}

func (s *exchangeRateService) findOrNew(ctx context.Context, code string) (*model.ExchangeRate, error) {
	record, err := s.repo.FindByCurrency(ctx, code)
	if err == nil {
		return record, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.ExchangeRate{Currency: code}, nil
	}
	return nil, apperr.Database(err, "failed to fetch exchange rate")
}

func (s *exchangeRateService) nonBaseCurrency(currency string) (string, error) {
	code, err := normalizeCurrency(currency)
	if err != nil {
		return "", err
	}
	if code == s.base {
		return "", apperr.Validation("%s is the base currency and always has rate 1", code)
	}
	return code, nil
}

func normalizeCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", apperr.Validation("currency must be a 3-letter code, got %q", currency)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", apperr.Validation("currency must be a 3-letter code, got %q", currency)
		}
	}
	return code, nil
}

func toExchangeRateResponse(r model.ExchangeRate) ExchangeRateResponse {
	resp := ExchangeRateResponse{
		Currency:      r.Currency,
		APIRate:       r.APIRate.String(),
		UseManual:     r.UseManual,
		MarkupPercent: r.MarkupPercent.StringFixed(2),
		Source:        r.Source(),
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ManualRate != nil {
		v := r.ManualRate.String()
		resp.ManualRate = &v
	}
	if eff, ok := r.EffectiveRate(); ok {
		v := eff.String()
		resp.EffectiveRate = &v
	}
	if r.FetchedAt != nil {
		v := r.FetchedAt.Format(time.RFC3339)
		resp.FetchedAt = &v
	}
	return resp
}
