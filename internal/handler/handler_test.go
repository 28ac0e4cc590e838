package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace/internal/apperr"
	"marketplace/internal/middleware"
	"marketplace/internal/model"
	"marketplace/internal/service"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("handler-test-secret")

const adminSub = "3f1d2c4b-5a69-4e8f-9b0a-1c2d3e4f5a6b"

type MockTaxService struct {
	mock.Mock
}

func (m *MockTaxService) GetCountryVATRates(ctx context.Context, includeInactive bool) ([]service.CountryVATResponse, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.CountryVATResponse), args.Error(1)
}

func (m *MockTaxService) SaveCountryVATRate(ctx context.Context, id string, req service.SaveCountryVATRequest, userID string) (service.CountryVATResponse, error) {
	args := m.Called(ctx, id, req, userID)
	return args.Get(0).(service.CountryVATResponse), args.Error(1)
}

func (m *MockTaxService) DeleteCountryVATRate(ctx context.Context, id string, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockTaxService) ImportCountryVATRates(ctx context.Context, r io.Reader, userID string) (service.ImportResult, error) {
	args := m.Called(ctx, r, userID)
	return args.Get(0).(service.ImportResult), args.Error(1)
}

func (m *MockTaxService) ExportCountryVATRates(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTaxService) UpdateProductTaxExemption(ctx context.Context, productID string, exempt bool, userID string) error {
	return m.Called(ctx, productID, exempt, userID).Error(0)
}

func (m *MockTaxService) UpdateProductTaxInclusivity(ctx context.Context, productID string, inclusive bool, userID string) error {
	return m.Called(ctx, productID, inclusive, userID).Error(0)
}

func (m *MockTaxService) GetVATRate(ctx context.Context, country string) decimal.Decimal {
	return m.Called(ctx, country).Get(0).(decimal.Decimal)
}

func (m *MockTaxService) CalculateVAT(ctx context.Context, baseAmount decimal.Decimal, country string, productIDs []uuid.UUID) (model.TaxCalculation, error) {
	args := m.Called(ctx, baseAmount, country, productIDs)
	return args.Get(0).(model.TaxCalculation), args.Error(1)
}

func (m *MockTaxService) GetProductsTaxInfo(ctx context.Context, productIDs []uuid.UUID) map[uuid.UUID]model.ProductTaxAttributes {
	return m.Called(ctx, productIDs).Get(0).(map[uuid.UUID]model.ProductTaxAttributes)
}

func (m *MockTaxService) ClearProductTaxCache(ctx context.Context, userID string) {
	m.Called(ctx, userID)
}

type MockExchangeRateService struct {
	mock.Mock
}

func (m *MockExchangeRateService) BaseCurrency() string { return "NGN" }

func (m *MockExchangeRateService) ListRates(ctx context.Context) ([]service.ExchangeRateResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]service.ExchangeRateResponse), args.Error(1)
}

func (m *MockExchangeRateService) GetEffectiveRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	args := m.Called(ctx, currency)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockExchangeRateService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	args := m.Called(ctx, amount, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockExchangeRateService) SetManualRate(ctx context.Context, currency string, req service.SetManualRateRequest, userID string) (service.ExchangeRateResponse, error) {
	args := m.Called(ctx, currency, req, userID)
	return args.Get(0).(service.ExchangeRateResponse), args.Error(1)
}

func (m *MockExchangeRateService) ClearManualRate(ctx context.Context, currency string, userID string) (service.ExchangeRateResponse, error) {
	args := m.Called(ctx, currency, userID)
	return args.Get(0).(service.ExchangeRateResponse), args.Error(1)
}

func (m *MockExchangeRateService) SetMarkup(ctx context.Context, currency string, req service.SetMarkupRequest, userID string) (service.ExchangeRateResponse, error) {
	args := m.Called(ctx, currency, req, userID)
	return args.Get(0).(service.ExchangeRateResponse), args.Error(1)
}

func (m *MockExchangeRateService) RefreshFromProvider(ctx context.Context, userID string) (service.RefreshResult, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(service.RefreshResult), args.Error(1)
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

func signToken(t *testing.T, sub, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func newRouter(register func(*gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(&r.RouterGroup)
	return r
}

func perform(r http.Handler, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func taxRouter(svc *MockTaxService) *gin.Engine {
	h := NewTaxHandler(svc, middleware.NewAuth(testSecret))
	return newRouter(h.RegisterRoutes)
}

func TestTaxHandler_GetVATRate(t *testing.T) {
	svc := new(MockTaxService)
	svc.On("GetVATRate", mock.Anything, "Nigeria").Return(decimal.RequireFromString("7.5"))

	w := perform(taxRouter(svc), http.MethodGet, "/api/tax/vat-rate?country=Nigeria", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var data service.VATRateResponse
	decode(t, w, &data)
	assert.Equal(t, "7.50", data.VATRate)
	assert.Equal(t, "Nigeria", data.Country)
}

func TestTaxHandler_GetCountryVATRates(t *testing.T) {
	svc := new(MockTaxService)
	svc.On("GetCountryVATRates", mock.Anything, false).Return([]service.CountryVATResponse{{Country: "Nigeria"}}, nil).Once()
	svc.On("GetCountryVATRates", mock.Anything, false).Return([]service.CountryVATResponse{{Country: "Nigeria"}}, nil).Once()
	svc.On("GetCountryVATRates", mock.Anything, true).Return([]service.CountryVATResponse{{Country: "Nigeria"}, {Country: "Ghana"}}, nil).Once()
	r := taxRouter(svc)

	// all=true is ignored for anonymous and non-admin callers
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/api/tax/vat-rates?all=true", "", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/api/tax/vat-rates?all=true", signToken(t, adminSub, "customer"), nil).Code)

	w := perform(r, http.MethodGet, "/api/tax/vat-rates?all=true", signToken(t, adminSub, "super_admin"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data []service.CountryVATResponse
	decode(t, w, &data)
	assert.Len(t, data, 2)
	svc.AssertExpectations(t)
}

func TestTaxHandler_CalculateVAT(t *testing.T) {
	t.Run("exclusive", func(t *testing.T) {
		svc := new(MockTaxService)
		base := decimal.RequireFromString("10000")
		svc.On("CalculateVAT", mock.Anything, base, "Nigeria", []uuid.UUID{}).Return(model.TaxCalculation{
			BaseAmount:        base,
			VATRate:           decimal.RequireFromString("7.5"),
			VATAmount:         decimal.RequireFromString("750"),
			CalculationMethod: model.MethodTaxExclusive,
		}, nil)

		w := perform(taxRouter(svc), http.MethodPost, "/api/tax/calculate", "", []byte(`{"base_amount":"10000","country":"Nigeria"}`))

		require.Equal(t, http.StatusOK, w.Code)
		var data service.TaxCalculationResponse
		decode(t, w, &data)
		assert.Equal(t, "750.00", data.VATAmount)
		assert.Equal(t, "10750.00", data.Total)
		assert.Equal(t, "tax_exclusive", data.CalculationMethod)
	})

	t.Run("bad input", func(t *testing.T) {
		svc := new(MockTaxService)
		r := taxRouter(svc)

		for _, body := range []string{
			`{}`,
			`{"base_amount":"-5"}`,
			`{"base_amount":"ten"}`,
			`{"base_amount":"10","product_ids":["nope"]}`,
		} {
			w := perform(r, http.MethodPost, "/api/tax/calculate", "", []byte(body))
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
		svc.AssertNotCalled(t, "CalculateVAT", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTaxHandler_LookupProducts(t *testing.T) {
	svc := new(MockTaxService)
	p1, p2 := uuid.New(), uuid.New()
	svc.On("GetProductsTaxInfo", mock.Anything, []uuid.UUID{p1, p2}).Return(map[uuid.UUID]model.ProductTaxAttributes{
		p1: {ProductID: p1, TaxExempt: true},
		p2: {ProductID: p2},
	})

	body, _ := json.Marshal(map[string][]string{"product_ids": {p1.String(), p2.String(), p1.String()}})
	w := perform(taxRouter(svc), http.MethodPost, "/api/tax/products/lookup", "", body)

	require.Equal(t, http.StatusOK, w.Code)
	var data []service.ProductTaxInfoResponse
	decode(t, w, &data)
	require.Len(t, data, 2)
	assert.Equal(t, p1.String(), data[0].ProductID)
	assert.True(t, data[0].TaxExempt)
}

func TestTaxHandler_AdminGuard(t *testing.T) {
	svc := new(MockTaxService)
	r := taxRouter(svc)
	body := []byte(`{"country":"Ghana","vat_rate":"12.5"}`)

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodPost, "/api/admin/tax/vat-rates", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodPost, "/api/admin/tax/vat-rates", "garbage", body).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodPost, "/api/admin/tax/vat-rates", signToken(t, adminSub, "supplier"), body).Code)
	svc.AssertNotCalled(t, "SaveCountryVATRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTaxHandler_CreateCountryVATRate(t *testing.T) {
	svc := new(MockTaxService)
	req := service.SaveCountryVATRequest{Country: "Ghana", VATRate: "12.5"}
	svc.On("SaveCountryVATRate", mock.Anything, "", req, adminSub).Return(service.CountryVATResponse{
		ID: uuid.NewString(), Country: "Ghana", VATRate: "12.50", IsActive: true,
	}, nil)

	w := perform(taxRouter(svc), http.MethodPost, "/api/admin/tax/vat-rates", signToken(t, adminSub, "admin"), []byte(`{"country":"Ghana","vat_rate":"12.5"}`))

	require.Equal(t, http.StatusCreated, w.Code)
	var data service.CountryVATResponse
	decode(t, w, &data)
	assert.Equal(t, "12.50", data.VATRate)
	svc.AssertExpectations(t)
}

func TestTaxHandler_ErrorMapping(t *testing.T) {
	token := signToken(t, adminSub, "admin")
	id := uuid.NewString()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("vat_rate must be between 0 and 100"), http.StatusBadRequest},
		{"not found", apperr.NotFound("country VAT rate %s not found", id), http.StatusNotFound},
		{"conflict", apperr.AlreadyExists("an active VAT rate for 'Ghana' already exists"), http.StatusConflict},
		{"database", apperr.Database(errors.New("connection refused"), "failed to update"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockTaxService)
			svc.On("SaveCountryVATRate", mock.Anything, id, mock.Anything, adminSub).Return(service.CountryVATResponse{}, tt.err)

			w := perform(taxRouter(svc), http.MethodPut, "/api/admin/tax/vat-rates/"+id, token, []byte(`{"country":"Ghana","vat_rate":"12.5"}`))

			assert.Equal(t, tt.want, w.Code)
			env := decode(t, w, nil)
			assert.Equal(t, "error", env.Status)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, env.Error, "connection refused")
			}
		})
	}
}

func TestTaxHandler_UpdateProductFlags(t *testing.T) {
	svc := new(MockTaxService)
	token := signToken(t, adminSub, "admin")
	known, unknown := uuid.NewString(), uuid.NewString()
	svc.On("UpdateProductTaxExemption", mock.Anything, known, true, adminSub).Return(nil)
	svc.On("UpdateProductTaxExemption", mock.Anything, unknown, true, adminSub).Return(apperr.NotFound("product %s not found", unknown))
	svc.On("UpdateProductTaxInclusivity", mock.Anything, known, false, adminSub).Return(nil)
	r := taxRouter(svc)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodPatch, "/api/admin/products/"+known+"/tax-exemption", token, []byte(`{"tax_exempt":true}`)).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodPatch, "/api/admin/products/"+unknown+"/tax-exemption", token, []byte(`{"tax_exempt":true}`)).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPatch, "/api/admin/products/"+known+"/tax-exemption", token, []byte(`{}`)).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPatch, "/api/admin/products/"+known+"/tax-inclusivity", token, []byte(`{"tax_inclusive":false}`)).Code)
}

func TestTaxHandler_ExportAndClearCache(t *testing.T) {
	svc := new(MockTaxService)
	token := signToken(t, adminSub, "admin")
	svc.On("ExportCountryVATRates", mock.Anything).Return([]byte("country,vat_rate,is_active\nNigeria,7.50,true\n"), nil)
	svc.On("ClearProductTaxCache", mock.Anything, adminSub).Return()
	r := taxRouter(svc)

	w := perform(r, http.MethodGet, "/api/admin/tax/vat-rates/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "Nigeria,7.50,true")

	assert.Equal(t, http.StatusOK, perform(r, http.MethodDelete, "/api/admin/tax/product-cache", token, nil).Code)
	svc.AssertExpectations(t)
}

func TestExchangeRateHandler(t *testing.T) {
	svc := new(MockExchangeRateService)
	h := NewExchangeRateHandler(svc, middleware.NewAuth(testSecret))
	r := newRouter(h.RegisterRoutes)
	token := signToken(t, adminSub, "admin")

	svc.On("Convert", mock.Anything, decimal.RequireFromString("10000"), "NGN", "USD").Return(decimal.RequireFromString("7.004"), nil)
	svc.On("RefreshFromProvider", mock.Anything, adminSub).Return(service.RefreshResult{}, apperr.Upstream(errors.New("timeout"), "failed to fetch exchange rates"))

	w := perform(r, http.MethodGet, "/api/exchange-rates/convert?amount=10000&to=usd", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data service.ConvertResponse
	decode(t, w, &data)
	assert.Equal(t, "7.00", data.Converted)
	assert.Equal(t, "USD", data.To)

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/api/exchange-rates/convert?amount=abc", "", nil).Code)
	assert.Equal(t, http.StatusBadGateway, perform(r, http.MethodPost, "/api/admin/exchange-rates/refresh", token, nil).Code)
}

func TestCheckoutHandler_Quote(t *testing.T) {
	h := NewCheckoutHandler(nil, middleware.NewAuth(testSecret))
	r := newRouter(h.RegisterRoutes)

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodPost, "/api/checkout/quote", "", []byte(`{}`)).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/api/checkout/quote", signToken(t, adminSub, "customer"), []byte(`{"items":[]}`)).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/api/checkout/quote", signToken(t, adminSub, "customer"), []byte(`{"items":[{"product_id":"x","quantity":0}]}`)).Code)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) GetAuditLogs(ctx context.Context, action string, page, limit int) ([]service.AuditLogResponse, int64, error) {
	args := m.Called(ctx, action, page, limit)
	return args.Get(0).([]service.AuditLogResponse), args.Get(1).(int64), args.Error(2)
}

func TestAuditHandler_GetAuditLogs(t *testing.T) {
	svc := new(MockAuditService)
	svc.On("GetAuditLogs", mock.Anything, "UPDATE_VAT_RATE", 2, 10).Return([]service.AuditLogResponse{{Action: "UPDATE_VAT_RATE"}}, int64(11), nil)
	h := NewAuditHandler(svc, middleware.NewAuth(testSecret))
	r := newRouter(h.RegisterRoutes)

	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/api/audit-logs", signToken(t, adminSub, "customer"), nil).Code)

	w := perform(r, http.MethodGet, "/api/audit-logs?page=2&limit=10&action=UPDATE_VAT_RATE", signToken(t, adminSub, "admin"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []service.AuditLogResponse `json:"data"`
		Meta struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, int64(11), body.Meta.Total)
	assert.Equal(t, 2, body.Meta.TotalPages)
}
