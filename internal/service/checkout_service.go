package service

import (
	"context"
	"strings"

	"marketplace/internal/apperr"
	"marketplace/internal/logger"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type QuoteItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type QuoteRequest struct {
	Items    []QuoteItemRequest `json:"items" binding:"required,min=1,dive"`
	Country  string             `json:"country"`
	Currency string             `json:"currency"` // Display currency, defaults to the base currency
}

type QuoteLineResponse struct {
	ProductID         string `json:"product_id"`
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	UnitPrice         string `json:"unit_price"`
	RequestedQuantity int    `json:"requested_quantity"`
	Quantity          int    `json:"quantity"`
	LineTotal         string `json:"line_total"`
	Available         bool   `json:"available"`
	Clamped           bool   `json:"clamped"`
}

type QuoteResponse struct {
	Currency string                 `json:"currency"`
	Country  string                 `json:"country"`
	Lines    []QuoteLineResponse    `json:"lines"`
	Subtotal string                 `json:"subtotal"`
	Tax      TaxCalculationResponse `json:"tax"`
}

// --- Interface ---

type CheckoutService interface {
	Quote(ctx context.Context, req QuoteRequest) (QuoteResponse, error)
}

type checkoutService struct {
	products       repository.ProductRepository
	tax            TaxService
	fx             ExchangeRateService
	defaultCountry string
	log            *logger.Logger
}

// NewCheckoutService builds the quote service. Carts without a country are
// taxed as if shipped to defaultCountry.
func NewCheckoutService(products repository.ProductRepository, tax TaxService, fx ExchangeRateService, defaultCountry string, log *logger.Logger) CheckoutService {
	return &checkoutService{
		products:       products,
		tax:            tax,
		fx:             fx,
		defaultCountry: strings.TrimSpace(defaultCountry),
		log:            log,
	}
}

type quoteLine struct {
	product   model.Product
	requested int
	quantity  int
	total     decimal.Decimal
}

// Quote prices a cart. Quantities are clamped to [1, stock]; out of stock lines
// are reported but excluded from the subtotal and from tax resolution.
func (s *checkoutService) Quote(ctx context.Context, req QuoteRequest) (QuoteResponse, error) {
	if len(req.Items) == 0 {
		return QuoteResponse{}, apperr.Validation("items must not be empty")
	}

	// Repeated products collapse into one line, first occurrence keeps its position
	var order []uuid.UUID
	requested := make(map[uuid.UUID]int)
	for _, item := range req.Items {
		id, err := uuid.Parse(strings.TrimSpace(item.ProductID))
		if err != nil {
			return QuoteResponse{}, apperr.Validation("invalid product id: %s", item.ProductID)
		}
		if item.Quantity <= 0 {
			return QuoteResponse{}, apperr.Validation("quantity for %s must be positive", item.ProductID)
		}
		if _, seen := requested[id]; !seen {
			order = append(order, id)
		}
		requested[id] += item.Quantity
	}

	found, err := s.products.FindByIDs(ctx, order)
	if err != nil {
		return QuoteResponse{}, apperr.Database(err, "failed to fetch products")
	}
	byID := lo.KeyBy(found, func(p model.Product) uuid.UUID { return p.ID })
	if missing := lo.Filter(order, func(id uuid.UUID, _ int) bool { _, ok := byID[id]; return !ok }); len(missing) > 0 {
		return QuoteResponse{}, apperr.NotFound("product %s not found", missing[0])
	}

	lines := make([]quoteLine, 0, len(order))
	subtotal := decimal.Zero
	var taxable []uuid.UUID
	for _, id := range order {
		p := byID[id]
		line := quoteLine{product: p, requested: requested[id]}
		if p.CurrentStock > 0 {
			line.quantity = clampQuantity(line.requested, p.CurrentStock)
			line.total = p.Price.Mul(decimal.NewFromInt(int64(line.quantity)))
			subtotal = subtotal.Add(line.total)
			taxable = append(taxable, id)
		}
		lines = append(lines, line)
	}

	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = s.defaultCountry
	}

	calc, err := s.tax.CalculateVAT(ctx, subtotal, country, taxable)
	if err != nil {
		return QuoteResponse{}, err
	}

	currency := s.fx.BaseCurrency()
	convert := func(d decimal.Decimal) (decimal.Decimal, error) { return d, nil }
	if c := strings.ToUpper(strings.TrimSpace(req.Currency)); c != "" && c != currency {
		currency = c
		convert = func(d decimal.Decimal) (decimal.Decimal, error) {
			return s.fx.Convert(ctx, d, s.fx.BaseCurrency(), c)
		}
	}

	resp := QuoteResponse{
		Currency: currency,
		Country:  country,
		Lines:    make([]QuoteLineResponse, 0, len(lines)),
	}
	for _, line := range lines {
		unit, err := convert(line.product.Price)
		if err != nil {
			return QuoteResponse{}, err
		}
		total, err := convert(line.total)
		if err != nil {
			return QuoteResponse{}, err
		}
		resp.Lines = append(resp.Lines, QuoteLineResponse{
			ProductID:         line.product.ID.String(),
			SKU:               line.product.SKU,
			Name:              line.product.Name,
			UnitPrice:         unit.RoundBank(2).StringFixed(2),
			RequestedQuantity: line.requested,
			Quantity:          line.quantity,
			LineTotal:         total.RoundBank(2).StringFixed(2),
			Available:         line.product.CurrentStock > 0,
			Clamped:           line.quantity != line.requested,
		})
	}

	if calc, err = convertCalculation(calc, convert); err != nil {
		return QuoteResponse{}, err
	}
	convertedSubtotal, err := convert(subtotal)
	if err != nil {
		return QuoteResponse{}, err
	}
	resp.Subtotal = convertedSubtotal.RoundBank(2).StringFixed(2)
	resp.Tax = ToTaxCalculationResponse(calc)

	return resp, nil
}

func clampQuantity(requested, stock int) int {
	if requested < 1 {
		return 1
	}
	if requested > stock {
		return stock
	}
	return requested
}

func convertCalculation(calc model.TaxCalculation, convert func(decimal.Decimal) (decimal.Decimal, error)) (model.TaxCalculation, error) {
	var err error
	out := calc
	if out.BaseAmount, err = convert(calc.BaseAmount); err != nil {
		return calc, err
	}
	if out.VATAmount, err = convert(calc.VATAmount); err != nil {
		return calc, err
	}
	if calc.TaxInclusiveAmount != nil {
		v, err := convert(*calc.TaxInclusiveAmount)
		if err != nil {
			return calc, err
		}
		out.TaxInclusiveAmount = &v
	}
	return out, nil
}
