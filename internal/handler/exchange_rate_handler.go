package handler

import (
	"net/http"
	"strings"

	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExchangeRateHandler struct {
	exchangeService service.ExchangeRateService
	auth            *middleware.Auth
}

func NewExchangeRateHandler(exchangeService service.ExchangeRateService, auth *middleware.Auth) *ExchangeRateHandler {
	return &ExchangeRateHandler{exchangeService: exchangeService, auth: auth}
}

func (h *ExchangeRateHandler) RegisterRoutes(router *gin.RouterGroup) {
	rates := router.Group("/api/exchange-rates")
	{
		rates.GET("", h.ListRates)
		rates.GET("/convert", h.Convert)
	}

	admin := router.Group("/api/admin/exchange-rates")
	admin.Use(h.auth.RequireRole(middleware.AdminRoles...))
	{
		admin.PUT("/:currency/manual", h.SetManualRate)
		admin.DELETE("/:currency/manual", h.ClearManualRate)
		admin.PUT("/:currency/markup", h.SetMarkup)
		admin.POST("/refresh", h.Refresh)
	}
}

// ListRates returns every stored rate with its effective value
// @Summary      List exchange rates
// @Tags         exchange-rates
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.ExchangeRateResponse}
// @Router       /api/exchange-rates [get]
func (h *ExchangeRateHandler) ListRates(c *gin.Context) {
	rates, err := h.exchangeService.ListRates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"base_currency": h.exchangeService.BaseCurrency(),
		"rates":         rates,
	}))
}

// Convert converts an amount between two currencies
// @Summary      Convert currency
// @Tags         exchange-rates
// @Produce      json
// @Param        amount  query     string  true   "Decimal amount"
// @Param        from    query     string  false  "Source currency (default base)"
// @Param        to      query     string  false  "Target currency (default base)"
// @Success      200     {object}  response.Response{data=service.ConvertResponse}
// @Failure      400     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /api/exchange-rates/convert [get]
func (h *ExchangeRateHandler) Convert(c *gin.Context) {
	amount, err := service.ParseAmount("amount", c.Query("amount"))
	if err != nil {
		respondError(c, err)
		return
	}

	from := strings.ToUpper(c.DefaultQuery("from", h.exchangeService.BaseCurrency()))
	to := strings.ToUpper(c.DefaultQuery("to", h.exchangeService.BaseCurrency()))

	converted, err := h.exchangeService.Convert(c.Request.Context(), amount, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.ConvertResponse{
		Amount:    amount.String(),
		From:      from,
		To:        to,
		Converted: converted.RoundBank(2).StringFixed(2),
	}))
}

// SetManualRate pins a manual rate that overrides the provider rate
// @Summary      Set manual exchange rate
// @Tags         exchange-rates-admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        currency  path      string                        true  "Currency code"
// @Param        request   body      service.SetManualRateRequest  true  "Manual rate"
// @Success      200       {object}  response.Response{data=service.ExchangeRateResponse}
// @Failure      400       {object}  response.Response
// @Router       /api/admin/exchange-rates/{currency}/manual [put]
func (h *ExchangeRateHandler) SetManualRate(c *gin.Context) {
	var req service.SetManualRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rate, err := h.exchangeService.SetManualRate(c.Request.Context(), c.Param("currency"), req, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// ClearManualRate reverts a currency to its provider rate
// @Summary      Clear manual exchange rate
// @Tags         exchange-rates-admin
// @Security     BearerAuth
// @Produce      json
// @Param        currency  path      string  true  "Currency code"
// @Success      200       {object}  response.Response{data=service.ExchangeRateResponse}
// @Failure      404       {object}  response.Response
// @Router       /api/admin/exchange-rates/{currency}/manual [delete]
func (h *ExchangeRateHandler) ClearManualRate(c *gin.Context) {
	rate, err := h.exchangeService.ClearManualRate(c.Request.Context(), c.Param("currency"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// SetMarkup sets the percentage added on top of the rate
// @Summary      Set exchange rate markup
// @Tags         exchange-rates-admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        currency  path      string                    true  "Currency code"
// @Param        request   body      service.SetMarkupRequest  true  "Markup percent"
// @Success      200       {object}  response.Response{data=service.ExchangeRateResponse}
// @Failure      400       {object}  response.Response
// @Router       /api/admin/exchange-rates/{currency}/markup [put]
func (h *ExchangeRateHandler) SetMarkup(c *gin.Context) {
	var req service.SetMarkupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rate, err := h.exchangeService.SetMarkup(c.Request.Context(), c.Param("currency"), req, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// Refresh pulls the latest provider rates
// @Summary      Refresh exchange rates from provider
// @Tags         exchange-rates-admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.RefreshResult}
// @Failure      502  {object}  response.Response
// @Router       /api/admin/exchange-rates/refresh [post]
func (h *ExchangeRateHandler) Refresh(c *gin.Context) {
	result, err := h.exchangeService.RefreshFromProvider(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
