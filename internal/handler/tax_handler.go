package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type TaxHandler struct {
	taxService service.TaxService
	auth       *middleware.Auth
}

func NewTaxHandler(taxService service.TaxService, auth *middleware.Auth) *TaxHandler {
	return &TaxHandler{taxService: taxService, auth: auth}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	tax := router.Group("/api/tax")
	tax.Use(h.auth.OptionalAuth())
	{
		tax.GET("/vat-rates", h.GetCountryVATRates)
		tax.GET("/vat-rate", h.GetVATRate)
		tax.POST("/calculate", h.CalculateVAT)
		tax.POST("/products/lookup", h.LookupProducts)
	}

	admin := router.Group("/api/admin")
	admin.Use(h.auth.RequireRole(middleware.AdminRoles...))
	{
		admin.POST("/tax/vat-rates", h.CreateCountryVATRate)
		admin.PUT("/tax/vat-rates/:id", h.UpdateCountryVATRate)
		admin.DELETE("/tax/vat-rates/:id", h.DeleteCountryVATRate)
		admin.POST("/tax/vat-rates/import", h.ImportCountryVATRates)
		admin.GET("/tax/vat-rates/export", h.ExportCountryVATRates)
		admin.DELETE("/tax/product-cache", h.ClearProductTaxCache)
		admin.PATCH("/products/:id/tax-exemption", h.UpdateProductTaxExemption)
		admin.PATCH("/products/:id/tax-inclusivity", h.UpdateProductTaxInclusivity)
	}
}

// GetCountryVATRates lists active country VAT rates
// @Summary      List country VAT rates
// @Description  Active rates for everyone; admins may pass all=true to include inactive rates
// @Tags         tax
// @Produce      json
// @Param        all  query     bool  false  "Include inactive rates (admin only)"
// @Success      200  {object}  response.Response{data=[]service.CountryVATResponse}
// @Router       /api/tax/vat-rates [get]
func (h *TaxHandler) GetCountryVATRates(c *gin.Context) {
	includeInactive := c.Query("all") == "true" && middleware.IsAdmin(c)

	rates, err := h.taxService.GetCountryVATRates(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rates))
}

// GetVATRate resolves the rate for one country, falling back to the default rate
// @Summary      Get VAT rate for a country
// @Tags         tax
// @Produce      json
// @Param        country  query     string  false  "Country name, case-insensitive"
// @Success      200      {object}  response.Response{data=service.VATRateResponse}
// @Router       /api/tax/vat-rate [get]
func (h *TaxHandler) GetVATRate(c *gin.Context) {
	country := c.Query("country")
	rate := h.taxService.GetVATRate(c.Request.Context(), country)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.VATRateResponse{
		Country: country,
		VATRate: rate.StringFixed(2),
	}))
}

// CalculateVAT computes the VAT breakdown for an order amount
// @Summary      Calculate VAT
// @Description  Exempt products zero the VAT, tax-inclusive products extract VAT from the amount
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        request  body      service.CalculateVATRequest  true  "Amount, country and product ids"
// @Success      200      {object}  response.Response{data=service.TaxCalculationResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/tax/calculate [post]
func (h *TaxHandler) CalculateVAT(c *gin.Context) {
	var req service.CalculateVATRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	amount, err := service.ParseAmount("base_amount", req.BaseAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	productIDs, err := service.ParseUUIDs(req.ProductIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	calc, err := h.taxService.CalculateVAT(c.Request.Context(), amount, req.Country, productIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.ToTaxCalculationResponse(calc)))
}

// LookupProducts returns the tax flags of several products
// @Summary      Look up product tax flags
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        request  body      service.ProductTaxLookupRequest  true  "Product ids"
// @Success      200      {object}  response.Response{data=[]service.ProductTaxInfoResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/tax/products/lookup [post]
func (h *TaxHandler) LookupProducts(c *gin.Context) {
	var req service.ProductTaxLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ids, err := service.ParseUUIDs(req.ProductIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	ids = lo.Uniq(ids)

	info := h.taxService.GetProductsTaxInfo(c.Request.Context(), ids)
	res := make([]service.ProductTaxInfoResponse, 0, len(ids))
	for _, id := range ids {
		attrs := info[id]
		res = append(res, service.ProductTaxInfoResponse{
			ProductID:    id.String(),
			TaxExempt:    attrs.TaxExempt,
			TaxInclusive: attrs.TaxInclusive,
		})
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// CreateCountryVATRate adds a country VAT rate
// @Summary      Create country VAT rate
// @Tags         tax-admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.SaveCountryVATRequest  true  "Country VAT rate"
// @Success      201      {object}  response.Response{data=service.CountryVATResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/tax/vat-rates [post]
func (h *TaxHandler) CreateCountryVATRate(c *gin.Context) {
	var req service.SaveCountryVATRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rate, err := h.taxService.SaveCountryVATRate(c.Request.Context(), "", req, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rate))
}

// UpdateCountryVATRate replaces an existing country VAT rate
// @Summary      Update country VAT rate
// @Tags         tax-admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Country VAT rate ID"
// @Param        request  body      service.SaveCountryVATRequest  true  "Country VAT rate"
// @Success      200      {object}  response.Response{data=service.CountryVATResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/admin/tax/vat-rates/{id} [put]
func (h *TaxHandler) UpdateCountryVATRate(c *gin.Context) {
	var req service.SaveCountryVATRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rate, err := h.taxService.SaveCountryVATRate(c.Request.Context(), c.Param("id"), req, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// DeleteCountryVATRate removes a country VAT rate
// @Summary      Delete country VAT rate
// @Tags         tax-admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Country VAT rate ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/admin/tax/vat-rates/{id} [delete]
func (h *TaxHandler) DeleteCountryVATRate(c *gin.Context) {
	if err := h.taxService.DeleteCountryVATRate(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Country VAT rate deleted"}))
}

// ImportCountryVATRates upserts rates from a CSV body with header country,vat_rate,is_active
// @Summary      Import country VAT rates
// @Tags         tax-admin
// @Security     BearerAuth
// @Accept       text/csv
// @Produce      json
// @Success      200  {object}  response.Response{data=service.ImportResult}
// @Failure      400  {object}  response.Response
// @Router       /api/admin/tax/vat-rates/import [post]
func (h *TaxHandler) ImportCountryVATRates(c *gin.Context) {
	result, err := h.taxService.ImportCountryVATRates(c.Request.Context(), c.Request.Body, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ExportCountryVATRates downloads every rate as CSV
// @Summary      Export country VAT rates
// @Tags         tax-admin
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200  {string}  string  "CSV file"
// @Router       /api/admin/tax/vat-rates/export [get]
func (h *TaxHandler) ExportCountryVATRates(c *gin.Context) {
	out, err := h.taxService.ExportCountryVATRates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="country_vat.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", out)
}

// ClearProductTaxCache drops every cached product tax flag
// @Summary      Clear product tax cache
// @Tags         tax-admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/admin/tax/product-cache [delete]
func (h *TaxHandler) ClearProductTaxCache(c *gin.Context) {
	h.taxService.ClearProductTaxCache(c.Request.Context(), middleware.UserID(c))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Product tax cache cleared"}))
}

// UpdateProductTaxExemption sets the product's tax_exempt flag
// @Summary      Update product tax exemption
// @Tags         tax-admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Product ID"
// @Param        request  body      service.UpdateTaxExemptionRequest  true  "Exemption flag"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/admin/products/{id}/tax-exemption [patch]
func (h *TaxHandler) UpdateProductTaxExemption(c *gin.Context) {
	var req service.UpdateTaxExemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.taxService.UpdateProductTaxExemption(c.Request.Context(), c.Param("id"), *req.TaxExempt, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.ProductTaxInfoResponse{
		ProductID: c.Param("id"),
		TaxExempt: *req.TaxExempt,
	}))
}

// UpdateProductTaxInclusivity sets the product's tax_inclusive flag
// @Summary      Update product tax inclusivity
// @Tags         tax-admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                               true  "Product ID"
// @Param        request  body      service.UpdateTaxInclusivityRequest  true  "Inclusivity flag"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/admin/products/{id}/tax-inclusivity [patch]
func (h *TaxHandler) UpdateProductTaxInclusivity(c *gin.Context) {
	var req service.UpdateTaxInclusivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.taxService.UpdateProductTaxInclusivity(c.Request.Context(), c.Param("id"), *req.TaxInclusive, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.ProductTaxInfoResponse{
		ProductID:    c.Param("id"),
		TaxInclusive: *req.TaxInclusive,
	}))
}
