package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	auth            *middleware.Auth
}

func NewCheckoutHandler(checkoutService service.CheckoutService, auth *middleware.Auth) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, auth: auth}
}

func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	checkout := router.Group("/api/checkout")
	checkout.Use(h.auth.RequireRole(middleware.AllRoles...))
	{
		checkout.POST("/quote", h.Quote)
	}
}

// Quote prices a cart with stock clamping, VAT and an optional display currency
// @Summary      Quote a cart
// @Tags         checkout
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.QuoteRequest  true  "Cart items"
// @Success      200      {object}  response.Response{data=service.QuoteResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/checkout/quote [post]
func (h *CheckoutHandler) Quote(c *gin.Context) {
	var req service.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quote, err := h.checkoutService.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}
