package handlers

import (
	"net/http"

	"github.com/LavaJover/shvark-store-proxy/internal/delivery/http/middleware"
	"github.com/LavaJover/shvark-store-proxy/internal/usecase"
	"github.com/gin-gonic/gin"
)

type ExchangeHandler struct {
	svc usecase.ExchangeRateService
}

func NewExchangeHandler(svc usecase.ExchangeRateService) *ExchangeHandler {
	return &ExchangeHandler{svc: svc}
}

// GetRates always answers 200: failures are absorbed into the fallback pair.
func (h *ExchangeHandler) GetRates(c *gin.Context) {
	rates, source := h.svc.GetRates(c.Request.Context())
	c.Header(middleware.RatesSourceHeader, string(source))
	c.JSON(http.StatusOK, rates)
}
