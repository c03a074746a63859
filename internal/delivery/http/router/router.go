package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-store-proxy/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-store-proxy/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-store-proxy/internal/delivery/http/middleware"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-store-proxy/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	CartUsecase     usecase.CartUsecase
	ExchangeService usecase.ExchangeRateService
	Metrics         *metrics.ProxyMetrics
	Gatherer        prometheus.Gatherer
	Logger          *slog.Logger
	AllowedOrigins  []string
}

func New(deps Deps) (*gin.Engine, error) {
	requestID, err := middleware.RequestID()
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestID,
		middleware.AccessLog(deps.Logger),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(deps.AllowedOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.HealthResponse{Status: "ok"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	cartHandler := handlers.NewCartHandler(deps.CartUsecase)
	exchangeHandler := handlers.NewExchangeHandler(deps.ExchangeService)

	api := r.Group("/api", middleware.Session())
	{
		api.GET("/init", cartHandler.Init)
		api.GET("/cart", cartHandler.GetCart)
		api.GET("/products", cartHandler.ListProducts)
		api.GET("/exchange-rates", exchangeHandler.GetRates)
		api.POST("/cart/add", cartHandler.AddItem)
		api.POST("/cart/update-item", cartHandler.UpdateItem)
		api.POST("/cart/remove-item", cartHandler.RemoveItem)
	}

	return r, nil
}
