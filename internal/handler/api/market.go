package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"AgriPulse/internal/domain/models"
	icache "AgriPulse/internal/service/cache"
	"AgriPulse/internal/service/metrics"
	"AgriPulse/internal/service/ratelimit"
	"AgriPulse/internal/services/pricing"
	"AgriPulse/internal/usecase"
	xhttp "AgriPulse/pkg/http"
	xlogger "AgriPulse/pkg/logger"
)

// MarketHandler serves the dashboard API: the prebuilt library and the live
// quote lookup. Responses are cached as rendered bytes; the quote endpoint
// is rate limited per client because every miss hits the upstream open-data
// service.
type MarketHandler struct {
	quote       *usecase.QuoteUseCase
	library     *usecase.LibraryUseCase
	cache       icache.BytesCache
	rl          *ratelimit.Limiter
	logger      *xlogger.Logger
	healthCheck func(context.Context) error

	quoteTTL  time.Duration
	detailTTL time.Duration
}

func NewMarketHandler(
	quote *usecase.QuoteUseCase,
	library *usecase.LibraryUseCase,
	logger *xlogger.Logger,
	quoteTTL, detailTTL time.Duration,
) *MarketHandler {
	metrics.Register()
	if quoteTTL <= 0 {
		quoteTTL = 30 * time.Second
	}
	if detailTTL <= 0 {
		detailTTL = 5 * time.Minute
	}
	return &MarketHandler{
		quote:     quote,
		library:   library,
		logger:    logger,
		rl:        ratelimit.New(5, 2),
		quoteTTL:  quoteTTL,
		detailTTL: detailTTL,
	}
}

// SetCache injects the response cache.
func (h *MarketHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetHealthCheck adds a backend probe to the health endpoint.
func (h *MarketHandler) SetHealthCheck(fn func(context.Context) error) { h.healthCheck = fn }

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/library", h.Library)
	g.GET("/library/:id", h.LibraryItem)
	g.GET("/quote", h.Quote)
	e.GET("/healthz", h.Health)
}

func (h *MarketHandler) Library(c echo.Context) error {
	start := time.Now()
	endpoint := "library"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.LibraryListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	items, err := h.library.List(c.Request().Context(), usecase.ListParams{
		Keyword: req.Keyword,
		Crop:    req.Crop,
		Market:  req.Market,
		Sort:    req.Sort,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("library list error", xlogger.Error(err))
		return h.errorResponse(c, err)
	}
	return xhttp.ListResponse(c, items, int64(len(items)))
}

func (h *MarketHandler) LibraryItem(c echo.Context) error {
	start := time.Now()
	endpoint := "library_item"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.LibraryItemRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := "detail:" + req.ID
	if body, ok := h.cached(endpoint, cacheKey); ok {
		return c.JSONBlob(200, body)
	}

	res, err := h.library.Detail(c.Request().Context(), req.ID)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("library detail error", xlogger.String("id", req.ID), xlogger.Error(err))
		return h.errorResponse(c, err)
	}
	return h.respondCached(c, cacheKey, res, h.detailTTL)
}

func (h *MarketHandler) Quote(c echo.Context) error {
	start := time.Now()
	endpoint := "quote"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if !h.rl.Allow(c.RealIP() + ":quote") {
		h.logger.Warn("quote rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	cacheKey := fmt.Sprintf("quote:%s:%s:%d:%t", req.Crop, req.Market, req.Days, req.Forecast)
	if body, ok := h.cached(endpoint, cacheKey); ok {
		return c.JSONBlob(200, body)
	}

	res, err := h.quote.GetQuote(c.Request().Context(), usecase.QuoteParams{
		Crop:         req.Crop,
		Market:       req.Market,
		Days:         req.Days,
		WithForecast: req.Forecast,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("quote error",
			xlogger.String("crop", req.Crop),
			xlogger.String("market", req.Market),
			xlogger.Error(err))
		return h.errorResponse(c, err)
	}
	return h.respondCached(c, cacheKey, res, h.quoteTTL)
}

func (h *MarketHandler) Health(c echo.Context) error {
	if h.healthCheck != nil {
		if err := h.healthCheck(c.Request().Context()); err != nil {
			h.logger.Error("health check failed", xlogger.Error(err))
			return c.JSON(503, map[string]string{"status": "degraded"})
		}
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

// cached returns a previously rendered envelope for key, if any.
func (h *MarketHandler) cached(endpoint, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("cache get error", xlogger.String("key", key), xlogger.Error(err))
		return nil, false
	}
	if ok {
		metrics.CacheHits.WithLabelValues(endpoint).Inc()
	}
	return b, ok
}

// respondCached renders the success envelope once, stores it, and writes it.
func (h *MarketHandler) respondCached(c echo.Context, key string, data interface{}, ttl time.Duration) error {
	if h.cache == nil {
		return xhttp.SuccessResponse(c, data)
	}
	body, err := json.Marshal(xhttp.APIResponse{Status: 200, Message: "OK", Data: data})
	if err != nil {
		return xhttp.SuccessResponse(c, data)
	}
	if err := h.cache.SetBytes(key, body, ttl); err != nil {
		h.logger.Warn("cache set error", xlogger.String("key", key), xlogger.Error(err))
	}
	return c.JSONBlob(200, body)
}

// errorResponse maps pipeline sentinels onto the response envelope.
func (h *MarketHandler) errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, pricing.ErrNoData):
		return xhttp.NotFoundResponse(c, "no matching records")
	case errors.Is(err, pricing.ErrInvalidInput):
		return xhttp.BadRequestResponse(c, err.Error())
	default:
		return xhttp.AppErrorResponse(c, err)
	}
}
