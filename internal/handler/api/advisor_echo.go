package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	models "EarnPilot/internal/domain/models"
	"EarnPilot/internal/service/binance"
	"EarnPilot/internal/usecase"
	xhttp "EarnPilot/pkg/http"
	xlogger "EarnPilot/pkg/logger"
)

// AdvisorEchoHandler exposes the advisor over Echo.
type AdvisorEchoHandler struct {
	logger     *xlogger.Logger
	advisor    *usecase.AdvisorService
	stream     *binance.Stream
	cronSecret string
}

func NewAdvisorEchoHandler(logger *xlogger.Logger, advisor *usecase.AdvisorService, stream *binance.Stream, cronSecret string) *AdvisorEchoHandler {
	return &AdvisorEchoHandler{logger: logger, advisor: advisor, stream: stream, cronSecret: cronSecret}
}

func (h *AdvisorEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.POST("/recommend", h.Recommend)
	g.GET("/portfolio/risk", h.PortfolioRisk)
	g.GET("/audit/history", h.AuditHistory)
	g.GET("/performance", h.Performance)
	g.GET("/market/ticker", h.MarketTicker)
	g.GET("/config", h.Config)
	g.POST("/cron/daily", h.CronDaily)
}

func (h *AdvisorEchoHandler) Health(c echo.Context) error {
	if err := h.advisor.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check degraded", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *AdvisorEchoHandler) Recommend(c echo.Context) error {
	req := &models.RecommendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.advisor.Recommend(c.Request().Context(), req.TargetAsset)
	if err != nil {
		h.logger.Error("recommend usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) PortfolioRisk(c echo.Context) error {
	res, err := h.advisor.PortfolioRisk(c.Request().Context())
	if err != nil {
		h.logger.Error("portfolio risk usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) AuditHistory(c echo.Context) error {
	req := &models.AuditHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.advisor.AuditHistory(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("audit history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *AdvisorEchoHandler) Performance(c echo.Context) error {
	res, err := h.advisor.PerformanceStats(c.Request().Context())
	if err != nil {
		h.logger.Error("performance usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// MarketTicker serves the latest streamed quote. Unlike the decision cycle,
// which always snapshots over REST, this endpoint reads the WebSocket feed.
func (h *AdvisorEchoHandler) MarketTicker(c echo.Context) error {
	req := &models.TickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	t, ok := h.stream.Ticker(req.Symbol)
	if !ok {
		return xhttp.NotFoundResponse(c, map[string]string{"symbol": req.Symbol, "reason": "no fresh quote"})
	}
	return xhttp.SuccessResponse(c, t)
}

func (h *AdvisorEchoHandler) Config(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.advisor.Config())
}

// CronDaily is the scheduled trigger. The external scheduler authenticates
// with a bearer secret; without a configured secret the endpoint is disabled.
func (h *AdvisorEchoHandler) CronDaily(c echo.Context) error {
	if h.cronSecret == "" {
		return xhttp.ForbiddenResponse(c, map[string]string{"reason": "cron disabled"})
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == auth || subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) != 1 {
		h.logger.Warn("cron trigger rejected", xlogger.String("remote", c.RealIP()))
		return xhttp.UnauthorizedResponse(c, map[string]string{"reason": "invalid token"})
	}

	res, err := h.advisor.RunDailyCycle(c.Request().Context(), "cron")
	if err != nil {
		h.logger.Error("daily cycle error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
