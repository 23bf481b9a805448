package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"
	"golang.org/x/time/rate"

	"olympics/internal/chart"
	"olympics/internal/engine"
	"olympics/internal/errs"
	"olympics/internal/models"
)

const (
	pieLabel          = "Total medals"
	defaultReloadWait = 10 * time.Second
)

// Handler serves the JSON API from the latest dataset observed on the store.
type Handler struct {
	store       *engine.Store
	logger      *slog.Logger
	limiter     *rate.Limiter
	loadTimeout time.Duration

	latest engine.Latest
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithReloadLimit allows one reload every interval, with the given burst.
func WithReloadLimit(every time.Duration, burst int) Option {
	return func(h *Handler) {
		h.limiter = rate.NewLimiter(rate.Every(every), burst)
	}
}

func WithLoadTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		if timeout > 0 {
			h.loadTimeout = timeout
		}
	}
}

func NewHandler(store *engine.Store, opts ...Option) *Handler {
	h := &Handler{
		store:       store,
		logger:      slog.Default(),
		limiter:     rate.NewLimiter(rate.Every(defaultReloadWait), 1),
		loadTimeout: defaultReloadWait,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.logger = h.logger.With("component", "api_handler")
	return h
}

// SetData replaces the dataset served by the handler.
func (h *Handler) SetData(countries []models.Country) {
	h.latest.Set(countries)
}

// Watch feeds the handler from the store until ctx is done, then releases
// the subscription.
func (h *Handler) Watch(ctx context.Context) {
	h.latest.Follow(ctx, h.store)
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/olympics", h.GetOlympics)
	api.GET("/overview", h.GetOverview)
	api.GET("/countries", h.GetMedalTotals)
	api.GET("/countries/:id", h.GetCountry)
	api.GET("/status", h.GetStatus)
	api.POST("/reload", h.Reload)
	api.RouteNotFound("/*", func(c echo.Context) error {
		return errs.New("api/route", errs.CodeNotFound, errs.WithMessage(c.Request().URL.Path))
	})
}

func (h *Handler) dataset(op string) ([]models.Country, error) {
	countries, ok := h.latest.Get()
	if !ok {
		return nil, errs.New(op, errs.CodeUnavailable, errs.WithMessage("dataset is loading"))
	}
	return countries, nil
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GetOlympics returns the raw dataset with an ETag over its encoding.
func (h *Handler) GetOlympics(c echo.Context) error {
	countries, err := h.dataset("api/olympics")
	if err != nil {
		return err
	}
	body, err := json.Marshal(countries)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, body)
}

func (h *Handler) GetOverview(c echo.Context) error {
	countries, err := h.dataset("api/overview")
	if err != nil {
		return err
	}
	overview := engine.Overview(countries)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"overview": overview,
		"chart":    chart.Pie(pieLabel, overview.Totals),
	})
}

// GetMedalTotals returns the per-country medal totals, paginated.
func (h *Handler) GetMedalTotals(c echo.Context) error {
	countries, err := h.dataset("api/countries")
	if err != nil {
		return err
	}
	totals := engine.MedalTotalsByCountry(countries)
	total := len(totals)
	limit, offset := getPaginationParams(c, total)

	if offset >= total {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"data":   []models.MedalTotal{},
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}

	if limit > total-offset {
		limit = total - offset
	}
	end := offset + limit

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   totals[offset:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetCountry(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errs.New("api/country", errs.CodeInvalid, errs.WithMessage("country id must be an integer"))
	}
	countries, err := h.dataset("api/country")
	if err != nil {
		return err
	}
	country, ok := engine.FindCountry(countries, id)
	if !ok {
		return errs.New("api/country", errs.CodeNotFound, errs.WithMessage("country "+strconv.Itoa(id)))
	}

	years, medals := engine.MedalsByYear(country)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"detail": engine.Detail(country),
		"chart":  chart.Line("Medals for "+country.Country, years, medals),
	})
}

func (h *Handler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusOf(h.store.Status()))
}

// Reload loads the dataset again on demand.
func (h *Handler) Reload(c echo.Context) error {
	if !h.limiter.Allow() {
		return errs.New("api/reload", errs.CodeRateLimited, errs.WithMessage("reload already requested recently"))
	}

	h.logger.Info("dataset reload requested", "remote", c.RealIP())
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.loadTimeout)
	defer cancel()
	if err := h.store.Load(ctx); err != nil {
		return errs.New("api/reload", errs.CodeFetch, errs.WithCause(err))
	}
	return c.JSON(http.StatusOK, StatusOf(h.store.Status()))
}

// StatusOf converts the store status to its wire shape.
func StatusOf(s engine.Status) models.StoreStatus {
	out := models.StoreStatus{
		State:    s.State.String(),
		Records:  s.Records,
		LoadedAt: s.LoadedAt,
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return out
}
