package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-furniture-workshop/internal/aws"
	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
	"github.com/imrishuroy/go-furniture-workshop/internal/idempotency"
	"github.com/imrishuroy/go-furniture-workshop/internal/middleware"
	"github.com/imrishuroy/go-furniture-workshop/internal/promotion"
	"github.com/imrishuroy/go-furniture-workshop/internal/validation"
)

// IdempotencyStore is the subset of idempotency.Store the handlers need.
type IdempotencyStore interface {
	Claim(ctx context.Context, key, operation, requestHash string) (*idempotency.Record, bool, error)
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// Notifier tells fulfillment a request waits for samples.
type Notifier interface {
	SamplesRequested(ctx context.Context, r *customrequest.CustomRequest) error
}

// Counter records a metric occurrence.
type Counter interface {
	Count(ctx context.Context, name string, dimensions map[string]string) error
}

// HandlerConfig groups dependencies for the API handlers. Idempotency,
// Notifier and Metrics are optional.
type HandlerConfig struct {
	Requests    *customrequest.Lifecycle
	Promotions  *promotion.Engine
	Idempotency IdempotencyStore
	Notifier    Notifier
	Metrics     Counter
	JWTSecret   string
	Logger      *slog.Logger
}

type api struct {
	requests   *customrequest.Lifecycle
	promotions *promotion.Engine
	idem       IdempotencyStore
	notifier   Notifier
	metrics    Counter
	validate   *validatorv10.Validate
	log        *slog.Logger
}

// RegisterRoutes mounts the customer, checkout and admin routes on r. All of
// them require a bearer token; /admin additionally requires the admin role.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &api{
		requests:   cfg.Requests,
		promotions: cfg.Promotions,
		idem:       cfg.Idempotency,
		notifier:   cfg.Notifier,
		metrics:    cfg.Metrics,
		validate:   validation.New(),
		log:        logger,
	}

	authed := r.Group("/", middleware.Auth(cfg.JWTSecret))

	cr := authed.Group("/custom-requests")
	cr.POST("", h.createRequest)
	cr.GET("", h.listRequests)
	cr.GET("/:id", h.getRequest)
	cr.POST("/:id/selection", h.selectSample)
	cr.POST("/:id/adjustments", h.requestAdjustment)
	cr.POST("/:id/cart", h.convertToCart)

	promo := authed.Group("/promotions")
	promo.POST("/validate", h.validatePromotion)
	promo.POST("/apply", h.applyPromotion)

	admin := authed.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	admin.POST("/custom-requests/:id/samples", h.attachSamples)
	admin.POST("/custom-requests/:id/start", h.startWork)
	admin.POST("/custom-requests/:id/complete", h.markCompleted)
	admin.POST("/custom-requests/:id/cancel", h.cancelRequest)
	admin.POST("/promotions", h.createPromotion)
	admin.GET("/promotions/:code", h.getPromotion)
	admin.PUT("/promotions/:code/active", h.setPromotionActive)
}

// httpError maps a domain error to a status and a stable error code.
func httpError(err error) (int, gin.H) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": "validation_failed", "msg": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return http.StatusBadRequest, body
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, gin.H{"error": "forbidden"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": "not_found"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, gin.H{"error": "invalid_transition", "msg": err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, gin.H{"error": "conflict"}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal_error"}
	}
}

func (h *api) fail(c *gin.Context, err error) {
	status, body := httpError(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "err", err)
	}
	_ = c.Error(err)
	c.JSON(status, body)
}

// count publishes a metric; failures are only logged.
func (h *api) count(ctx context.Context, name string, dims map[string]string) {
	if h.metrics == nil {
		return
	}
	if err := h.metrics.Count(ctx, name, dims); err != nil {
		h.log.WarnContext(ctx, "publish metric failed", "metric", name, "err", err)
	}
}

// notify announces an owed sample batch; the stored request stands even when
// the queue is unreachable.
func (h *api) notify(ctx context.Context, r *customrequest.CustomRequest) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.SamplesRequested(ctx, r); err != nil {
		h.log.ErrorContext(ctx, "notify fulfillment failed", "request_id", r.ID, "err", err)
	}
}

func (h *api) transitioned(ctx context.Context, r *customrequest.CustomRequest) {
	h.count(ctx, aws.MetricRequestTransition, map[string]string{"Status": string(r.Status)})
}
