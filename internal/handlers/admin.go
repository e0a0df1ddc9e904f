package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
	"github.com/imrishuroy/go-furniture-workshop/internal/middleware"
	"github.com/imrishuroy/go-furniture-workshop/internal/promotion"
	"github.com/imrishuroy/go-furniture-workshop/internal/validation"
)

func (h *api) attachSamples(c *gin.Context) {
	var req validation.AttachSamplesRequest
	if _, ok := h.bind(c, &req); !ok {
		return
	}
	h.adminTransition(c, func(ctx context.Context, id, actor string) (*customrequest.CustomRequest, error) {
		return h.requests.AttachSamples(ctx, id, actor, req.Samples)
	})
}

func (h *api) startWork(c *gin.Context) {
	h.adminTransition(c, h.requests.StartWork)
}

func (h *api) markCompleted(c *gin.Context) {
	h.adminTransition(c, h.requests.MarkCompleted)
}

func (h *api) cancelRequest(c *gin.Context) {
	h.adminTransition(c, h.requests.Cancel)
}

func (h *api) adminTransition(c *gin.Context, op func(ctx context.Context, id, actorID string) (*customrequest.CustomRequest, error)) {
	ctx := c.Request.Context()
	r, err := op(ctx, c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.transitioned(ctx, r)
	c.JSON(http.StatusOK, r)
}

func (h *api) createPromotion(c *gin.Context) {
	var req validation.CreatePromotionRequest
	if _, ok := h.bind(c, &req); !ok {
		return
	}
	p, err := h.promotions.Create(c.Request.Context(), promotion.CreateInput{
		Code:              req.Code,
		Description:       req.Description,
		Type:              req.Type,
		Value:             req.Value,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		MaxUsage:          req.MaxUsage,
		Active:            req.Active,
		CategoryID:        req.CategoryID,
		MinPurchaseAmount: req.MinPurchaseAmount,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/admin/promotions/"+p.Code)
	c.JSON(http.StatusCreated, p)
}

func (h *api) getPromotion(c *gin.Context) {
	p, err := h.promotions.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *api) setPromotionActive(c *gin.Context) {
	var req validation.SetActiveRequest
	if _, ok := h.bind(c, &req); !ok {
		return
	}
	p, err := h.promotions.SetActive(c.Request.Context(), c.Param("code"), *req.Active)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
