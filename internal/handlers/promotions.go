package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-furniture-workshop/internal/aws"
	"github.com/imrishuroy/go-furniture-workshop/internal/promotion"
	"github.com/imrishuroy/go-furniture-workshop/internal/validation"
)

const opApplyPromotion = "apply_promotion"

func orderContext(req validation.OrderContextRequest) promotion.OrderContext {
	return promotion.OrderContext{
		Subtotal:         req.Subtotal,
		DeliveryFee:      req.DeliveryFee,
		CategoryIDs:      req.CategoryIDs,
		IsFirstTimeBuyer: req.IsFirstTimeBuyer,
	}
}

// resultStatus is 200 for an accepted code and 422 for a rejected one.
func resultStatus(res promotion.Result) int {
	if res.Accepted {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}

func (h *api) validatePromotion(c *gin.Context) {
	var req validation.OrderContextRequest
	if _, ok := h.bind(c, &req); !ok {
		return
	}
	res, err := h.promotions.Validate(c.Request.Context(), req.Code, orderContext(req))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(resultStatus(res), res)
}

func (h *api) applyPromotion(c *gin.Context) {
	var req validation.OrderContextRequest
	raw, ok := h.bind(c, &req)
	if !ok {
		return
	}
	h.idempotent(c, opApplyPromotion, true, raw, nil, func(ctx context.Context) (int, any, error) {
		res, err := h.promotions.Apply(ctx, req.Code, orderContext(req))
		if err != nil {
			return 0, nil, err
		}
		if res.Accepted {
			h.count(ctx, aws.MetricPromotionApplied, map[string]string{"Code": res.Code})
		} else {
			h.count(ctx, aws.MetricPromotionRejected, map[string]string{"Code": res.Code, "Reason": string(res.Reason)})
		}
		return resultStatus(res), res, nil
	})
}
