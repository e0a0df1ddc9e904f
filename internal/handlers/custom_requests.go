package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
	"github.com/imrishuroy/go-furniture-workshop/internal/middleware"
	"github.com/imrishuroy/go-furniture-workshop/internal/validation"
)

const opCreateRequest = "create_custom_request"

func (h *api) createRequest(c *gin.Context) {
	var req validation.CreateCustomRequestRequest
	raw, ok := h.bind(c, &req)
	if !ok {
		return
	}
	userID := middleware.UserID(c)

	h.idempotent(c, opCreateRequest, false, raw, requestLocation, func(ctx context.Context) (int, any, error) {
		created, err := h.requests.Create(ctx, customrequest.CreateInput{
			CustomerID:      userID,
			TemplateID:      req.TemplateID,
			TemplateName:    req.TemplateName,
			Modifications:   req.Modifications,
			AdditionalNotes: req.AdditionalNotes,
			Contact: customrequest.ContactInfo{
				Name:  req.Contact.Name,
				Email: req.Contact.Email,
				Phone: req.Contact.Phone,
			},
		})
		if err != nil {
			return 0, nil, err
		}
		h.notify(ctx, created)
		return http.StatusCreated, created, nil
	})
}

func requestLocation(payload []byte) string {
	var created struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(payload, &created) != nil || created.ID == "" {
		return ""
	}
	return "/custom-requests/" + created.ID
}

func (h *api) listRequests(c *gin.Context) {
	items, err := h.requests.ListForCustomer(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if items == nil {
		items = []customrequest.CustomRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *api) getRequest(c *gin.Context) {
	r, err := h.requests.Get(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *api) selectSample(c *gin.Context) {
	var req validation.SelectSampleRequest
	if _, ok := h.bind(c, &req); !ok {
		return
	}
	r, err := h.requests.SelectSample(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Sample)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.transitioned(c.Request.Context(), r)
	c.JSON(http.StatusOK, r)
}

func (h *api) requestAdjustment(c *gin.Context) {
	var req validation.AdjustmentRequest
	if _, ok := h.bind(c, &req); !ok {
		return
	}
	ctx := c.Request.Context()
	r, err := h.requests.RequestAdjustment(ctx, c.Param("id"), middleware.UserID(c), customrequest.AdjustmentInput{
		Modifications: req.Modifications,
		Description:   req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.transitioned(ctx, r)
	h.notify(ctx, r)
	c.JSON(http.StatusOK, r)
}

func (h *api) convertToCart(c *gin.Context) {
	ctx := c.Request.Context()
	r, item, err := h.requests.ConvertToCartItem(ctx, c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.transitioned(ctx, r)
	c.JSON(http.StatusCreated, gin.H{"request": r, "cart_item": item})
}
