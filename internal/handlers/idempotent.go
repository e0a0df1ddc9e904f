package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-furniture-workshop/internal/idempotency"
	"github.com/imrishuroy/go-furniture-workshop/internal/middleware"
	"github.com/imrishuroy/go-furniture-workshop/internal/validation"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

type runFunc func(ctx context.Context) (int, any, error)

type locateFunc func(payload []byte) string

// bind reads the raw body, then binds and validates it into out. The raw
// bytes are returned for request fingerprinting. On failure a 400 has
// already been written.
func (h *api) bind(c *gin.Context, out interface{}) ([]byte, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
		return nil, false
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err := validation.BindAndValidate(c, out, h.validate); err != nil {
		return nil, false
	}
	return raw, true
}

// idempotent runs fn at most once per (caller, operation, Idempotency-Key).
// A repeated key with the same payload replays the stored response; a
// different payload is rejected. Without a key, fn runs directly unless
// required is set.
// locate, when set, derives the Location header from the response body so a
// replayed response carries the same header as the original.
func (h *api) idempotent(c *gin.Context, operation string, required bool, raw []byte, locate locateFunc, fn runFunc) {
	ctx := c.Request.Context()

	key := c.GetHeader(headerIdempotencyKey)
	if key == "" {
		if required {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
			return
		}
		h.respond(c, locate, fn)
		return
	}
	if h.idem == nil {
		h.respond(c, locate, fn)
		return
	}

	scoped := idempotency.ScopedKey(middleware.UserID(c), operation, key)
	hash := idempotency.Fingerprint(raw)

	rec, claimed, err := h.idem.Claim(ctx, scoped, operation, hash)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !claimed {
		h.replay(c, rec, hash, locate)
		return
	}

	status, body, err := fn(ctx)
	// the outcome is recorded even if the client went away
	bg := context.WithoutCancel(ctx)
	if err != nil {
		h.markFailed(bg, scoped, err.Error())
		h.fail(c, err)
		return
	}

	payload, err := json.Marshal(body)
	if err != nil {
		h.markFailed(bg, scoped, fmt.Sprintf("encode response: %v", err))
		h.fail(c, err)
		return
	}
	if err := h.idem.MarkDone(bg, scoped, string(payload), status); err != nil {
		h.log.WarnContext(ctx, "mark idempotency done failed", "key", scoped, "err", err)
	}
	writePayload(c, status, payload, locate)
}

func (h *api) markFailed(ctx context.Context, key, note string) {
	if err := h.idem.MarkFailed(ctx, key, note); err != nil {
		h.log.WarnContext(ctx, "mark idempotency failed", "key", key, "err", err)
	}
}

func (h *api) replay(c *gin.Context, rec *idempotency.Record, hash string, locate locateFunc) {
	if rec.RequestHash != hash {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key_reused"})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		c.Header(headerReplayed, "true")
		writePayload(c, rec.ResponseStatus, []byte(rec.ResponseBody), locate)
	case idempotency.StatusInProgress:
		c.JSON(http.StatusConflict, gin.H{"error": "request_in_progress"})
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "unknown_idempotency_status", "status": rec.Status})
	}
}

func (h *api) respond(c *gin.Context, locate locateFunc, fn runFunc) {
	status, body, err := fn(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	payload, err := json.Marshal(body)
	if err != nil {
		h.fail(c, err)
		return
	}
	writePayload(c, status, payload, locate)
}

func writePayload(c *gin.Context, status int, payload []byte, locate locateFunc) {
	if locate != nil {
		if loc := locate(payload); loc != "" {
			c.Header("Location", loc)
		}
	}
	c.Data(status, "application/json; charset=utf-8", payload)
}
