package validation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
)

// BindAndValidate decodes the JSON body into out and validates it with v.
// On failure it writes a 400 and returns the error so the handler can stop.
// The body carries the first failing field under "field" and every failing
// field with its tag under "fields".
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid_request_body",
			"msg":   err.Error(),
		})
		return err
	}

	if err := v.Struct(out); err != nil {
		body := gin.H{"error": "validation_failed", "fields": failedFields(err)}
		var ve *domain.ValidationError
		if errors.As(ToDomain(err), &ve) {
			body["field"] = ve.Field
			body["msg"] = ve.Message
		}
		c.JSON(http.StatusBadRequest, body)
		return err
	}
	return nil
}

func failedFields(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fieldPath(fe)] = fe.Tag()
		}
	}
	return out
}
