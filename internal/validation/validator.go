package validation

import (
	"errors"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
)

// New returns a configured validator: field names follow json tags and
// decimal amounts are compared as numbers by gte/lte.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// decimal.Decimal is a struct, so numeric tags such as gte do not apply to it.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterStructValidation(promotionStructValidation, CreatePromotionRequest{})

	return v
}

// promotionStructValidation checks the cross-field rules of a new promotion.
func promotionStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreatePromotionRequest)

	if req.EndDate.Before(req.StartDate) {
		sl.ReportError(req.EndDate, "end_date", "EndDate", "gtefield_start_date", "")
	}
	if req.Type == "percentage" && req.Value.GreaterThan(decimal.NewFromInt(100)) {
		sl.ReportError(req.Value, "value", "Value", "lte_100", "")
	}
}

// ToDomain converts validator errors into a domain.ValidationError for the
// first failing field. Other errors pass through untouched.
func ToDomain(err error) error {
	if err == nil {
		return nil
	}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return domain.Invalid(fieldPath(fe), "failed %q check", fe.Tag())
	}
	var inv *validatorv10.InvalidValidationError
	if errors.As(err, &inv) {
		return domain.Invalid("", "%s", inv.Error())
	}
	return err
}

// fieldPath drops the root struct name: "CreateInput.contact.email" -> "contact.email".
func fieldPath(fe validatorv10.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
