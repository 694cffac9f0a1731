package handler

import (
	"errors"
	"net/http"
	"reflect"

	"kasirless/internal/apierror"
	"kasirless/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeDomainError maps the apperr taxonomy onto HTTP statuses and writes the
// coded envelope. Anything outside the taxonomy becomes a logged 500.
func writeDomainError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, apperr.ErrOrderNotFound),
		errors.Is(err, apperr.ErrTableNotFound):
		status = http.StatusNotFound
	case apperr.IsConflict(err):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrPaymentProviderUnavailable):
		status = http.StatusBadGateway
	default:
		if apperr.Code(err) == "internal_error" {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
			return
		}
	}
	c.JSON(status, apierror.NewCoded(apperr.Code(err), err.Error()))
}
