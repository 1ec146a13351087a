package handler

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/infra"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal is a struct; expose it as a float so gte/lte work.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	return validateRequest(c, req)
}

// bindOptional is bindAndValidate for endpoints whose body may be absent.
// An empty body leaves req at its zero value, whatever the Content-Length.
func bindOptional(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	return validateRequest(c, req)
}

func validateRequest(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError writes the status for an expected error. Anything else is
// handed to middleware.ErrorHandler through c.Error.
func respondError(c *gin.Context, err error) {
	switch {
	case apierror.KindOf(err) != apierror.KindInternal:
		c.JSON(apierror.KindOf(err).Status(), apierror.New(err.Error()))
	case errors.Is(err, storage.ErrNotConnected), errors.Is(err, infra.ErrCircuitOpen):
		c.JSON(http.StatusServiceUnavailable, apierror.New("Storage backend unavailable"))
	default:
		_ = c.Error(err)
	}
}

// pathID parses an integer path parameter, writing 400 when it is not one.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid "+name))
		return 0, false
	}
	return id, true
}
