package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"rifapos/internal/apierror"
	"rifapos/internal/identity"
	"rifapos/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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

	// Report fields by their JSON (or query) name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

// bindAndValidate binds the JSON body and runs go-playground/validator tags.
// Returns false after attaching a ValidationError; the caller should return
// immediately and let middleware.ErrorHandler write the response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(apierror.NewValidation("", "invalid JSON body: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery binds and validates query-string parameters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		_ = c.Error(apierror.NewValidation("", "invalid query: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		_ = c.Error(apierror.NewValidation(field, validationMessage(field, fe)))
		return false
	}
	_ = c.Error(apierror.NewValidation("", err.Error()))
	return false
}

func validationMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "uuid":
		return field + " must be a UUID"
	case "email":
		return field + " must be a valid e-mail"
	case "min", "max", "gt", "gte", "lt", "lte":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed on %s", field, fe.Tag())
}

// uuidParam parses a path parameter, attaching a ValidationError on failure.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apierror.NewValidation(name, "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// caller returns the Identity resolved by middleware.JWTAuth.
func caller(c *gin.Context) identity.Identity {
	who, _ := middleware.GetIdentity(c)
	return who
}
