package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"merchant-service/internal/domain/entities"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[\d\s+\-()]{6,30}$`)

// RequestValidator checks merchant requests against their validate tags and
// turns failures into an *entities.ValidationError with per-field messages.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator registers the notblank and phone validations.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return &RequestValidator{validate: v}
}

// ValidateMerchantRequest returns nil or an *entities.ValidationError.
func (rv *RequestValidator) ValidateMerchantRequest(req entities.MerchantRequest) error {
	err := rv.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]entities.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, entities.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return &entities.ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return fe.Field() + " is required"
	case "email":
		return "invalid email"
	case "phone":
		return "invalid phone number"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// ValidateStatus rejects anything outside the three known statuses.
func ValidateStatus(status entities.MerchantStatus) error {
	if status.Valid() {
		return nil
	}
	return entities.NewValidationError("status",
		fmt.Sprintf("status must be one of ACTIVE, INACTIVE, SUSPENDED; got %q", string(status)))
}
