package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/skilltrack/learning-service/internal/errors"
	"github.com/skilltrack/learning-service/internal/models"
)

// Validator wraps go-playground/validator with the custom rules this
// service uses and converts failures into the shared ValidationErrors.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

// Struct validates a request struct and returns field-level errors.
func (v *Validator) Struct(s interface{}) apperrors.ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return apperrors.ToValidationErrors(err)
	}
	return nil
}

// Custom validation functions

func ValidateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleEmployee,
		models.RoleManager,
		models.RoleAdmin,
		models.RoleSysadmin,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func ValidateKpiScope(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == string(models.KpiScopeOrg) || value == string(models.KpiScopeTeam)
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("user_role", ValidateUserRole)
	validate.RegisterValidation("kpi_scope", ValidateKpiScope)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
