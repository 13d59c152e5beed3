package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex   = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,19}$`)
	licenseRegex = regexp.MustCompile(`^[A-Za-z0-9-]{1,32}$`)
)

const (
	maxPasswordLength = 128
	minPasswordLength = 8
	maxEmailLength    = 254
)

// Professions aceitas no perfil, na ordem em que aparecem no formulário.
var Professions = []string{"pharmacist", "pharmacy_technician", "pharmacy_assistant"}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	_ = validate.RegisterValidation("iban", func(fl validator.FieldLevel) bool {
		return ValidIBAN(fl.Field().String())
	})
	_ = validate.RegisterValidation("bic", func(fl validator.FieldLevel) bool {
		return ValidBIC(fl.Field().String())
	})
	_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("license", func(fl validator.FieldLevel) bool {
		return licenseRegex.MatchString(fl.Field().String())
	})
}

// FieldErrors maps a form field name to a human readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add registra a primeira mensagem de cada campo.
func (fe FieldErrors) Add(field, message string) {
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
}

// Validate runs the struct tags of s and returns FieldErrors when any rule fails.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := FieldErrors{}
	for _, v := range verrs {
		fe.Add(v.Field(), message(v))
	}
	return fe
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "oneof":
		return "Choose one of the listed options"
	case "iban":
		return "Enter a valid IBAN"
	case "bic":
		return "Enter a valid BIC (8 or 11 characters)"
	case "phone":
		return "Enter a valid phone number"
	case "license":
		return "Use letters, digits and dashes only (max 32)"
	case "gtfield":
		return "Must be after " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	default:
		return "Invalid value"
	}
}

func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("email is too long (max %d characters)", maxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password is too long (max %d characters)", maxPasswordLength)
	}
	return nil
}

// ValidateRegistration returns nil when both credentials are acceptable.
func ValidateRegistration(email, password string) FieldErrors {
	fe := FieldErrors{}

	if err := ValidateEmail(email); err != nil {
		fe.Add("email", err.Error())
	}
	if err := ValidatePassword(password); err != nil {
		fe.Add("password", err.Error())
	}

	if len(fe) == 0 {
		return nil
	}
	return fe
}
