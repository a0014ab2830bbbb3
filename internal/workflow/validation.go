package workflow

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BookingInput is what a visitor submits. Fields not listed here, including
// any status, are dropped during decoding.
type BookingInput struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,phone"`
	Address string `json:"address" validate:"required,min=10"`
	Reason  string `json:"reason" validate:"required,min=5"`
	Message string `json:"message"`
}

// bookingValidator checks BookingInput against a fixed country prefix such
// as "+216": the prefix followed by at least eight digits.
type bookingValidator struct {
	v      *validator.Validate
	prefix string
	digits string
}

func newBookingValidator(prefix string) *bookingValidator {
	bv := &bookingValidator{
		v:      validator.New(),
		prefix: prefix,
		digits: strings.TrimPrefix(prefix, "+"),
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `\d{8,}$`)
	_ = bv.v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	bv.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return bv
}

var phoneNoise = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// normalizePhone coerces the common local spellings onto the prefixed form:
// "00216…", "216…" and a bare eight-digit local number.
func (bv *bookingValidator) normalizePhone(raw string) string {
	p := phoneNoise.Replace(strings.TrimSpace(raw))
	switch {
	case p == "":
		return p
	case strings.HasPrefix(p, "+"):
		return p
	case strings.HasPrefix(p, "00"+bv.digits):
		return "+" + strings.TrimPrefix(p, "00")
	case strings.HasPrefix(p, bv.digits) && len(p) > len(bv.digits)+7:
		return "+" + p
	case len(p) == 8 && isDigits(p):
		return bv.prefix + p
	}
	return p
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (bv *bookingValidator) normalize(in *BookingInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = bv.normalizePhone(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.Reason = strings.TrimSpace(in.Reason)
	in.Message = strings.TrimSpace(in.Message)
}

// check normalizes in place and returns a *ValidationError naming every
// failing field.
func (bv *bookingValidator) check(in *BookingInput) error {
	bv.normalize(in)
	err := bv.v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: bv.message(fe)})
	}
	return out
}

func (bv *bookingValidator) message(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return fe.Field() + " is required"
	}
	switch fe.Field() {
	case "name":
		return "Name must be at least 2 characters"
	case "email":
		return "Invalid email address"
	case "phone":
		return "Phone number must start with " + bv.prefix + " followed by 8 digits"
	case "address":
		return "Please provide a complete address"
	case "reason":
		return "Please describe the reason for consultation"
	}
	return fe.Error()
}
