package ingest

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/sells-group/coldreach/internal/model"
)

// LeadValidator checks candidate leads against the struct tags on model.Lead.
type LeadValidator struct {
	v *validator.Validate
}

// NewLeadValidator creates a validator with the lead rules registered.
func NewLeadValidator() *LeadValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Only fails on an empty tag name or nil func.
	_ = v.RegisterValidation("trimmed_min", trimmedMin)
	return &LeadValidator{v: v}
}

// trimmedMin requires at least param runes after trimming whitespace.
func trimmedMin(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
}

// Validate returns nil when the lead is usable, otherwise an error naming the
// failing fields.
func (lv *LeadValidator) Validate(l model.Lead) error {
	err := lv.v.Struct(l)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return eris.New(strings.Join(parts, "; "))
}
