package pricing

import (
	stdErrors "errors"
	"strings"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func discountValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		catalog.RegisterDecimal(validate)
		validate.RegisterStructValidation(discountRange, catalog.Discount{})
	})
	return validate
}

// discountRange rejects an active percentage discount outside [0,100].
func discountRange(sl validator.StructLevel) {
	d := sl.Current().Interface().(catalog.Discount)
	if d.IsActive && d.Type == catalog.DiscountPercentage && d.Value.GreaterThan(hundred) {
		sl.ReportError(d.Value, "Value", "value", "lte", "100")
	}
}

// ValidateDiscount is the gate in front of EffectiveUnitPrice: out-of-range
// discounts are rejected here so the engine never has to clamp.
func ValidateDiscount(d catalog.Discount) error {
	err := discountValidator().Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stdErrors.As(err, &verrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount")
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount").WithDetails(details)
}
