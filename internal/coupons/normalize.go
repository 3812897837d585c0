package coupons

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func responseValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		catalog.RegisterDecimal(validate)
		validate.RegisterStructValidation(responseShape, Response{})
	})
	return validate
}

func responseShape(sl validator.StructLevel) {
	resp := sl.Current().Interface().(Response)
	if resp.Valid == nil || !*resp.Valid {
		return
	}
	switch pricing.CouponType(resp.DiscountType) {
	case "":
		sl.ReportError(resp.DiscountType, "DiscountType", "discount_type", "required", "")
	case pricing.CouponPercentage:
		if resp.DiscountValue == nil {
			sl.ReportError(resp.DiscountValue, "DiscountValue", "discount_value", "required", "")
		} else if resp.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			sl.ReportError(resp.DiscountValue, "DiscountValue", "discount_value", "lte", "100")
		}
	case pricing.CouponFixed:
		if resp.DiscountValue == nil {
			sl.ReportError(resp.DiscountValue, "DiscountValue", "discount_value", "required", "")
		}
	}
}

var knownReasons = map[string]pricing.RejectReason{
	string(pricing.ReasonExpired):      pricing.ReasonExpired,
	string(pricing.ReasonBelowMinimum): pricing.ReasonBelowMinimum,
	string(pricing.ReasonRestricted):   pricing.ReasonRestricted,
	string(pricing.ReasonEmptyCart):    pricing.ReasonEmptyCart,
}

// Normalize maps one backend response onto the canonical coupon model. Any
// shape it does not recognize is a CodeDataIntegrity error; it never guesses
// alternate field names.
func Normalize(requestedCode string, resp Response) (Verdict, error) {
	if err := responseValidator().Struct(resp); err != nil {
		return Verdict{}, integrityError(err)
	}

	code := pricing.NormalizeCode(requestedCode)
	if returned := pricing.NormalizeCode(resp.Code); returned != "" && code != "" && returned != code {
		return Verdict{}, pkgerrors.New(pkgerrors.CodeDataIntegrity, "coupon response is for a different code").
			WithDetails(map[string]any{"requested": code, "returned": returned})
	}
	if code == "" {
		code = pricing.NormalizeCode(resp.Code)
	}

	if !*resp.Valid {
		reason, ok := knownReasons[strings.ToLower(strings.TrimSpace(resp.RejectReason))]
		if !ok {
			reason = pricing.ReasonInvalid
		}
		message := strings.TrimSpace(resp.Message)
		if message == "" {
			message = fmt.Sprintf("coupon %s is not valid", code)
		}
		return Verdict{Rejection: &pricing.Rejection{Reason: reason, Message: message}}, nil
	}

	coupon := pricing.Coupon{
		Code:              code,
		DiscountType:      pricing.CouponType(resp.DiscountType),
		DiscountValue:     decimal.Zero,
		MaxDiscountAmount: resp.MaxDiscountAmount,
		MinimumPurchase:   resp.MinimumPurchase,
		ExpiresAt:         resp.ExpiresAt,
	}
	if resp.DiscountValue != nil {
		coupon.DiscountValue = *resp.DiscountValue
	}
	if resp.FreeShipping != nil {
		coupon.FreeShipping = *resp.FreeShipping
	}
	if coupon.DiscountType == pricing.CouponFreeShipping {
		coupon.FreeShipping = true
	}
	if r := resp.Restrictions; r != nil {
		coupon.Restrictions = pricing.Restrictions{
			IncludeCategories: r.IncludeCategories,
			ExcludeCategories: r.ExcludeCategories,
			IncludeProducts:   r.IncludeProducts,
			ExcludeProducts:   r.ExcludeProducts,
		}
	}
	return Verdict{Coupon: &coupon}, nil
}

func integrityError(err error) error {
	var verrs validator.ValidationErrors
	if !stdErrors.As(err, &verrs) {
		return pkgerrors.Wrap(pkgerrors.CodeDataIntegrity, err, "unrecognized coupon response")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return pkgerrors.Wrap(pkgerrors.CodeDataIntegrity, err, "unrecognized coupon response").WithDetails(fields)
}
