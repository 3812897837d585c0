package coupons

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, WithTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func sampleRequest() Request {
	return Request{
		Code:     "save10",
		Subtotal: decimal.NewFromInt(150),
		CartItems: []CartItem{
			{ProductID: "p1", Quantity: 3, UnitPrice: decimal.NewFromInt(50)},
		},
	}
}

func TestValidateNormalizesValidCoupon(t *testing.T) {
	var (
		received  Request
		method    string
		path      string
		decodeErr error
	)
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		decodeErr = json.NewDecoder(r.Body).Decode(&received)
		_, _ = w.Write([]byte(`{"valid":true,"code":"SAVE10","discount_type":"percentage","discount_value":10,"max_discount_amount":20}`))
	})

	verdict, err := client.Validate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if method != http.MethodPost || path != "/coupons/validate" || decodeErr != nil {
		t.Fatalf("unexpected request %s %s (decode err %v)", method, path, decodeErr)
	}
	if !verdict.Valid() {
		t.Fatalf("expected valid verdict, got %+v", verdict)
	}
	coupon := verdict.Coupon
	if coupon.Code != "SAVE10" || coupon.DiscountType != pricing.CouponPercentage {
		t.Fatalf("unexpected coupon %+v", coupon)
	}
	if !coupon.DiscountValue.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected discount value 10, got %s", coupon.DiscountValue)
	}
	if coupon.MaxDiscountAmount == nil || !coupon.MaxDiscountAmount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected max discount 20, got %v", coupon.MaxDiscountAmount)
	}

	if received.Code != "save10" || !received.Subtotal.Equal(decimal.NewFromInt(150)) || len(received.CartItems) != 1 {
		t.Fatalf("unexpected request body %+v", received)
	}
}

func TestValidateRejection(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"valid":false,"reject_reason":"expired","message":"This coupon expired yesterday"}`))
	})

	verdict, err := client.Validate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if verdict.Valid() {
		t.Fatal("expected rejection")
	}
	if verdict.Rejection.Reason != pricing.ReasonExpired || verdict.Rejection.Message != "This coupon expired yesterday" {
		t.Fatalf("unexpected rejection %+v", verdict.Rejection)
	}
}

func TestValidateTimeoutIsTransient(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	start := time.Now()
	_, err := client.Validate(context.Background(), sampleRequest())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 2*time.Second {
		t.Fatalf("timeout not enforced, took %v", elapsed)
	}
}

func TestValidateServerErrorIsTransient(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.Validate(context.Background(), sampleRequest())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !pkgerrors.MetadataFor(pkgerrors.CodeDependency).Retryable {
		t.Fatal("dependency errors must be retryable")
	}
}

func TestValidateUnrecognizedShapeIsIntegrityError(t *testing.T) {
	bodies := map[string]string{
		"missing valid":       `{"isValid":true,"discount_type":"fixed","discount_value":5}`,
		"unknown type":        `{"valid":true,"discount_type":"bogo","discount_value":5}`,
		"missing type":        `{"valid":true,"discount_value":5}`,
		"percentage over 100": `{"valid":true,"discount_type":"percentage","discount_value":150}`,
		"negative value":      `{"valid":true,"discount_type":"fixed","discount_value":-5}`,
		"other code":          `{"valid":true,"code":"OTHER","discount_type":"fixed","discount_value":5}`,
		"not json":            `<html>`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			if _, err := client.Validate(context.Background(), sampleRequest()); !pkgerrors.IsCode(err, pkgerrors.CodeDataIntegrity) {
				t.Fatalf("expected data integrity error, got %v", err)
			}
		})
	}
}

func TestNormalizeFreeShipping(t *testing.T) {
	valid := true
	verdict, err := Normalize("shipfree", Response{Valid: &valid, DiscountType: "free_shipping"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !verdict.Valid() {
		t.Fatal("expected valid verdict")
	}
	coupon := verdict.Coupon
	if !coupon.FreeShipping || !coupon.DiscountValue.IsZero() || coupon.Code != "SHIPFREE" {
		t.Fatalf("unexpected coupon %+v", coupon)
	}
}

func TestNormalizeUnknownReasonFallsBackToInvalid(t *testing.T) {
	invalid := false
	verdict, err := Normalize("x", Response{Valid: &invalid, RejectReason: "usage_limit"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if verdict.Rejection.Reason != pricing.ReasonInvalid {
		t.Fatalf("expected invalid reason, got %q", verdict.Rejection.Reason)
	}
	if !strings.Contains(verdict.Rejection.Message, "X") {
		t.Fatalf("expected message to name the code, got %q", verdict.Rejection.Message)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected blank base url to fail")
	}
}

func TestStaticValidator(t *testing.T) {
	static := NewStatic(pricing.Coupon{Code: "save10", DiscountType: pricing.CouponPercentage, DiscountValue: decimal.NewFromInt(10)})

	verdict, err := static.Validate(context.Background(), Request{Code: " Save10 "})
	if err != nil || !verdict.Valid() {
		t.Fatalf("expected known code to validate, got %+v %v", verdict, err)
	}

	verdict, err = static.Validate(context.Background(), Request{Code: "nope"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if verdict.Valid() || verdict.Rejection.Reason != pricing.ReasonInvalid {
		t.Fatalf("expected invalid rejection, got %+v", verdict)
	}
}
