package pricing

import (
	"testing"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

func TestSlotAppliedAndReplaced(t *testing.T) {
	var slot SlotState
	if slot.Status() != SlotEmpty {
		t.Fatalf("new slot should be empty, got %s", slot.Status())
	}

	a := slot.Begin(" save10 ")
	if a.Code != "SAVE10" || slot.Status() != SlotValidating {
		t.Fatalf("unexpected ticket %+v status %s", a, slot.Status())
	}
	if err := slot.Resolve(a, Coupon{Code: "SAVE10"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	b := slot.Begin("OFF50")
	if slot.Applied() == nil || slot.Applied().Code != "SAVE10" {
		t.Fatal("previous coupon must stay applied while the next code validates")
	}
	if err := slot.Resolve(b, Coupon{Code: "OFF50"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if slot.Applied().Code != "OFF50" || slot.Status() != SlotApplied {
		t.Fatalf("expected OFF50 applied, got %+v", slot.Applied())
	}
}

func TestSlotStaleResponseIsDiscarded(t *testing.T) {
	var slot SlotState
	first := slot.Begin("FIRST")
	second := slot.Begin("SECOND")

	err := slot.Resolve(first, Coupon{Code: "FIRST"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected stale conflict, got %v", err)
	}
	if slot.Applied() != nil || slot.Pending() != "SECOND" {
		t.Fatalf("stale response must not change the slot")
	}
	if err := slot.Resolve(second, Coupon{Code: "SECOND"}); err != nil {
		t.Fatalf("resolve current: %v", err)
	}
}

func TestSlotRejectKeepsPreviousCoupon(t *testing.T) {
	var slot SlotState
	a := slot.Begin("A")
	_ = slot.Resolve(a, Coupon{Code: "A"})

	b := slot.Begin("B")
	if err := slot.Reject(b, Rejection{Reason: ReasonExpired, Message: "expired"}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if slot.Status() != SlotRejected || slot.Rejection().Reason != ReasonExpired {
		t.Fatalf("expected rejected status, got %s", slot.Status())
	}
	if slot.Applied().Code != "A" {
		t.Fatal("rejection must keep the previously applied coupon")
	}

	slot.Acknowledge()
	if slot.Status() != SlotApplied || slot.Rejection() != nil {
		t.Fatalf("acknowledge should settle on applied, got %s", slot.Status())
	}
}

func TestSlotAbortAndClear(t *testing.T) {
	var slot SlotState
	ticket := slot.Begin("A")
	if err := slot.Abort(ticket); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if slot.Status() != SlotEmpty {
		t.Fatalf("abort without applied coupon should settle on empty, got %s", slot.Status())
	}

	ticket = slot.Begin("A")
	_ = slot.Resolve(ticket, Coupon{Code: "A"})
	inflight := slot.Begin("B")
	slot.Clear()
	if slot.Applied() != nil || slot.Status() != SlotEmpty {
		t.Fatal("clear must empty the slot")
	}
	if err := slot.Resolve(inflight, Coupon{Code: "B"}); err == nil {
		t.Fatal("clear must supersede in-flight validations")
	}
}
