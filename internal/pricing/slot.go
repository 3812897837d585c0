package pricing

import (
	"strings"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

type SlotStatus string

const (
	SlotEmpty      SlotStatus = "empty"
	SlotValidating SlotStatus = "validating"
	SlotApplied    SlotStatus = "applied"
	SlotRejected   SlotStatus = "rejected"
)

// SlotState is the single active-coupon slot of a cart.
//
// Status describes the latest attempt. The applied coupon is tracked
// separately: while a new code validates, or after it is rejected, the
// previously applied coupon stays in effect until it is replaced or cleared.
type SlotState struct {
	status    SlotStatus
	pending   string
	seq       uint64
	applied   *Coupon
	rejection *Rejection
}

// Ticket identifies one validation attempt.
type Ticket struct {
	Code string
	Seq  uint64
}

func (s *SlotState) Status() SlotStatus {
	if s.status == "" {
		return SlotEmpty
	}
	return s.status
}

// Applied returns the coupon currently in effect, if any.
func (s *SlotState) Applied() *Coupon {
	return s.applied
}

func (s *SlotState) Rejection() *Rejection {
	return s.rejection
}

// Pending returns the code being validated.
func (s *SlotState) Pending() string {
	return s.pending
}

// Begin moves the slot to Validating for code and supersedes any earlier
// attempt still in flight.
func (s *SlotState) Begin(code string) Ticket {
	s.seq++
	s.status = SlotValidating
	s.pending = NormalizeCode(code)
	s.rejection = nil
	return Ticket{Code: s.pending, Seq: s.seq}
}

// Resolve applies coupon for the attempt identified by t, replacing any
// previously applied coupon.
func (s *SlotState) Resolve(t Ticket, coupon Coupon) error {
	if err := s.current(t); err != nil {
		return err
	}
	c := coupon
	s.applied = &c
	s.status = SlotApplied
	s.pending = ""
	return nil
}

// Reject records a definite refusal for t; the previous coupon is kept.
func (s *SlotState) Reject(t Ticket, rejection Rejection) error {
	if err := s.current(t); err != nil {
		return err
	}
	r := rejection
	s.rejection = &r
	s.status = SlotRejected
	s.pending = ""
	return nil
}

// Abort ends t without a verdict, e.g. after a transient failure.
func (s *SlotState) Abort(t Ticket) error {
	if err := s.current(t); err != nil {
		return err
	}
	s.pending = ""
	s.settle()
	return nil
}

// Acknowledge leaves the Rejected state once the reason has been shown.
func (s *SlotState) Acknowledge() {
	if s.status == SlotRejected {
		s.rejection = nil
		s.settle()
	}
}

// Clear empties the slot and supersedes any attempt in flight.
func (s *SlotState) Clear() {
	s.seq++
	s.status = SlotEmpty
	s.pending = ""
	s.applied = nil
	s.rejection = nil
}

// Refresh replaces the terms of the applied coupon after a successful
// re-validation. It reports false when code is no longer the applied one.
func (s *SlotState) Refresh(code string, coupon Coupon) bool {
	if s.applied == nil || s.applied.Code != NormalizeCode(code) {
		return false
	}
	c := coupon
	s.applied = &c
	return true
}

// Drop removes the applied coupon after a failed re-validation.
func (s *SlotState) Drop(rejection Rejection) {
	s.Clear()
	r := rejection
	s.rejection = &r
}

func (s *SlotState) settle() {
	if s.applied != nil {
		s.status = SlotApplied
		return
	}
	s.status = SlotEmpty
}

func (s *SlotState) current(t Ticket) error {
	if s.status != SlotValidating || t.Seq != s.seq || t.Code != s.pending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "coupon validation was superseded").
			WithDetails(map[string]any{"code": t.Code})
	}
	return nil
}

// NormalizeCode trims and upper-cases a promo code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
