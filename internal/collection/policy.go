package collection

import "time"

// KeyFunc extracts the unique id of an item.
type KeyFunc[T any] func(T) string

// FullPolicy decides what Add does once a bounded collection is at capacity.
type FullPolicy int

const (
	RejectWhenFull FullPolicy = iota
	EvictOldest
)

// Placement decides where new items land.
type Placement int

const (
	Append Placement = iota
	Prepend
)

// Policy describes one collection instance.
type Policy[T any] struct {
	// Name is the persisted key suffix and the logging/metrics label.
	Name string
	Key  KeyFunc[T]
	// Capacity of 0 means unbounded.
	Capacity  int
	OnFull    FullPolicy
	Placement Placement
	// Merge updates an existing entry in place when the same id is added
	// again. When nil a duplicate add is a no-op.
	Merge func(existing, incoming T) T
	// ReplaceOnAdd removes an existing entry with the same id and inserts the
	// incoming one at the placement position. It takes precedence over Merge.
	ReplaceOnAdd bool
	// Expired filters entries out during hydration.
	Expired func(item T, now time.Time) bool
	// Valid rejects persisted entries that break the collection's item
	// invariants; failing entries are dropped during hydration.
	Valid func(item T) error
}

// Outcome reports what Add did.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeInserted
	OutcomeMerged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeMerged:
		return "merged"
	default:
		return "unchanged"
	}
}

// oldestIndex is the position evicted first for the given placement.
func (p Policy[T]) oldestIndex(n int) int {
	if p.Placement == Prepend {
		return n - 1
	}
	return 0
}
