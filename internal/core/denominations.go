package core

import (
	"fmt"
)

type (
	// DenominationSet is an ordered, strictly descending list of legal
	// tender unit values. It is fixed configuration: the allocator
	// never mutates it.
	DenominationSet []Money

	// BillBreakdownEntry is the count of one denomination in a payout's
	// physical breakdown. Zero-quantity entries are omitted.
	BillBreakdownEntry struct {
		Denomination Money `json:"denomination"`
		Quantity     int64 `json:"quantity"`
	}
)

// USDDenominations is the default bill and coin set for US dollars.
var USDDenominations = DenominationSet{
	{Cents: 10000}, // $100
	{Cents: 5000},  // $50
	{Cents: 2000},  // $20
	{Cents: 1000},  // $10
	{Cents: 500},   // $5
	{Cents: 100},   // $1
	{Cents: 25},    // quarter
	{Cents: 10},    // dime
	{Cents: 5},     // nickel
	{Cents: 1},     // penny
}

// Validate checks that the set is non-empty, all positive, strictly
// descending, and free of duplicates. It does not verify canonicality
// (the property that makes greedy allocation minimal); a set ending in
// the currency's smallest unit will at least always terminate.
func (set DenominationSet) Validate() error {
	if len(set) == 0 {
		return fmt.Errorf("%w: empty set", ErrInvalidDenominationSet)
	}
	for i, d := range set {
		if d.Cents <= 0 {
			return fmt.Errorf("%w: denomination %s is not positive", ErrInvalidDenominationSet, d)
		}
		if i > 0 && d.Cents >= set[i-1].Cents {
			return fmt.Errorf("%w: %s does not descend from %s", ErrInvalidDenominationSet, d, set[i-1])
		}
	}
	return nil
}

// Allocate decomposes a payout into bill counts, greedy largest
// denomination first. A zero payout yields an empty breakdown. Returns
// ErrUnrepresentableAmount when a nonzero remainder survives the whole
// set, which signals a denomination-configuration defect rather than a
// bad request.
//
// Greedy gives the minimal bill count for canonical currency sets
// (every real-world cash system); that assumption is not verified for
// arbitrary configured sets.
func Allocate(payout Money, set DenominationSet) ([]BillBreakdownEntry, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if payout.Cents < 0 {
		return nil, fmt.Errorf("%w: negative payout %s", ErrInvalidInput, payout)
	}

	var breakdown []BillBreakdownEntry
	remaining := payout.Cents
	for _, d := range set {
		if remaining == 0 {
			break
		}
		quantity := remaining / d.Cents
		if quantity > 0 {
			breakdown = append(breakdown, BillBreakdownEntry{Denomination: d, Quantity: quantity})
			remaining -= quantity * d.Cents
		}
	}
	if remaining != 0 {
		return nil, fmt.Errorf("%w: %s leaves %d cents after %s",
			ErrUnrepresentableAmount, payout, remaining, set[len(set)-1])
	}
	return breakdown, nil
}

// Inventory tracks a finite pool of physical bills across successive
// allocations, for when the cash on hand is constrained. Counts are
// positionally aligned with the set; it is not safe for concurrent use.
type Inventory struct {
	set    DenominationSet
	counts []int64
}

// NewInventory builds an inventory over set with the given available
// count per denomination. counts must align with set one to one.
func NewInventory(set DenominationSet, counts []int64) (*Inventory, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if len(counts) != len(set) {
		return nil, fmt.Errorf("%w: %d counts for %d denominations",
			ErrInvalidDenominationSet, len(counts), len(set))
	}
	for i, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative count for %s", ErrInvalidDenominationSet, set[i])
		}
	}
	inv := &Inventory{set: set, counts: make([]int64, len(counts))}
	copy(inv.counts, counts)
	return inv, nil
}

// Remaining reports the bills still available for one denomination.
func (inv *Inventory) Remaining(d Money) int64 {
	for i, s := range inv.set {
		if s.Cents == d.Cents {
			return inv.counts[i]
		}
	}
	return 0
}

// Allocate works like the package-level Allocate but never hands out
// more of a denomination than the pool holds, falling through to
// smaller ones, and debits the pool on success. The pool is untouched
// when an error is returned. Still a greedy policy: it can report
// ErrInsufficientInventory for amounts a smarter split could cover.
func (inv *Inventory) Allocate(payout Money) ([]BillBreakdownEntry, error) {
	if payout.Cents < 0 {
		return nil, fmt.Errorf("%w: negative payout %s", ErrInvalidInput, payout)
	}

	var breakdown []BillBreakdownEntry
	used := make([]int64, len(inv.set))
	remaining := payout.Cents
	for i, d := range inv.set {
		if remaining == 0 {
			break
		}
		quantity := remaining / d.Cents
		if quantity > inv.counts[i] {
			quantity = inv.counts[i]
		}
		if quantity > 0 {
			breakdown = append(breakdown, BillBreakdownEntry{Denomination: d, Quantity: quantity})
			used[i] = quantity
			remaining -= quantity * d.Cents
		}
	}
	if remaining != 0 {
		// Distinguish a profile defect from a cash shortfall: if the
		// unconstrained allocator also fails, the set itself is broken.
		if _, err := Allocate(payout, inv.set); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s short by %d cents", ErrInsufficientInventory, payout, remaining)
	}
	for i, n := range used {
		inv.counts[i] -= n
	}
	return breakdown, nil
}
