package core

import (
	"errors"
	"reflect"
	"testing"
)

func set(cents ...int64) DenominationSet {
	out := make(DenominationSet, len(cents))
	for i, c := range cents {
		out[i] = Money{Cents: c}
	}
	return out
}

func TestAllocateGreedyPrefersLargest(t *testing.T) {
	// 47.00 against [20,10,5,1]: greedy takes 2x20 then 1x5 then 2x1,
	// never 2x20 + 7x1.
	got, err := Allocate(Money{Cents: 4700}, set(2000, 1000, 500, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []BillBreakdownEntry{
		{Denomination: Money{Cents: 2000}, Quantity: 2},
		{Denomination: Money{Cents: 500}, Quantity: 1},
		{Denomination: Money{Cents: 100}, Quantity: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAllocateSumsToPayout(t *testing.T) {
	cases := []int64{1, 99, 100, 3334, 4700, 12345, 999999}
	for _, cents := range cases {
		got, err := Allocate(Money{Cents: cents}, USDDenominations)
		if err != nil {
			t.Fatalf("cents=%d unexpected error: %v", cents, err)
		}
		var sum int64
		for _, e := range got {
			if e.Quantity <= 0 {
				t.Fatalf("cents=%d emitted non-positive quantity %d", cents, e.Quantity)
			}
			sum += e.Denomination.Cents * e.Quantity
		}
		if sum != cents {
			t.Fatalf("cents=%d breakdown sums to %d", cents, sum)
		}
	}
}

func TestAllocateZeroPayout(t *testing.T) {
	got, err := Allocate(Money{Cents: 0}, USDDenominations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty breakdown, got %v", got)
	}
}

func TestAllocateUnrepresentable(t *testing.T) {
	// Smallest unit is a nickel: 12.34 leaves 4 cents unpayable.
	_, err := Allocate(Money{Cents: 1234}, set(2000, 1000, 500, 100, 25, 10, 5))
	if !errors.Is(err, ErrUnrepresentableAmount) {
		t.Fatalf("expected ErrUnrepresentableAmount, got %v", err)
	}
}

func TestAllocateInvalidSet(t *testing.T) {
	cases := []struct {
		name string
		set  DenominationSet
	}{
		{"empty", set()},
		{"ascending", set(100, 500)},
		{"duplicate", set(500, 500, 100)},
		{"zero value", set(500, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Allocate(Money{Cents: 100}, tc.set); !errors.Is(err, ErrInvalidDenominationSet) {
				t.Fatalf("expected ErrInvalidDenominationSet, got %v", err)
			}
		})
	}
}

func TestInventoryAllocateFallsThrough(t *testing.T) {
	// Only one $20 in the drawer: 47.00 takes it, then fills from
	// tens and smaller.
	inv, err := NewInventory(set(2000, 1000, 500, 100), []int64{1, 10, 10, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := inv.Allocate(Money{Cents: 4700})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []BillBreakdownEntry{
		{Denomination: Money{Cents: 2000}, Quantity: 1},
		{Denomination: Money{Cents: 1000}, Quantity: 2},
		{Denomination: Money{Cents: 500}, Quantity: 1},
		{Denomination: Money{Cents: 100}, Quantity: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if inv.Remaining(Money{Cents: 2000}) != 0 {
		t.Fatalf("the $20 should be spent")
	}
	if inv.Remaining(Money{Cents: 1000}) != 8 {
		t.Fatalf("expected 8 tens left, got %d", inv.Remaining(Money{Cents: 1000}))
	}
}

func TestInventoryExhaustion(t *testing.T) {
	inv, err := NewInventory(set(2000, 100), []int64{1, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := inv.Allocate(Money{Cents: 2100}); err != nil {
		t.Fatalf("first allocation should succeed: %v", err)
	}

	// Drawer now holds 2 ones; 5.00 cannot be covered.
	_, err = inv.Allocate(Money{Cents: 500})
	if !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("expected ErrInsufficientInventory, got %v", err)
	}
	// Failed allocation must not debit the pool.
	if inv.Remaining(Money{Cents: 100}) != 2 {
		t.Fatalf("failed allocation debited the pool: %d ones left", inv.Remaining(Money{Cents: 100}))
	}
}

func TestInventoryUnrepresentableStaysDistinct(t *testing.T) {
	// Plenty of bills but the set itself cannot make 12.34: that is a
	// configuration defect, not a shortfall.
	inv, err := NewInventory(set(500, 100, 25), []int64{100, 100, 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = inv.Allocate(Money{Cents: 1234})
	if !errors.Is(err, ErrUnrepresentableAmount) {
		t.Fatalf("expected ErrUnrepresentableAmount, got %v", err)
	}
}
