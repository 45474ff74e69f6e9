package core

import (
	"reflect"
	"testing"
)

func TestTotalBillsNeeded(t *testing.T) {
	payouts := []PartnerPayout{
		{Name: "A", BillBreakdown: []BillBreakdownEntry{
			{Denomination: Money{Cents: 2000}, Quantity: 2},
			{Denomination: Money{Cents: 100}, Quantity: 3},
		}},
		{Name: "B", BillBreakdown: []BillBreakdownEntry{
			{Denomination: Money{Cents: 2000}, Quantity: 1},
			{Denomination: Money{Cents: 500}, Quantity: 1},
		}},
		{Name: "idle"}, // empty breakdown contributes nothing
	}

	got := TotalBillsNeeded(payouts)
	want := []BillBreakdownEntry{
		{Denomination: Money{Cents: 2000}, Quantity: 3},
		{Denomination: Money{Cents: 500}, Quantity: 1},
		{Denomination: Money{Cents: 100}, Quantity: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTotalBillsNeededEmpty(t *testing.T) {
	if got := TotalBillsNeeded(nil); len(got) != 0 {
		t.Fatalf("expected empty summary, got %v", got)
	}
}
