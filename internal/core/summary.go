package core

import "sort"

// TotalBillsNeeded folds all partners' breakdowns into one aggregate
// count per denomination, ordered largest first: the "how much cash to
// bring" summary. Denominations no partner uses are omitted.
func TotalBillsNeeded(payouts []PartnerPayout) []BillBreakdownEntry {
	totals := make(map[int64]int64)
	for _, p := range payouts {
		for _, e := range p.BillBreakdown {
			totals[e.Denomination.Cents] += e.Quantity
		}
	}

	out := make([]BillBreakdownEntry, 0, len(totals))
	for cents, qty := range totals {
		out = append(out, BillBreakdownEntry{Denomination: Money{Cents: cents}, Quantity: qty})
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Denomination.Cents > out[b].Denomination.Cents
	})
	return out
}
