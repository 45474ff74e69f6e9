package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// PartnerHours is one roster entry: a partner and the hours they
	// worked in the pooling period. Hours may be fractional.
	PartnerHours struct {
		Name  string          `json:"name"`
		Hours decimal.Decimal `json:"hours"`
	}

	// DistributionInput is everything the engine needs for one
	// distribution: the pooled cash total and the roster, in the order
	// the payouts should come back.
	DistributionInput struct {
		TotalAmount Money          `json:"total_amount"`
		Partners    []PartnerHours `json:"partners"`
	}

	// PartnerPayout is one partner's share of the pool. BillBreakdown
	// is empty until a denomination allocation runs; once populated it
	// sums exactly to Payout.
	PartnerPayout struct {
		Name          string               `json:"name"`
		Hours         decimal.Decimal      `json:"hours"`
		Payout        Money                `json:"payout"`
		BillBreakdown []BillBreakdownEntry `json:"bill_breakdown,omitempty"`
	}

	// DistributionData is the engine's output. The payouts always sum
	// to TotalAmount to the cent; HourlyRate is the 2-decimal display
	// rate, not the exact rate used internally.
	DistributionData struct {
		HourlyRate     Money           `json:"hourly_rate"`
		TotalAmount    Money           `json:"total_amount"`
		TotalHours     decimal.Decimal `json:"total_hours"`
		PartnerPayouts []PartnerPayout `json:"partner_payouts"`
	}
)

// TotalHours sums the roster's hours.
func (in DistributionInput) TotalHours() decimal.Decimal {
	total := decimal.Zero
	for _, p := range in.Partners {
		total = total.Add(p.Hours)
	}
	return total
}

// Validate checks the structural invariants of a distribution request.
// All violations are reported together, wrapped in ErrInvalidInput.
func (in DistributionInput) Validate() error {
	var problems []string

	if in.TotalAmount.Cents <= 0 {
		problems = append(problems, "total amount must be positive")
	}
	if len(in.Partners) == 0 {
		problems = append(problems, "partner roster is empty")
	}
	for i, p := range in.Partners {
		if strings.TrimSpace(p.Name) == "" {
			problems = append(problems, fmt.Sprintf("partner %d has an empty name", i))
		}
		if p.Hours.IsNegative() {
			problems = append(problems, fmt.Sprintf("partner %q has negative hours", p.Name))
		}
	}
	if len(in.Partners) > 0 && !in.TotalHours().IsPositive() {
		problems = append(problems, "total hours must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// Compute splits the total amount across the roster in proportion to
// hours worked and reconciles rounding so the payouts sum exactly to
// the total. Bill breakdowns are left empty; see Allocate.
//
// The exact (unrounded) hourly rate is used for each partner's raw
// share. Per-partner shares are rounded half-up to the cent, then the
// leftover cents are distributed one at a time: a positive discrepancy
// goes to the partners whose raw share lost the most in rounding, a
// negative one is taken from the partners that gained the most. Ties
// break by roster order, so the result is deterministic.
func Compute(in DistributionInput) (DistributionData, error) {
	if err := in.Validate(); err != nil {
		return DistributionData{}, err
	}

	totalHours := in.TotalHours()
	rate := in.TotalAmount.Decimal().Div(totalHours)

	payouts := make([]PartnerPayout, len(in.Partners))
	fracs := make([]decimal.Decimal, len(in.Partners))
	var roundedSum int64
	for i, p := range in.Partners {
		rawCents := p.Hours.Mul(rate).Shift(2)
		rounded := rawCents.Round(0).IntPart()
		fracs[i] = rawCents.Sub(rawCents.Floor())
		payouts[i] = PartnerPayout{
			Name:   p.Name,
			Hours:  p.Hours,
			Payout: Money{Cents: rounded},
		}
		roundedSum += rounded
	}

	discrepancy := in.TotalAmount.Cents - roundedSum
	reconcile(payouts, fracs, discrepancy)

	return DistributionData{
		HourlyRate:     Money{Cents: rate.Shift(2).Round(0).IntPart()},
		TotalAmount:    in.TotalAmount,
		TotalHours:     totalHours,
		PartnerPayouts: payouts,
	}, nil
}

// reconcile spreads discrepancy cents over payouts one at a time.
// A stable sort keeps roster order as the tie-break; unordered maps
// must never be involved here or the result stops being deterministic.
func reconcile(payouts []PartnerPayout, fracs []decimal.Decimal, discrepancy int64) {
	if discrepancy == 0 || len(payouts) == 0 {
		return
	}

	order := make([]int, len(payouts))
	for i := range order {
		order[i] = i
	}

	if discrepancy > 0 {
		// Largest fractional remainder first: those partners lost the
		// most to rounding down.
		sort.SliceStable(order, func(a, b int) bool {
			return fracs[order[a]].GreaterThan(fracs[order[b]])
		})
		for i := 0; discrepancy > 0; i = (i + 1) % len(order) {
			payouts[order[i]].Payout.Cents++
			discrepancy--
		}
		return
	}

	// Smallest fractional remainder first. Skip zero payouts so no
	// partner ever goes negative; a negative discrepancy means the
	// rounded sum exceeds the total, so some payout is always positive.
	sort.SliceStable(order, func(a, b int) bool {
		return fracs[order[a]].LessThan(fracs[order[b]])
	})
	for i := 0; discrepancy < 0; i = (i + 1) % len(order) {
		if payouts[order[i]].Payout.Cents == 0 {
			continue
		}
		payouts[order[i]].Payout.Cents--
		discrepancy++
	}
}
