// Package budget summarizes the expense ledger per currency.
package budget

import (
	"sort"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Total is the sum of the expenses in one currency.
type Total struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Display  string          `json:"display"`
	Count    int             `json:"count"`
}

// DateTotals groups the totals of one calendar day.
type DateTotals struct {
	Date   string  `json:"date"`
	Totals []Total `json:"totals"`
}

// Summary is the ledger overview shown next to the expense list.
type Summary struct {
	Totals   []Total            `json:"totals"`
	ByDate   []DateTotals       `json:"byDate"`
	ByMethod map[string][]Total `json:"byMethod"`
	Refunded []Total            `json:"refunded"`
	Pending  []Total            `json:"refundPending"`
}

// Summarize totals expenses per currency. When date is not empty only the
// expenses of that day count. Currencies are listed alphabetically and dates
// newest first.
func Summarize(expenses []types.Expense, date string) Summary {
	all := newSums()
	refunded := newSums()
	pending := newSums()
	byDate := make(map[string]*sums)
	byMethod := make(map[string]*sums)

	for _, e := range expenses {
		if date != "" && e.Date != date {
			continue
		}
		all.add(e)
		if byDate[e.Date] == nil {
			byDate[e.Date] = newSums()
		}
		byDate[e.Date].add(e)
		if byMethod[e.PaymentMethod] == nil {
			byMethod[e.PaymentMethod] = newSums()
		}
		byMethod[e.PaymentMethod].add(e)
		switch e.TaxRefund {
		case types.TaxRefundDone:
			refunded.add(e)
		case types.TaxRefundPending:
			pending.add(e)
		}
	}

	s := Summary{
		Totals:   all.totals(),
		ByDate:   []DateTotals{},
		ByMethod: make(map[string][]Total, len(byMethod)),
		Refunded: refunded.totals(),
		Pending:  pending.totals(),
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	for _, d := range dates {
		s.ByDate = append(s.ByDate, DateTotals{Date: d, Totals: byDate[d].totals()})
	}
	for m, ms := range byMethod {
		s.ByMethod[m] = ms.totals()
	}
	return s
}

// Format renders amount in currency the way go-money displays it, for
// example ₩13,000. Unknown currencies fall back to the plain decimal and code.
func Format(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.String() + " " + currency
	}
	// go-money counts in minor units.
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

type sums struct {
	amount map[string]decimal.Decimal
	count  map[string]int
}

func newSums() *sums {
	return &sums{amount: make(map[string]decimal.Decimal), count: make(map[string]int)}
}

func (s *sums) add(e types.Expense) {
	s.amount[e.Currency] = s.amount[e.Currency].Add(e.Amount)
	s.count[e.Currency]++
}

func (s *sums) totals() []Total {
	codes := make([]string, 0, len(s.amount))
	for c := range s.amount {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	out := make([]Total, 0, len(codes))
	for _, c := range codes {
		out = append(out, Total{
			Currency: c,
			Amount:   s.amount[c],
			Display:  Format(s.amount[c], c),
			Count:    s.count[c],
		})
	}
	return out
}
