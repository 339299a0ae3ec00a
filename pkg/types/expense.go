package types

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Payment methods.
const (
	PaymentCard   = "card"
	PaymentCash   = "cash"
	PaymentMobile = "mobile"
)

// Tax refund states.
const (
	TaxRefundDone    = "refunded"
	TaxRefundPending = "pending"
	TaxRefundNone    = "none"
)

// ExpenseDateLayout is the layout of Expense.Date.
const ExpenseDateLayout = "2006-01-02"

var validPaymentMethods = map[string]bool{
	PaymentCard:   true,
	PaymentCash:   true,
	PaymentMobile: true,
}

var validTaxRefunds = map[string]bool{
	TaxRefundDone:    true,
	TaxRefundPending: true,
	TaxRefundNone:    true,
}

// Expense is one entry of the trip's expense ledger.
type Expense struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Date          string          `json:"date"`
	PaymentMethod string          `json:"paymentMethod"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	TaxRefund     string          `json:"taxRefund"`
}

// Normalize trims text fields, upper-cases the currency and fills the
// tax refund default.
func (e *Expense) Normalize() {
	e.Title = strings.TrimSpace(e.Title)
	e.Date = strings.TrimSpace(e.Date)
	e.PaymentMethod = strings.ToLower(strings.TrimSpace(e.PaymentMethod))
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	e.TaxRefund = strings.ToLower(strings.TrimSpace(e.TaxRefund))
	if e.TaxRefund == "" {
		e.TaxRefund = TaxRefundNone
	}
}

// Validate checks the expense fields and returns a *ValidationError naming the
// first bad field.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return Invalid("title", "must not be empty")
	}
	if _, err := time.Parse(ExpenseDateLayout, e.Date); err != nil {
		return Invalid("date", "expected YYYY-MM-DD")
	}
	if !validPaymentMethods[e.PaymentMethod] {
		return Invalid("paymentMethod", "expected card, cash or mobile")
	}
	if !e.Amount.IsPositive() {
		return Invalid("amount", "must be positive")
	}
	if e.Currency == "" || money.GetCurrency(e.Currency) == nil {
		return Invalid("currency", "unknown currency code")
	}
	if !validTaxRefunds[e.TaxRefund] {
		return Invalid("taxRefund", "expected refunded, pending or none")
	}
	return nil
}
