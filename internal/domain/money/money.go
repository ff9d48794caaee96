package money

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrCurrencyMismatch    = errors.New("money: currency mismatch")
	ErrUnsupportedCurrency = errors.New("money: unsupported currency")
)

type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	BTC Currency = "BTC"
	ETH Currency = "ETH"
)

// ParseCurrency validates a currency code against the supported set.
func ParseCurrency(code string) (Currency, error) {
	switch c := Currency(code); c {
	case USD, EUR, GBP, BTC, ETH:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
}

// Money pairs an exact decimal amount with a currency code. Values are
// immutable; arithmetic returns a new Money and requires matching currencies.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

func New(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

func (m Money) String() string {
	return m.Amount.String() + " " + string(m.Currency)
}

// wire representation: the amount travels as an exact decimal string,
// never as a binary float
type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.Amount.String(),
		Currency: string(m.Currency),
	})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return fmt.Errorf("money: parse amount: %w", err)
	}
	currency, err := ParseCurrency(raw.Currency)
	if err != nil {
		return err
	}
	m.Amount = amount
	m.Currency = currency
	return nil
}
