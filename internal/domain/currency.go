package domain

import "fmt"

// Currency is one of the fixed set of account currencies. There is no dynamic
// registration: every user gets exactly one account per catalog entry.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	RUB Currency = "RUB"
)

var catalog = []Currency{USD, EUR, GBP, RUB}

// Currencies returns the full currency catalog in a stable order.
func Currencies() []Currency {
	out := make([]Currency, len(catalog))
	copy(out, catalog)
	return out
}

// ParseCurrency validates a currency code against the catalog.
func ParseCurrency(s string) (Currency, error) {
	for _, c := range catalog {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported currency: %q", s)
}

func (c Currency) Valid() bool {
	_, err := ParseCurrency(string(c))
	return err == nil
}

func (c Currency) String() string {
	return string(c)
}
