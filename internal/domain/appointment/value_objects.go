package appointment

import "errors"

var ErrNonPositiveFee = errors.New("fee must be positive")

type Money struct {
	cents    int64
	currency string
}

// NewMoney rejects non-positive amounts; a free appointment is recorded
// elsewhere, never as a zero fee.
func NewMoney(cents int64, currency string) (Money, error) {
	if cents <= 0 {
		return Money{}, ErrNonPositiveFee
	}
	if currency == "" {
		currency = "USD"
	}
	return Money{cents: cents, currency: currency}, nil
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Currency() string {
	return m.currency
}
