package market

import (
	"fmt"

	"github.com/rustyeddy/riskdesk/risk"
)

// StandardLot is the number of base currency units in one forex lot.
const StandardLot = 100_000

// QuoteToAccountRate returns how much one unit of the pair's quote
// currency is worth in the account currency. mid is the pair's own mid
// price, needed when the account currency is the base.
func QuoteToAccountRate(in Instrument, accountCurrency string, mid float64) (float64, error) {
	if in.Category != Forex {
		return 0, fmt.Errorf("%s: currency conversion needs a forex pair", in.Name)
	}

	// EURUSD, GBPUSD... on a USD account
	if in.QuoteCurrency == accountCurrency {
		return 1.0, nil
	}

	// USDJPY, USDCAD... on a USD account: mid is quote per base
	if in.BaseCurrency == accountCurrency {
		if mid <= 0 {
			return 0, fmt.Errorf("%w: mid %v", risk.ErrInvalidArgument, mid)
		}
		return 1.0 / mid, nil
	}

	return 0, fmt.Errorf(
		"cross conversion not implemented for %s → %s",
		in.QuoteCurrency,
		accountCurrency,
	)
}

// PointValue is the account currency value of a one point move on one
// standard lot of a forex pair.
func PointValue(in Instrument, accountCurrency string, mid float64) (float64, error) {
	rate, err := QuoteToAccountRate(in, accountCurrency, mid)
	if err != nil {
		return 0, err
	}
	return in.Point * StandardLot * rate, nil
}
