package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts go over the wire as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// currencies the gateway charges without a minor unit
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// MinorFactor is how many gateway units make one major unit (100 paise per rupee).
func MinorFactor(currency string) int64 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return 1
	}
	return 100
}

// ToMinor converts a major-unit amount to the gateway's integer minor unit.
func ToMinor(amount decimal.Decimal, currency string) int64 {
	return amount.Mul(decimal.NewFromInt(MinorFactor(currency))).Round(0).IntPart()
}

// FromMinor converts a gateway amount back to major units.
func FromMinor(minor int64, currency string) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(MinorFactor(currency)))
}
