package decimals

import (
	"math/big"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/shopspring/decimal"
)

const DefaultDivPrecision = 36

func init() {
	decimal.DivisionPrecision = DefaultDivPrecision
}

// MustFromString convert string to decimal.Decimal. Panic if error.
func MustFromString(s string) decimal.Decimal {
	return utils.Must(decimal.NewFromString(s))
}

// ToDecimal converts an amount of smallest units to a display decimal.
func ToDecimal(value uint128.Uint128, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(value.Big(), -decimals)
}

// FromDecimal converts a display decimal back to an amount of smallest units.
// Fractions below the smallest unit are rejected rather than truncated.
func FromDecimal(value decimal.Decimal, decimals int32) (uint128.Uint128, error) {
	shifted := value.Shift(decimals)
	if !shifted.IsInteger() {
		return uint128.Zero, errors.Errorf("value %s has more than %d decimals", value, decimals)
	}
	if shifted.Sign() < 0 {
		return uint128.Zero, errors.Errorf("value %s is negative", value)
	}
	result, err := uint128.FromBig(shifted.BigInt())
	if err != nil {
		return uint128.Zero, errors.Wrap(err, "value overflows uint128")
	}
	return result, nil
}

// FromBigInt converts a non-negative big integer of smallest units to uint128.
func FromBigInt(value *big.Int) (uint128.Uint128, error) {
	if value.Sign() < 0 {
		return uint128.Zero, errors.Errorf("value %s is negative", value)
	}
	result, err := uint128.FromBig(value)
	if err != nil {
		return uint128.Zero, errors.Wrap(err, "value overflows uint128")
	}
	return result, nil
}
