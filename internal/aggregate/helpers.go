package aggregate

import (
	"math/big"
	"time"
)

const (
	nativeDecimals = 18
	secondsPerDay  = 86400
	isoMillis      = "2006-01-02T15:04:05.000Z"
)

func pow10(decimals int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// FormatTokenAmount renders value scaled down by decimals as an exact decimal string.
func FormatTokenAmount(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	if decimals <= 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	rat := new(big.Rat).SetFrac(abs, pow10(decimals))
	text := rat.FloatString(decimals)
	if sign < 0 {
		return "-" + text
	}
	return text
}

// ToUnits converts a raw integer amount to a float in whole units.
func ToUnits(value *big.Int, decimals int) float64 {
	if value == nil || value.Sign() == 0 {
		return 0
	}
	if decimals <= 0 {
		f, _ := new(big.Float).SetInt(value).Float64()
		return f
	}
	f, _ := new(big.Rat).SetFrac(value, pow10(decimals)).Float64()
	return f
}

// WeiToEth converts wei to ether.
func WeiToEth(value *big.Int) float64 {
	return ToUnits(value, nativeDecimals)
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func monthDayKey(t time.Time) string {
	return t.UTC().Format("01-02")
}

func unixUTC(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}
