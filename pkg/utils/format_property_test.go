package utils

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormatCurrencyKnownValues(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{1234.5, "$1,234.50"},
		{1000000, "$1,000,000.00"},
		{-9876.54, "-$9,876.54"},
		{999.999, "$1,000.00"},
	}

	for _, tt := range tests {
		if got := FormatCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(3.5); got != "+3.50%" {
		t.Errorf("FormatPercent(3.5) = %q", got)
	}
	if got := FormatPercent(-1.25); got != "-1.25%" {
		t.Errorf("FormatPercent(-1.25) = %q", got)
	}
	if got := FormatPercent(0); got != "0.00%" {
		t.Errorf("FormatPercent(0) = %q", got)
	}
}

func TestFormatPnL(t *testing.T) {
	if got := FormatPnL(150); got != "+$150.00" {
		t.Errorf("FormatPnL(150) = %q", got)
	}
	if got := FormatPnL(-42.5); got != "-$42.50" {
		t.Errorf("FormatPnL(-42.5) = %q", got)
	}
}

func TestProperty_FormatCurrencyRoundTrips(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("stripping separators recovers the amount", prop.ForAll(
		func(cents int64) bool {
			amount := float64(cents) / 100
			formatted := FormatCurrency(amount)

			stripped := strings.NewReplacer("$", "", ",", "").Replace(formatted)
			parsed, err := strconv.ParseFloat(stripped, 64)
			if err != nil {
				return false
			}
			return int64(parsed*100+0.5*sign(parsed)) == cents
		},
		gen.Int64Range(-1_000_000_000, 1_000_000_000),
	))

	properties.Property("negative amounts carry a leading minus", prop.ForAll(
		func(cents int64) bool {
			formatted := FormatCurrency(float64(cents) / 100)
			return strings.HasPrefix(formatted, "-$")
		},
		gen.Int64Range(-1_000_000_000, -1),
	))

	properties.TestingRun(t)
}

func TestProperty_FormatQuantityGrouping(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("removing commas recovers the digits", prop.ForAll(
		func(qty int) bool {
			formatted := FormatQuantity(qty)
			return strings.ReplaceAll(formatted, ",", "") == strconv.Itoa(qty)
		},
		gen.IntRange(0, 100_000_000),
	))

	properties.Property("groups after the first are three digits", prop.ForAll(
		func(qty int) bool {
			groups := strings.Split(FormatQuantity(qty), ",")
			for i, g := range groups {
				if i == 0 {
					if len(g) < 1 || len(g) > 3 {
						return false
					}
					continue
				}
				if len(g) != 3 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 100_000_000),
	))

	properties.TestingRun(t)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
