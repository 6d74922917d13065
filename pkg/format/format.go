// Package format renders dashboard values for display in en-US conventions.
package format

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// VoteResult capitalises yes/no and shortens long comma lists to three items plus a count.
func VoteResult(result string) string {
	return voteResult(result, 3)
}

// VoteResultFull is VoteResult without truncation.
func VoteResultFull(result string) string {
	return voteResult(result, 0)
}

func voteResult(result string, limit int) string {
	if result == "" {
		return "N/A"
	}
	switch strings.ToLower(result) {
	case "yes", "no":
		return strings.ToUpper(result[:1]) + result[1:]
	}
	if !strings.Contains(result, ",") {
		return result
	}
	items := strings.Split(result, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	if limit <= 0 || len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + " +" + Number(float64(len(items)-limit), 0, 0) + " more"
}

// Wallet shortens addresses longer than 12 characters to "abcdef...uvwxyz".
func Wallet(wallet string) string {
	if wallet == "" {
		return "Unknown"
	}
	if len(wallet) > 12 {
		return wallet[:6] + "..." + wallet[len(wallet)-6:]
	}
	return wallet
}

// Number groups thousands and keeps between minDecimals and maxDecimals fraction digits.
func Number(v float64, minDecimals, maxDecimals int) string {
	if maxDecimals < minDecimals {
		maxDecimals = minDecimals
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(minDecimals),
		number.MaxFractionDigits(maxDecimals),
	))
}

// Currency renders "1,234.5 ATLAS". An empty currency means ATLAS.
func Currency(v float64, currency string) string {
	if currency == "" {
		currency = "ATLAS"
	}
	return Number(v, 0, 2) + " " + currency
}

// USD renders "$1,234.5000", with the sign ahead of the symbol.
func USD(v float64) string {
	if v < 0 {
		return "-$" + Number(-v, 4, 4)
	}
	return "$" + Number(v, 4, 4)
}

// VotingPower renders power with exactly two decimals.
func VotingPower(v float64) string {
	return Number(v, 2, 2)
}

// Date renders "Jan 10, 2024, 03:04 PM" in loc. The zero time is "N/A".
func Date(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "N/A"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("Jan 2, 2006, 03:04 PM")
}
