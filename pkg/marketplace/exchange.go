// Package marketplace aggregates a wallet's marketplace exchanges: directional fetches,
// merge and de-duplication, side decoding, ATLAS normalisation and summary metrics.
package marketplace

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rogue-datahub/atlasx/pkg/indexer"
	"github.com/rogue-datahub/atlasx/pkg/utils"
	"github.com/shopspring/decimal"
)

// Well-known mints.
const (
	USDCMint  = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	ATLASMint = "ATLASXmbPQxBUYbxPsV97usA3fPQYEqzQBUHgiFCUsXx"
)

// Side of a trade. Raw sides are from the initializer's perspective.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
	NA   Side = "N/A"
)

// Exchange is one marketplace fill.
type Exchange struct {
	Asset            string          `json:"asset"`
	Amount           decimal.Decimal `json:"amount"`
	Pair             string          `json:"pair"`
	Price            decimal.Decimal `json:"price"`
	Side             Side            `json:"side"`
	Fee              decimal.Decimal `json:"fee"`
	Timestamp        time.Time       `json:"timestamp"`
	OrderInitializer string          `json:"orderInitializer"`
	OrderTaker       string          `json:"orderTaker"`
	InstructionIndex int             `json:"instructionIndex"`

	// rawTimestamp is the indexer's own rendering, used for identity.
	rawTimestamp string
}

// Key is the identity of an exchange: timestamp, instruction index and asset.
func (e Exchange) Key() string {
	ts := e.rawTimestamp
	if ts == "" {
		ts = e.Timestamp.Format(time.RFC3339Nano)
	}
	return ts + "-" + strconv.Itoa(e.InstructionIndex) + "-" + e.Asset
}

// Total is amount * price + fee, in the pair's unit.
func (e Exchange) Total() decimal.Decimal {
	return e.Amount.Mul(e.Price).Add(e.Fee)
}

// FromNode converts an indexer record. Empty numeric fields read as zero;
// malformed ones and unparseable timestamps are errors.
func FromNode(n indexer.ExchangeNode, loc *time.Location) (Exchange, error) {
	ts, err := utils.ParseTimestamp(n.Timestamp, loc)
	if err != nil {
		return Exchange{}, fmt.Errorf("exchange %s/%d: %w", n.Asset, n.InstructionIndex, err)
	}
	amount, err := parseDecimal(n.Amount)
	if err != nil {
		return Exchange{}, fmt.Errorf("exchange %s/%d amount: %w", n.Asset, n.InstructionIndex, err)
	}
	price, err := parseDecimal(n.Price)
	if err != nil {
		return Exchange{}, fmt.Errorf("exchange %s/%d price: %w", n.Asset, n.InstructionIndex, err)
	}
	fee, err := parseDecimal(n.Fee)
	if err != nil {
		return Exchange{}, fmt.Errorf("exchange %s/%d fee: %w", n.Asset, n.InstructionIndex, err)
	}
	return Exchange{
		Asset:            n.Asset,
		Amount:           amount,
		Pair:             n.Pair,
		Price:            price,
		Side:             Side(n.Side),
		Fee:              fee,
		Timestamp:        ts,
		OrderInitializer: n.OrderInitializer,
		OrderTaker:       n.OrderTaker,
		InstructionIndex: n.InstructionIndex,
		rawTimestamp:     n.Timestamp,
	}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
