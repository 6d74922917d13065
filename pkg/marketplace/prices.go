package marketplace

import (
	"time"

	"github.com/rogue-datahub/atlasx/pkg/market"
	"github.com/rogue-datahub/atlasx/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceBook holds the ATLAS/USD spot price and one historical price per calendar day.
// It is immutable once built.
type PriceBook struct {
	spot   decimal.Decimal
	days   map[int64]decimal.Decimal
	oldest int64
	loc    *time.Location
}

// NewPriceBook buckets points by local midnight in loc. Later points of the same day win.
func NewPriceBook(spot float64, points []market.PricePoint, loc *time.Location) *PriceBook {
	if loc == nil {
		loc = time.Local
	}
	b := &PriceBook{
		spot: decimal.NewFromFloat(spot),
		days: make(map[int64]decimal.Decimal, len(points)),
		loc:  loc,
	}
	for _, p := range points {
		day := utils.StartOfDay(p.At, loc).Unix()
		b.days[day] = decimal.NewFromFloat(p.Value)
		if len(b.days) == 1 || day < b.oldest {
			b.oldest = day
		}
	}
	return b
}

// Spot is the current price.
func (b *PriceBook) Spot() decimal.Decimal {
	if b == nil {
		return decimal.Zero
	}
	return b.spot
}

// Days is the number of days with a historical price.
func (b *PriceBook) Days() int {
	if b == nil {
		return 0
	}
	return len(b.days)
}

// Location is the zone used for day bucketing.
func (b *PriceBook) Location() *time.Location {
	if b == nil {
		return time.Local
	}
	return b.loc
}

// ForDay returns the historical price of t's calendar day. Missing or non-positive days
// fall back to the oldest historical price, then to spot.
func (b *PriceBook) ForDay(t time.Time) decimal.Decimal {
	if b == nil {
		return decimal.Zero
	}
	if t.IsZero() {
		return b.oldestOrSpot()
	}
	if p, ok := b.days[utils.StartOfDay(t, b.loc).Unix()]; ok && p.IsPositive() {
		return p
	}
	return b.oldestOrSpot()
}

func (b *PriceBook) oldestOrSpot() decimal.Decimal {
	if len(b.days) == 0 {
		return b.spot
	}
	if p := b.days[b.oldest]; p.IsPositive() {
		return p
	}
	return b.spot
}

// Normalizer converts pair-denominated values into ATLAS.
type Normalizer struct {
	book   *PriceBook
	logger *zap.Logger
}

func NewNormalizer(book *PriceBook, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{book: book, logger: logger}
}

// ToAtlas converts value quoted in pair at time at. USDC divides by the ATLAS price of
// that day; ATLAS, empty and unknown pairs, and a zero price leave value unchanged.
func (n *Normalizer) ToAtlas(value decimal.Decimal, pair string, at time.Time) decimal.Decimal {
	if pair == "" {
		return value
	}
	price := n.book.ForDay(at)
	if price.IsZero() {
		return value
	}
	switch pair {
	case USDCMint:
		return value.Div(price)
	case ATLASMint:
		return value
	default:
		n.logger.Debug("unknown quote pair left unconverted", zap.String("pair", pair))
		return value
	}
}

// TotalAtlas is the exchange total converted to ATLAS.
func (n *Normalizer) TotalAtlas(ex Exchange) decimal.Decimal {
	return n.ToAtlas(ex.Total(), ex.Pair, ex.Timestamp)
}

// ToUSD mirrors an ATLAS value at the spot price.
func (n *Normalizer) ToUSD(atlas decimal.Decimal) decimal.Decimal {
	return atlas.Mul(n.book.Spot())
}
