package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rogue-datahub/atlasx/pkg/transport"
)

// DefaultDataHubURL is the Rogue DataHub API base.
const DefaultDataHubURL = "https://api.roguedatahub.xyz"

// Timeframes accepted by the OHLC endpoint.
const (
	Daily  = "1d"
	Hourly = "1h"
	Weekly = "1w"
)

// ErrUnexpectedFormat is returned when the OHLC body is neither a list nor a data envelope.
var ErrUnexpectedFormat = errors.New("unexpected response format from OHLC API")

// Stamp is a candle time that the API sends either as a number or as a string.
type Stamp string

func (s *Stamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Stamp(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("candle time: %w", err)
	}
	*s = Stamp(n.String())
	return nil
}

// Int returns the stamp as an integer when it is numeric.
func (s Stamp) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(s), 10, 64)
	return n, err == nil
}

// Candle is one OHLC bucket.
type Candle struct {
	Time   Stamp    `json:"time"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume *float64 `json:"volume,omitempty"`
}

// DataHub is the marketplace OHLC adapter.
type DataHub struct {
	http *transport.HTTPClient
}

func NewDataHub(http *transport.HTTPClient) *DataHub {
	return &DataHub{http: http}
}

// OHLC fetches candles for a symbol. Empty timeframe means daily; empty bounds are omitted.
func (d *DataHub) OHLC(ctx context.Context, symbol, timeframe, start, end string) ([]Candle, error) {
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}
	if timeframe == "" {
		timeframe = Daily
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", timeframe)
	if start != "" {
		q.Set("start_date", start)
	}
	if end != "" {
		q.Set("end_date", end)
	}

	var raw json.RawMessage
	if err := d.http.GetJSON(ctx, "/marketplace/ohlc", q, &raw); err != nil {
		return nil, fmt.Errorf("fetch ohlc for %s: %w", symbol, err)
	}
	candles, err := decodeCandles(raw)
	if err != nil {
		return nil, fmt.Errorf("fetch ohlc for %s: %w", symbol, err)
	}
	return candles, nil
}

func (d *DataHub) DailyOHLC(ctx context.Context, symbol, start, end string) ([]Candle, error) {
	return d.OHLC(ctx, symbol, Daily, start, end)
}

func (d *DataHub) HourlyOHLC(ctx context.Context, symbol, start, end string) ([]Candle, error) {
	return d.OHLC(ctx, symbol, Hourly, start, end)
}

func (d *DataHub) WeeklyOHLC(ctx context.Context, symbol, start, end string) ([]Candle, error) {
	return d.OHLC(ctx, symbol, Weekly, start, end)
}

// decodeCandles accepts a bare array or a {"data": [...]} envelope.
func decodeCandles(raw json.RawMessage) ([]Candle, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrUnexpectedFormat
	}
	switch trimmed[0] {
	case '[':
		var out []Candle
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode candles: %w", err)
		}
		return out, nil
	case '{':
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode candles: %w", err)
		}
		data := bytes.TrimSpace(env.Data)
		if len(data) == 0 || data[0] != '[' {
			return nil, ErrUnexpectedFormat
		}
		var out []Candle
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode candles: %w", err)
		}
		return out, nil
	default:
		return nil, ErrUnexpectedFormat
	}
}
