package marketplace

import "github.com/shopspring/decimal"

// Metrics summarises a wallet's exchanges in ATLAS with USD mirrors at spot.
type Metrics struct {
	Count          int             `json:"count"`
	UniqueAssets   int             `json:"uniqueAssets"`
	TotalVolume    decimal.Decimal `json:"totalVolume"`
	BuyVolume      decimal.Decimal `json:"buyVolume"`
	SellVolume     decimal.Decimal `json:"sellVolume"`
	TotalFees      decimal.Decimal `json:"totalFees"`
	Profit         decimal.Decimal `json:"profit"`
	TotalVolumeUSD decimal.Decimal `json:"totalVolumeUsd"`
	BuyVolumeUSD   decimal.Decimal `json:"buyVolumeUsd"`
	SellVolumeUSD  decimal.Decimal `json:"sellVolumeUsd"`
	TotalFeesUSD   decimal.Decimal `json:"totalFeesUsd"`
	ProfitUSD      decimal.Decimal `json:"profitUsd"`
}

// Summarize computes volumes, fees and profit over exchanges. Buy and sell volumes are
// from wallet's perspective and stay zero when wallet is empty. Profit is sell minus buy;
// fees are already part of each total.
func Summarize(exchanges []Exchange, wallet string, n *Normalizer) Metrics {
	m := Metrics{
		Count:       len(exchanges),
		TotalVolume: decimal.Zero,
		BuyVolume:   decimal.Zero,
		SellVolume:  decimal.Zero,
		TotalFees:   decimal.Zero,
	}

	assets := make(map[string]struct{})
	for _, ex := range exchanges {
		total := n.TotalAtlas(ex)
		m.TotalVolume = m.TotalVolume.Add(total)
		m.TotalFees = m.TotalFees.Add(n.ToAtlas(ex.Fee, ex.Pair, ex.Timestamp))

		if wallet != "" {
			switch DecodeSide(ex, wallet) {
			case Buy:
				m.BuyVolume = m.BuyVolume.Add(total)
			case Sell:
				m.SellVolume = m.SellVolume.Add(total)
			}
		}
		if ex.Asset != "" {
			assets[ex.Asset] = struct{}{}
		}
	}

	m.UniqueAssets = len(assets)
	m.Profit = m.SellVolume.Sub(m.BuyVolume)
	m.TotalVolumeUSD = n.ToUSD(m.TotalVolume)
	m.BuyVolumeUSD = n.ToUSD(m.BuyVolume)
	m.SellVolumeUSD = n.ToUSD(m.SellVolume)
	m.TotalFeesUSD = n.ToUSD(m.TotalFees)
	m.ProfitUSD = n.ToUSD(m.Profit)
	return m
}
