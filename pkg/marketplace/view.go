package marketplace

import "github.com/shopspring/decimal"

// Row is an exchange decorated for display from one wallet's point of view.
type Row struct {
	Exchange
	Key         string          `json:"key"`
	DecodedSide Side            `json:"decodedSide"`
	TotalAtlas  decimal.Decimal `json:"totalAtlas"`
	AssetName   string          `json:"assetName"`
	PairName    string          `json:"pairName"`
}

// Decorate builds display rows, keeping order.
func Decorate(exchanges []Exchange, wallet string, n *Normalizer, r *AssetResolver) []Row {
	rows := make([]Row, 0, len(exchanges))
	for _, ex := range exchanges {
		rows = append(rows, Row{
			Exchange:    ex,
			Key:         ex.Key(),
			DecodedSide: DecodeSide(ex, wallet),
			TotalAtlas:  n.TotalAtlas(ex),
			AssetName:   r.Name(ex.Asset),
			PairName:    r.Name(ex.Pair),
		})
	}
	return rows
}
