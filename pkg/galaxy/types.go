package galaxy

// NFT is one entry of the Galaxy catalog (ships, resources, collectibles, access passes).
type NFT struct {
	ID            string        `json:"_id"`
	Deactivated   bool          `json:"deactivated"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Image         string        `json:"image"`
	Symbol        string        `json:"symbol"`
	Mint          string        `json:"mint"`
	Network       string        `json:"network"`
	TotalSupply   float64       `json:"totalSupply"`
	Attributes    Attributes    `json:"attributes"`
	Collection    Collection    `json:"collection"`
	Markets       []Market      `json:"markets"`
	TradeSettings TradeSettings `json:"tradeSettings"`
	Media         Bag           `json:"media,omitempty"`
	Slots         Bag           `json:"slots,omitempty"`
	Airdrops      []Bag         `json:"airdrops,omitempty"`
	PrimarySales  []Bag         `json:"primarySales,omitempty"`
	CreatedAt     string        `json:"createdAt,omitempty"`
	UpdatedAt     string        `json:"updatedAt,omitempty"`
}

type Attributes struct {
	ItemType string   `json:"itemType"`
	Tier     *int     `json:"tier,omitempty"`
	Class    string   `json:"class"`
	Category string   `json:"category"`
	Rarity   string   `json:"rarity,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	Musician string   `json:"musician,omitempty"`
	Spec     string   `json:"spec,omitempty"`
}

type Collection struct {
	Name   string `json:"name"`
	Family string `json:"family"`
}

// Market is a quote pair the asset trades against.
type Market struct {
	ID        string `json:"id"`
	QuotePair string `json:"quotePair"`
}

type TradeSettings struct {
	MSRP *struct {
		Value          float64 `json:"value"`
		CurrencySymbol string  `json:"currencySymbol"`
	} `json:"msrp,omitempty"`
	ExclusiveCurrency string   `json:"exclusiveCurrency,omitempty"`
	VWAP              *float64 `json:"vwap,omitempty"`
}

// TokenInfo describes a fungible game token.
type TokenInfo struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Mint        string `json:"mint"`
	Decimals    int    `json:"decimals"`
	Supply      *struct {
		Total       *float64 `json:"total,omitempty"`
		Circulating *float64 `json:"circulating,omitempty"`
	} `json:"supply,omitempty"`
	Network  string `json:"network"`
	Metadata Bag    `json:"metadata,omitempty"`
}
