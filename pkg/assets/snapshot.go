package assets

import (
	"time"

	"github.com/rogue-datahub/atlasx/pkg/cargo"
	"github.com/rogue-datahub/atlasx/pkg/galaxy"
	"github.com/rogue-datahub/atlasx/pkg/market"
	"github.com/rogue-datahub/atlasx/pkg/marketplace"
	"go.uber.org/zap"
)

// Snapshot is the raw lookup data. It is what gets cached.
type Snapshot struct {
	NFTs      []galaxy.NFT        `json:"nfts"`
	Cargo     []cargo.Entry       `json:"cargo"`
	SpotPrice float64             `json:"spotPrice"`
	History   []market.PricePoint `json:"history"`
	LoadedAt  time.Time           `json:"loadedAt"`
}

// Complete reports whether every source contributed data.
func (s *Snapshot) Complete() bool {
	return len(s.NFTs) > 0 && len(s.Cargo) > 0 && s.SpotPrice > 0 && len(s.History) > 0
}

// Catalog is an immutable, indexed view over a Snapshot.
type Catalog struct {
	snapshot   *Snapshot
	cargo      *cargo.Catalog
	book       *marketplace.PriceBook
	normalizer *marketplace.Normalizer
	resolver   *marketplace.AssetResolver
}

func newCatalog(s *Snapshot, loc *time.Location, logger *zap.Logger) *Catalog {
	if s == nil {
		s = &Snapshot{}
	}
	cargos := cargo.NewCatalog(s.Cargo)
	book := marketplace.NewPriceBook(s.SpotPrice, s.History, loc)
	return &Catalog{
		snapshot:   s,
		cargo:      cargos,
		book:       book,
		normalizer: marketplace.NewNormalizer(book, logger),
		resolver:   marketplace.NewAssetResolver(s.NFTs, cargos, logger),
	}
}

func (c *Catalog) Snapshot() *Snapshot                  { return c.snapshot }
func (c *Catalog) NFTs() []galaxy.NFT                   { return c.snapshot.NFTs }
func (c *Catalog) Cargo() *cargo.Catalog                { return c.cargo }
func (c *Catalog) PriceBook() *marketplace.PriceBook    { return c.book }
func (c *Catalog) Normalizer() *marketplace.Normalizer  { return c.normalizer }
func (c *Catalog) Resolver() *marketplace.AssetResolver { return c.resolver }
func (c *Catalog) LoadedAt() time.Time                  { return c.snapshot.LoadedAt }

// Name resolves a mint to its display name.
func (c *Catalog) Name(mint string) string { return c.resolver.Name(mint) }
