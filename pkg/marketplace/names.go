package marketplace

import (
	"strings"

	"github.com/rogue-datahub/atlasx/pkg/cargo"
	"github.com/rogue-datahub/atlasx/pkg/galaxy"
	"go.uber.org/zap"
)

// Name placeholders.
const (
	NoName      = "N/A"
	UnknownName = "???"
)

// AssetResolver turns mints into display names from the loaded catalogs.
type AssetResolver struct {
	nfts   map[string]string
	list   []galaxy.NFT
	cargo  *cargo.Catalog
	logger *zap.Logger
}

func NewAssetResolver(nfts []galaxy.NFT, cargos *cargo.Catalog, logger *zap.Logger) *AssetResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	byMint := make(map[string]string, len(nfts))
	for _, n := range nfts {
		if _, ok := byMint[n.Mint]; !ok {
			byMint[n.Mint] = n.Name
		}
	}
	return &AssetResolver{nfts: byMint, list: nfts, cargo: cargos, logger: logger}
}

// Name resolves in order: well-known mints, NFT catalog, starbase cargo mint
// (suffixed " [local]"), canonical cargo mint. Anything else is UnknownName.
func (r *AssetResolver) Name(mint string) string {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return NoName
	}
	switch mint {
	case ATLASMint:
		return "ATLAS"
	case USDCMint:
		return "USDC"
	}
	if name, ok := r.nfts[mint]; ok {
		return name
	}
	if e, ok := r.cargo.ByCargoMint(mint); ok {
		return e.Name + " [local]"
	}
	if e, ok := r.cargo.ByMint(mint); ok {
		return e.Name
	}

	r.logger.Warn("asset name not found",
		zap.String("mint", mint),
		zap.Int("nfts_loaded", len(r.list)),
		zap.Int("cargo_loaded", r.cargo.Len()),
		zap.Strings("similar_mints", r.similar(mint, 3)),
	)
	return UnknownName
}

// similar lists up to limit NFT mints sharing the first or last eight characters.
func (r *AssetResolver) similar(mint string, limit int) []string {
	out := make([]string, 0, limit)
	head, tail := prefix(mint, 8), suffix(mint, 8)
	for _, n := range r.list {
		if len(out) == limit {
			break
		}
		if prefix(n.Mint, 8) == head || suffix(n.Mint, 8) == tail {
			out = append(out, n.Mint)
		}
	}
	return out
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func suffix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
