package galaxy

// FindByMint returns the first entry whose mint matches exactly.
func FindByMint(nfts []NFT, mint string) *NFT {
	for i := range nfts {
		if nfts[i].Mint == mint {
			return &nfts[i]
		}
	}
	return nil
}

// FindBySymbol returns the first entry whose symbol matches exactly.
func FindBySymbol(nfts []NFT, symbol string) *NFT {
	for i := range nfts {
		if nfts[i].Symbol == symbol {
			return &nfts[i]
		}
	}
	return nil
}

func FilterByCategory(nfts []NFT, category string) []NFT {
	return filter(nfts, func(n NFT) bool { return n.Attributes.Category == category })
}

func FilterByItemType(nfts []NFT, itemType string) []NFT {
	return filter(nfts, func(n NFT) bool { return n.Attributes.ItemType == itemType })
}

func filter(nfts []NFT, keep func(NFT) bool) []NFT {
	out := make([]NFT, 0)
	for _, n := range nfts {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
