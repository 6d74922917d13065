package controller

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rogue-datahub/atlasx/pkg/cargo"
	"github.com/rogue-datahub/atlasx/pkg/galaxy"
)

// HandleAssetName resolves a mint to a display name.
// GET /assets/{mint}/name
func (c *Controller) HandleAssetName(w http.ResponseWriter, r *http.Request) {
	mint := strings.TrimSpace(mux.Vars(r)["mint"])
	catalog := c.App.Assets.Ensure(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"mint": mint,
		"name": catalog.Name(mint),
	})
}

// HandleNFTs lists the NFT catalog.
// GET /assets/nfts?symbol=<s>  returns the single matching NFT or 404
// GET /assets/nfts?category=<c>&itemType=<t>&cursor=<offset>&limit=<n>
func (c *Controller) HandleNFTs(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	nfts := c.App.Assets.Ensure(r.Context()).NFTs()

	if symbol := qs.Get("symbol"); symbol != "" {
		nft := galaxy.FindBySymbol(nfts, symbol)
		if nft == nil {
			writeError(w, http.StatusNotFound, "nft not found")
			return
		}
		writeJSON(w, http.StatusOK, nft)
		return
	}

	page, err := parsePageSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if category := qs.Get("category"); category != "" {
		nfts = galaxy.FilterByCategory(nfts, category)
	}
	if itemType := qs.Get("itemType"); itemType != "" {
		nfts = galaxy.FilterByItemType(nfts, itemType)
	}

	writeJSON(w, http.StatusOK, paginate(nfts, page))
}

// HandleCargo returns the cargo catalog in the starbase table layout.
// GET /assets/cargo
func (c *Controller) HandleCargo(w http.ResponseWriter, r *http.Request) {
	catalog := c.App.Assets.Ensure(r.Context())
	writeJSON(w, http.StatusOK, cargo.ToTable(catalog.Cargo().Entries()))
}
