package controller

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/mux"
	"github.com/rogue-datahub/atlasx/pkg/indexer"
)

// fetchTimeout bounds a background fetch started by a POST. Wallets with long histories
// page through up to a thousand indexer pages per direction.
const fetchTimeout = 5 * time.Minute

const maxSessionLen = 128

var (
	errInvalidWallet  = errors.New("invalid wallet address")
	errInvalidSession = errors.New("invalid session id")
	errUnknownSession = errors.New("session not found")
)

// sessionID reads the session path variable. Ids are opaque to the server but must fit
// in a pub/sub channel name.
func sessionID(r *http.Request) (string, error) {
	id := mux.Vars(r)["session"]
	if id == "" || len(id) > maxSessionLen || strings.ContainsAny(id, ": *") {
		return "", errInvalidSession
	}
	return id, nil
}

// validateWallet accepts a base58 encoded Solana public key.
func validateWallet(wallet string) error {
	if wallet == "" {
		return indexer.ErrWalletRequired
	}
	if _, err := solana.PublicKeyFromBase58(wallet); err != nil {
		return errInvalidWallet
	}
	return nil
}

// walletMessage is the text shown for a rejected wallet.
func walletMessage(err error) string {
	if errors.Is(err, indexer.ErrWalletRequired) {
		return "Wallet address is required"
	}
	return err.Error()
}

// background runs fn on the app pool with a context detached from the request.
func (c *Controller) background(fn func(ctx context.Context)) {
	c.App.Pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		fn(ctx)
	})
}
