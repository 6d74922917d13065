package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/rogue-datahub/atlasx/app/dashboard/types"
	"github.com/rogue-datahub/atlasx/pkg/utils"
)

type Controller struct {
	App        *types.App
	AdminToken string
	Users      map[string]types.User
	JWTSecret  []byte
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	adminToken := utils.Env("ADMIN_TOKEN", "devtoken")
	adminUser := utils.Env("ADMIN_USER", "admin")
	adminUsersJSON := utils.Env("ADMIN_USERS", "")
	adminPass := utils.Env("ADMIN_PASSWORD", "admin")
	jwtSecret := []byte(utils.Env("SESSION_SECRET", "change-me-please"))

	phash, _ := utils.HashOrRead(adminPass)
	users := map[string]types.User{}
	users[adminUser] = types.User{Username: adminUser, Hash: phash, Role: "admin"}
	if adminUsersJSON != "" {
		_ = json.Unmarshal([]byte(adminUsersJSON), &users)
	}

	return &Controller{
		App:        app,
		AdminToken: adminToken,
		Users:      users,
		JWTSecret:  jwtSecret,
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo back the origin so the dashboard can send its session cookie
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodDelete+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	// Per-session presentation state
	r.HandleFunc("/sessions/{session}/exchanges", c.HandleExchangesFetch).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{session}/exchanges", c.HandleExchanges).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{session}/exchanges", c.HandleExchangesClear).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{session}/votes", c.HandleVotesFetch).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{session}/votes", c.HandleVotes).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{session}/votes", c.HandleVotesClear).Methods(http.MethodDelete)

	// Governance
	r.HandleFunc("/proposals/results", c.HandleAllProposalResults).Methods(http.MethodGet)
	r.HandleFunc("/proposals/{id}/results", c.HandleProposalResults).Methods(http.MethodGet)

	// Asset catalogs
	r.HandleFunc("/assets/nfts", c.HandleNFTs).Methods(http.MethodGet)
	r.HandleFunc("/assets/cargo", c.HandleCargo).Methods(http.MethodGet)
	r.HandleFunc("/assets/{mint}/name", c.HandleAssetName).Methods(http.MethodGet)

	// Market data
	r.HandleFunc("/tokens/market", c.HandleBothMarkets).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{symbol}/market", c.HandleTokenMarket).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{symbol}/chart", c.HandleTokenChart).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{symbol}/info", c.HandleTokenInfo).Methods(http.MethodGet)
	r.HandleFunc("/ohlc/{symbol}", c.HandleOHLC).Methods(http.MethodGet)

	// WebSocket endpoint for session state events
	r.HandleFunc("/ws", c.HandleWebSocket).Methods(http.MethodGet)

	// Admin
	r.HandleFunc("/api/auth/login", c.HandleAdminLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", c.HandleAdminLogout).Methods(http.MethodPost)
	r.Handle("/admin/assets/refresh", c.RequireAdmin(http.HandlerFunc(c.HandleAssetsRefresh))).Methods(http.MethodPost)
	r.Handle("/admin/proposals/invalidate", c.RequireAdmin(http.HandlerFunc(c.HandleProposalsInvalidate))).Methods(http.MethodPost)

	return r, nil
}
