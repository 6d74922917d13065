package controller

import (
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// HandleAdminLogin handles admin login
func (c *Controller) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	u, ok := c.Users[in.Username]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(in.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	role := u.Role
	if role == "" {
		role = roleAdmin
	}
	if err := c.IssueSession(w, in.Username, role); err != nil {
		writeError(w, http.StatusInternalServerError, "unable to issue session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}

// HandleAdminLogout handles admin logout
func (c *Controller) HandleAdminLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleAssetsRefresh reloads NFTs, cargo and prices, bypassing the cache.
// POST /admin/assets/refresh
// Sources that failed are reported but do not fail the request; their catalogs are empty.
func (c *Controller) HandleAssetsRefresh(w http.ResponseWriter, r *http.Request) {
	user := c.currentUser(r)
	err := c.App.Assets.Refresh(r.Context())

	catalog := c.App.Assets.Current()
	out := map[string]any{
		"loadedAt": catalog.LoadedAt(),
		"nfts":     len(catalog.NFTs()),
		"cargo":    catalog.Cargo().Len(),
		"spot":     catalog.PriceBook().Spot(),
		"days":     catalog.PriceBook().Days(),
	}
	if err != nil {
		c.App.Logger.Warn("asset refresh incomplete", zap.String("user", user), zap.Error(err))
		out["error"] = err.Error()
	} else {
		c.App.Logger.Info("assets refreshed", zap.String("user", user))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleProposalsInvalidate drops the cached all-proposals fetch.
// POST /admin/proposals/invalidate
func (c *Controller) HandleProposalsInvalidate(w http.ResponseWriter, r *http.Request) {
	c.App.Governance.Invalidate()
	c.App.Logger.Info("proposal cache invalidated", zap.String("user", c.currentUser(r)))
	w.WriteHeader(http.StatusNoContent)
}
