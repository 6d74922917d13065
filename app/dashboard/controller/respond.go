package controller

import (
	"errors"
	"net"
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/rogue-datahub/atlasx/pkg/governance"
	"github.com/rogue-datahub/atlasx/pkg/indexer"
	"github.com/rogue-datahub/atlasx/pkg/market"
	"github.com/rogue-datahub/atlasx/pkg/transport"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// statusFor maps a data-layer error to a response status: unknown proposals are 404,
// failures of an upstream service 502, anything else 500.
func statusFor(err error) int {
	var statusErr *transport.StatusError
	var gqlErr *indexer.GraphQLError
	var netErr net.Error
	switch {
	case errors.Is(err, governance.ErrProposalNotFound):
		return http.StatusNotFound
	case errors.As(err, &statusErr),
		errors.As(err, &gqlErr),
		errors.As(err, &netErr),
		errors.Is(err, indexer.ErrNoData),
		errors.Is(err, market.ErrUnexpectedFormat):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeUpstreamError writes err with the status statusFor picks.
func writeUpstreamError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
