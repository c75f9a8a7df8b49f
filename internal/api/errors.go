package api

import (
	"encoding/json"
	"net/http"

	"github.com/OgbonnaBlessed/passion-streams/pkg/response"
	"go.uber.org/zap"
)

// writeError maps a service error onto the response envelope. Anything outside
// the domain taxonomy is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	if response.FromError(w, err, fallback) == http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst)
}
