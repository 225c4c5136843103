package httpapi

import (
	"encoding/json"
	"net/http"

	"chatd/internal/chat"
	"chatd/internal/manager"
	"chatd/pkg/types"
)

// statusFor maps classified error kinds onto HTTP statuses.
func statusFor(err error) int {
	switch manager.Kind(err) {
	case manager.KindBusy:
		return http.StatusTooManyRequests
	case manager.KindTimeout:
		return http.StatusGatewayTimeout
	case manager.KindCapability, manager.KindInit, manager.KindNotReady, manager.KindExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders a classified failure. Canceled requests get no
// response at all: the client is gone, or the server is shutting down.
// The payload carries the user-facing sentence; the raw error goes to the
// log only.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil || serverBaseCtx.Err() != nil || manager.IsCanceled(err) {
		return
	}
	status := statusFor(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("generation_slot")
	}
	logError(r, err, status)
	writeJSONError(w, status, chat.UserMessage(err))
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}
