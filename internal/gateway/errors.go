package gateway

import (
	"net/http"

	"unified-thinking/internal/errs"
)

// envelope is the stable user-facing error shape (§7): never leaks internal
// diagnostics in message, only the mapped kind and a retry advisory where
// one applies.
type envelope struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// httpStatusFor maps an errs.Kind to its HTTP status equivalent.
func httpStatusFor(kind errs.Kind) int {
	switch kind {
	case errs.InvalidInput:
		return http.StatusBadRequest
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Precondition:
		return http.StatusConflict
	case errs.Unauthorized:
		return http.StatusUnauthorized
	case errs.BackendUnavailable:
		return http.StatusServiceUnavailable
	case errs.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// envelopeFor builds the client-safe envelope for err. INTERNAL errors get a
// generic message; everything else surfaces the error's own message, which
// by convention (§7) never itself carries internal diagnostics.
func envelopeFor(err error) (int, envelope) {
	kind := errs.KindOf(err)
	status := httpStatusFor(kind)

	msg := err.Error()
	if kind == errs.Internal {
		msg = "an internal error occurred"
	}

	env := envelope{Code: string(kind), Message: msg}
	if kind == errs.BackendUnavailable {
		env.RetryAfter = 5
	}
	return status, env
}

// errQueueFull is the error raised by both ingress surfaces when
// backpressure (§5) rejects a request outright.
func errQueueFull() error {
	return errs.New("gateway.acquire", errs.BackendUnavailable, "request queue is full")
}
