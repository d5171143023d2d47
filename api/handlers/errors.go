package handlers

import (
	"net/http"

	"github.com/pkg/errors"

	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
)

// statusForError maps domain errors to HTTP status codes. Anything
// unrecognized is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, blastpipe_errors.ErrCampaignNotFound),
		errors.Is(err, blastpipe_errors.ErrProviderNotFound):
		return http.StatusNotFound
	case errors.Is(err, blastpipe_errors.ErrCampaignNotSendable),
		errors.Is(err, blastpipe_errors.ErrProviderNotVerified):
		return http.StatusConflict
	case errors.Is(err, blastpipe_errors.ErrListEmpty),
		errors.Is(err, blastpipe_errors.ErrNoEmailColumn),
		errors.Is(err, blastpipe_errors.ErrUnknownProvider),
		errors.Is(err, blastpipe_errors.ErrMissingCredential):
		return http.StatusBadRequest
	case errors.Is(err, blastpipe_errors.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, blastpipe_errors.ErrQueueFull),
		errors.Is(err, blastpipe_errors.ErrDispatcherStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
