package errors

import "github.com/pkg/errors"

var (
	// admission errors
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrCampaignNotSendable = errors.New("campaign is not in a sendable state")
	ErrListEmpty           = errors.New("recipient list is empty")
	ErrQuotaExceeded       = errors.New("daily send limit exceeded")

	// provider errors
	ErrProviderNotFound    = errors.New("provider connection not found")
	ErrProviderNotVerified = errors.New("provider connection is not verified")
	ErrUnknownProvider     = errors.New("unknown provider type")
	ErrMissingCredential   = errors.New("missing required credential field")

	// vault errors
	ErrDecryptionFailed = errors.New("credential decryption failed")
	ErrMalformedToken   = errors.New("malformed credential token")

	// import errors
	ErrNoEmailColumn = errors.New("no email column found in CSV header")

	// dispatch errors
	ErrDispatcherStopped = errors.New("dispatcher is not running")
	ErrQueueFull         = errors.New("dispatch queue is full")
)
