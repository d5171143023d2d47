// Package provider implements the delivery backends a campaign can be sent
// through. Every backend satisfies interfaces.EmailProvider: Send converts
// all backend failures into an in-band SendResult, Verify checks credentials
// without sending, RateLimit returns the backend's static sends-per-minute
// ceiling.
package provider

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/enum"
	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
)

// Static rate limits in sends per minute.
const (
	rateLimitSMTP     = 100
	rateLimitSendGrid = 100
	rateLimitGmail    = 500
	rateLimitBrevo    = 300
	rateLimitMailgun  = 1000
	rateLimitSES      = 14
)

// New builds the provider variant for the given type from a decrypted
// credential blob. Unknown types and missing credential fields are
// configuration errors.
func New(providerType enum.ProviderType, credentialsJSON string) (interfaces.EmailProvider, error) {
	switch providerType {
	case enum.ProviderSMTP:
		return newSMTPProvider(credentialsJSON)
	case enum.ProviderGmail:
		return newGmailProvider(credentialsJSON)
	case enum.ProviderSendGrid:
		return newSendGridProvider(credentialsJSON)
	case enum.ProviderMailgun:
		return newMailgunProvider(credentialsJSON)
	case enum.ProviderBrevo:
		return newBrevoProvider(credentialsJSON)
	case enum.ProviderSES:
		return newSESProvider(credentialsJSON)
	default:
		return nil, errors.Wrapf(blastpipe_errors.ErrUnknownProvider, "%s", providerType)
	}
}

func decodeCredentials(credentialsJSON string, target interface{}) error {
	if err := json.Unmarshal([]byte(credentialsJSON), target); err != nil {
		return errors.Wrap(err, "invalid credential blob")
	}
	return nil
}

func requireField(name, value string) error {
	if value == "" {
		return errors.Wrapf(blastpipe_errors.ErrMissingCredential, "%s", name)
	}
	return nil
}
