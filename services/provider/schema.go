package provider

import (
	"github.com/pkg/errors"

	"github.com/sendgrove/blastpipe/internal/enum"
	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
)

// CredentialField describes one entry of a provider's credential blob, used
// by the API to tell clients which fields to collect before connecting.
type CredentialField struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Secret   bool   `json:"secret"`
	Default  string `json:"default,omitempty"`
}

var credentialSchemas = map[enum.ProviderType][]CredentialField{
	enum.ProviderSMTP: {
		{Name: "host", Required: true},
		{Name: "port", Default: "587"},
		{Name: "username", Required: true},
		{Name: "password", Required: true, Secret: true},
	},
	enum.ProviderGmail: {
		{Name: "access_token", Secret: true},
		{Name: "refresh_token", Required: true, Secret: true},
		{Name: "client_id", Required: true},
		{Name: "client_secret", Required: true, Secret: true},
	},
	enum.ProviderSendGrid: {
		{Name: "api_key", Required: true, Secret: true},
	},
	enum.ProviderMailgun: {
		{Name: "api_key", Required: true, Secret: true},
		{Name: "domain", Required: true},
	},
	enum.ProviderBrevo: {
		{Name: "api_key", Required: true, Secret: true},
	},
	enum.ProviderSES: {
		{Name: "access_key", Required: true},
		{Name: "secret_key", Required: true, Secret: true},
		{Name: "region", Default: sesDefaultRegion},
	},
}

// CredentialSchema returns the credential fields expected by the given
// provider type.
func CredentialSchema(providerType enum.ProviderType) ([]CredentialField, error) {
	schema, ok := credentialSchemas[providerType]
	if !ok {
		return nil, errors.Wrapf(blastpipe_errors.ErrUnknownProvider, "%s", providerType)
	}
	return schema, nil
}

// CredentialSchemas returns the schemas for every supported provider type.
func CredentialSchemas() map[enum.ProviderType][]CredentialField {
	return credentialSchemas
}
