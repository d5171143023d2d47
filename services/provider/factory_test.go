package provider

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgrove/blastpipe/internal/enum"
	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
)

func TestNew_UnknownProviderType(t *testing.T) {
	_, err := New(enum.ProviderType("carrier-pigeon"), `{}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, blastpipe_errors.ErrUnknownProvider))
}

func TestNew_MalformedCredentialBlob(t *testing.T) {
	_, err := New(enum.ProviderSendGrid, `not json`)
	require.Error(t, err)
}

func TestNew_MissingCredentialField(t *testing.T) {
	testCases := []struct {
		name         string
		providerType enum.ProviderType
		creds        string
	}{
		{"smtp without host", enum.ProviderSMTP, `{"username":"u","password":"p"}`},
		{"smtp without password", enum.ProviderSMTP, `{"host":"mail.example.com","username":"u"}`},
		{"sendgrid without api key", enum.ProviderSendGrid, `{}`},
		{"mailgun without domain", enum.ProviderMailgun, `{"api_key":"key-123"}`},
		{"brevo without api key", enum.ProviderBrevo, `{}`},
		{"ses without secret key", enum.ProviderSES, `{"access_key":"AKIA"}`},
		{"gmail without refresh token", enum.ProviderGmail, `{"client_id":"id","client_secret":"secret"}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := New(testCase.providerType, testCase.creds)
			require.Error(t, err)
			assert.True(t, errors.Is(err, blastpipe_errors.ErrMissingCredential))
		})
	}
}

func TestNew_RateLimits(t *testing.T) {
	testCases := []struct {
		providerType enum.ProviderType
		creds        string
		rateLimit    int
	}{
		{enum.ProviderSMTP, `{"host":"mail.example.com","username":"u","password":"p"}`, 100},
		{enum.ProviderSendGrid, `{"api_key":"SG.key"}`, 100},
		{enum.ProviderMailgun, `{"api_key":"key-123","domain":"mg.example.com"}`, 1000},
		{enum.ProviderBrevo, `{"api_key":"xkeysib-123"}`, 300},
		{enum.ProviderSES, `{"access_key":"AKIA","secret_key":"secret"}`, 14},
		{enum.ProviderGmail, `{"refresh_token":"rt","client_id":"id","client_secret":"secret"}`, 500},
	}

	for _, testCase := range testCases {
		t.Run(string(testCase.providerType), func(t *testing.T) {
			emailProvider, err := New(testCase.providerType, testCase.creds)
			require.NoError(t, err)
			assert.Equal(t, testCase.rateLimit, emailProvider.RateLimit())
		})
	}
}

func TestNew_SMTPPortDefault(t *testing.T) {
	emailProvider, err := New(enum.ProviderSMTP, `{"host":"mail.example.com","username":"u","password":"p"}`)
	require.NoError(t, err)

	smtpVariant, ok := emailProvider.(*smtpProvider)
	require.True(t, ok)
	assert.Equal(t, 587, smtpVariant.creds.Port)
}

func TestCredentialSchema(t *testing.T) {
	schema, err := CredentialSchema(enum.ProviderMailgun)
	require.NoError(t, err)
	require.Len(t, schema, 2)
	assert.Equal(t, "api_key", schema[0].Name)
	assert.True(t, schema[0].Secret)
	assert.Equal(t, "domain", schema[1].Name)

	_, err = CredentialSchema(enum.ProviderType("fax"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, blastpipe_errors.ErrUnknownProvider))
}

func TestCredentialSchemas_CoverAllProviderTypes(t *testing.T) {
	schemas := CredentialSchemas()
	for _, providerType := range []enum.ProviderType{
		enum.ProviderSMTP,
		enum.ProviderGmail,
		enum.ProviderSendGrid,
		enum.ProviderMailgun,
		enum.ProviderBrevo,
		enum.ProviderSES,
	} {
		assert.Contains(t, schemas, providerType)
	}
}
