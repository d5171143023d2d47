package enum

type ProviderType string

const (
	ProviderSMTP     ProviderType = "smtp"
	ProviderGmail    ProviderType = "gmail"
	ProviderSendGrid ProviderType = "sendgrid"
	ProviderMailgun  ProviderType = "mailgun"
	ProviderBrevo    ProviderType = "brevo"
	ProviderSES      ProviderType = "ses"
)

func (t ProviderType) String() string {
	return string(t)
}

func DecodeProviderType(s string) (ProviderType, bool) {
	switch ProviderType(s) {
	case ProviderSMTP, ProviderGmail, ProviderSendGrid, ProviderMailgun, ProviderBrevo, ProviderSES:
		return ProviderType(s), true
	}
	return "", false
}

type VerificationStatus string

const (
	VerificationPending            VerificationStatus = "pending"
	VerificationVerified           VerificationStatus = "verified"
	VerificationInvalidCredentials VerificationStatus = "invalid_credentials"
	VerificationError              VerificationStatus = "error"
)

func (t VerificationStatus) String() string {
	return string(t)
}

type HealthStatus string

const (
	HealthUnknown   HealthStatus = "unknown"
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

func (t HealthStatus) String() string {
	return string(t)
}
