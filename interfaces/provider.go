package interfaces

import "context"

// SendResult is the in-band outcome of a single provider send. Backend
// failures (network, auth, non-2xx) are converted into Success=false, never
// surfaced as errors, so one bad recipient cannot abort a batch.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// VerifyResult is the outcome of a lightweight credential check.
type VerifyResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// EmailProvider is the uniform capability set over heterogeneous delivery
// backends.
type EmailProvider interface {
	// Send delivers one message. TextBody may be empty.
	Send(ctx context.Context, fromEmail, toEmail, subject, htmlBody, textBody string) SendResult
	// Verify validates the stored credentials without sending mail.
	Verify(ctx context.Context) VerifyResult
	// RateLimit returns the provider's static ceiling in sends per minute.
	RateLimit() int
}
