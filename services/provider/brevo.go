package provider

import (
	"context"
	"net/http"

	"github.com/sendgrove/blastpipe/interfaces"
)

const brevoBaseURL = "https://api.brevo.com/v3"

type brevoCredentials struct {
	APIKey string `json:"api_key"`
}

type brevoProvider struct {
	apiKey  string
	baseURL string
}

func newBrevoProvider(credentialsJSON string) (interfaces.EmailProvider, error) {
	var creds brevoCredentials
	if err := decodeCredentials(credentialsJSON, &creds); err != nil {
		return nil, err
	}
	if err := requireField("api_key", creds.APIKey); err != nil {
		return nil, err
	}
	return &brevoProvider{apiKey: creds.APIKey, baseURL: brevoBaseURL}, nil
}

func (p *brevoProvider) Send(ctx context.Context, fromEmail, toEmail, subject, htmlBody, textBody string) interfaces.SendResult {
	payload := map[string]interface{}{
		"sender":      map[string]string{"email": fromEmail},
		"to":          []map[string]string{{"email": toEmail}},
		"subject":     subject,
		"htmlContent": htmlBody,
		"textContent": textBody,
	}

	resp, err := doJSON(ctx, http.MethodPost, p.baseURL+"/smtp/email", p.authHeader(), payload, apiSendTimeout)
	if err != nil {
		return interfaces.SendResult{Success: false, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusCreated {
		return interfaces.SendResult{Success: false, Error: resp.errorText()}
	}

	return interfaces.SendResult{Success: true, MessageID: resp.jsonField("messageId")}
}

func (p *brevoProvider) Verify(ctx context.Context) interfaces.VerifyResult {
	resp, err := doJSON(ctx, http.MethodGet, p.baseURL+"/account", p.authHeader(), nil, apiVerifyTimeout)
	if err != nil {
		return interfaces.VerifyResult{Success: false, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return interfaces.VerifyResult{Success: false, Error: resp.errorText()}
	}
	return interfaces.VerifyResult{Success: true}
}

func (p *brevoProvider) RateLimit() int {
	return rateLimitBrevo
}

func (p *brevoProvider) authHeader() map[string]string {
	return map[string]string{"api-key": p.apiKey}
}
