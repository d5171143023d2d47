package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrove/blastpipe/interfaces"
)

const sendgridBaseURL = "https://api.sendgrid.com/v3"

type sendgridCredentials struct {
	APIKey string `json:"api_key"`
}

type sendgridProvider struct {
	apiKey  string
	baseURL string
}

func newSendGridProvider(credentialsJSON string) (interfaces.EmailProvider, error) {
	var creds sendgridCredentials
	if err := decodeCredentials(credentialsJSON, &creds); err != nil {
		return nil, err
	}
	if err := requireField("api_key", creds.APIKey); err != nil {
		return nil, err
	}
	return &sendgridProvider{apiKey: creds.APIKey, baseURL: sendgridBaseURL}, nil
}

func (p *sendgridProvider) Send(ctx context.Context, fromEmail, toEmail, subject, htmlBody, textBody string) interfaces.SendResult {
	payload := map[string]interface{}{
		"personalizations": []map[string]interface{}{
			{"to": []map[string]string{{"email": toEmail}}},
		},
		"from":    map[string]string{"email": fromEmail},
		"subject": subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": textBody},
			{"type": "text/html", "value": htmlBody},
		},
	}

	resp, err := doJSON(ctx, http.MethodPost, p.baseURL+"/mail/send", p.authHeader(), payload, apiSendTimeout)
	if err != nil {
		return interfaces.SendResult{Success: false, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusAccepted {
		return interfaces.SendResult{Success: false, Error: resp.errorText()}
	}

	return interfaces.SendResult{Success: true, MessageID: resp.Headers.Get("X-Message-Id")}
}

func (p *sendgridProvider) Verify(ctx context.Context) interfaces.VerifyResult {
	resp, err := doJSON(ctx, http.MethodGet, p.baseURL+"/user/profile", p.authHeader(), nil, apiVerifyTimeout)
	if err != nil {
		return interfaces.VerifyResult{Success: false, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return interfaces.VerifyResult{Success: false, Error: resp.errorText()}
	}
	return interfaces.VerifyResult{Success: true}
}

func (p *sendgridProvider) RateLimit() int {
	return rateLimitSendGrid
}

func (p *sendgridProvider) authHeader() map[string]string {
	return map[string]string{"Authorization": fmt.Sprintf("Bearer %s", p.apiKey)}
}
