package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sendgrove/blastpipe/interfaces"
)

const mailgunAPIHost = "https://api.mailgun.net/v3"

type mailgunCredentials struct {
	APIKey string `json:"api_key"`
	Domain string `json:"domain"`
}

type mailgunProvider struct {
	apiKey  string
	domain  string
	baseURL string
}

func newMailgunProvider(credentialsJSON string) (interfaces.EmailProvider, error) {
	var creds mailgunCredentials
	if err := decodeCredentials(credentialsJSON, &creds); err != nil {
		return nil, err
	}
	if err := requireField("api_key", creds.APIKey); err != nil {
		return nil, err
	}
	if err := requireField("domain", creds.Domain); err != nil {
		return nil, err
	}
	return &mailgunProvider{
		apiKey:  creds.APIKey,
		domain:  creds.Domain,
		baseURL: fmt.Sprintf("%s/%s", mailgunAPIHost, creds.Domain),
	}, nil
}

func (p *mailgunProvider) Send(ctx context.Context, fromEmail, toEmail, subject, htmlBody, textBody string) interfaces.SendResult {
	form := url.Values{
		"from":    {fromEmail},
		"to":      {toEmail},
		"subject": {subject},
		"text":    {textBody},
		"html":    {htmlBody},
	}

	resp, err := doForm(ctx, http.MethodPost, p.baseURL+"/messages", "api", p.apiKey, form, apiSendTimeout)
	if err != nil {
		return interfaces.SendResult{Success: false, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return interfaces.SendResult{Success: false, Error: resp.errorText()}
	}

	return interfaces.SendResult{Success: true, MessageID: resp.jsonField("id")}
}

func (p *mailgunProvider) Verify(ctx context.Context) interfaces.VerifyResult {
	endpoint := fmt.Sprintf("%s/domains/%s", mailgunAPIHost, p.domain)
	resp, err := doForm(ctx, http.MethodGet, endpoint, "api", p.apiKey, nil, apiVerifyTimeout)
	if err != nil {
		return interfaces.VerifyResult{Success: false, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return interfaces.VerifyResult{Success: false, Error: resp.errorText()}
	}
	return interfaces.VerifyResult{Success: true}
}

func (p *mailgunProvider) RateLimit() int {
	return rateLimitMailgun
}
