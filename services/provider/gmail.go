package provider

import (
	"context"
	"encoding/base64"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/utils"
)

const (
	gmailAPIBaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"
	gmailTokenURL   = "https://oauth2.googleapis.com/token"
)

type gmailCredentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type gmailProvider struct {
	tokenSource oauth2.TokenSource
	baseURL     string
}

func newGmailProvider(credentialsJSON string) (interfaces.EmailProvider, error) {
	var creds gmailCredentials
	if err := decodeCredentials(credentialsJSON, &creds); err != nil {
		return nil, err
	}
	if err := requireField("refresh_token", creds.RefreshToken); err != nil {
		return nil, err
	}
	if err := requireField("client_id", creds.ClientID); err != nil {
		return nil, err
	}
	if err := requireField("client_secret", creds.ClientSecret); err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: gmailTokenURL},
	}
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}

	return &gmailProvider{
		tokenSource: conf.TokenSource(context.Background(), token),
		baseURL:     gmailAPIBaseURL,
	}, nil
}

func (p *gmailProvider) Send(ctx context.Context, fromEmail, toEmail, subject, htmlBody, textBody string) interfaces.SendResult {
	headers, err := p.authHeader()
	if err != nil {
		return interfaces.SendResult{Success: false, Error: err.Error()}
	}

	messageID := utils.GenerateMessageID(utils.ExtractDomainFromEmail(fromEmail))
	mime := buildMimeMessage(fromEmail, toEmail, subject, messageID, htmlBody, textBody)
	payload := map[string]string{
		"raw": base64.URLEncoding.EncodeToString(mime),
	}

	resp, err := doJSON(ctx, http.MethodPost, p.baseURL+"/messages/send", headers, payload, apiSendTimeout)
	if err != nil {
		return interfaces.SendResult{Success: false, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return interfaces.SendResult{Success: false, Error: resp.errorText()}
	}

	if id := resp.jsonField("id"); id != "" {
		messageID = id
	}
	return interfaces.SendResult{Success: true, MessageID: messageID}
}

func (p *gmailProvider) Verify(ctx context.Context) interfaces.VerifyResult {
	headers, err := p.authHeader()
	if err != nil {
		return interfaces.VerifyResult{Success: false, Error: err.Error()}
	}

	resp, err := doJSON(ctx, http.MethodGet, p.baseURL+"/profile", headers, nil, apiVerifyTimeout)
	if err != nil {
		return interfaces.VerifyResult{Success: false, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return interfaces.VerifyResult{Success: false, Error: resp.errorText()}
	}
	return interfaces.VerifyResult{Success: true}
}

func (p *gmailProvider) RateLimit() int {
	return rateLimitGmail
}

// authHeader refreshes the access token if expired and returns the bearer
// header for the next API call.
func (p *gmailProvider) authHeader() (map[string]string, error) {
	token, err := p.tokenSource.Token()
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": "Bearer " + token.AccessToken}, nil
}
