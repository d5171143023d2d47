package provider

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"

	"github.com/sendgrove/blastpipe/interfaces"
)

const sesDefaultRegion = "us-east-1"

type sesCredentials struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
}

type sesProvider struct {
	client *ses.SES
}

func newSESProvider(credentialsJSON string) (interfaces.EmailProvider, error) {
	var creds sesCredentials
	if err := decodeCredentials(credentialsJSON, &creds); err != nil {
		return nil, err
	}
	if err := requireField("access_key", creds.AccessKey); err != nil {
		return nil, err
	}
	if err := requireField("secret_key", creds.SecretKey); err != nil {
		return nil, err
	}
	if creds.Region == "" {
		creds.Region = sesDefaultRegion
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(creds.Region),
		Credentials: credentials.NewStaticCredentials(creds.AccessKey, creds.SecretKey, ""),
	})
	if err != nil {
		return nil, err
	}

	return &sesProvider{client: ses.New(sess)}, nil
}

func (p *sesProvider) Send(ctx context.Context, fromEmail, toEmail, subject, htmlBody, textBody string) interfaces.SendResult {
	ctx, cancel := context.WithTimeout(ctx, apiSendTimeout)
	defer cancel()

	input := &ses.SendEmailInput{
		Source: aws.String(fromEmail),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(toEmail)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &ses.Body{
				Html: &ses.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
				Text: &ses.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
			},
		},
	}

	output, err := p.client.SendEmailWithContext(ctx, input)
	if err != nil {
		return interfaces.SendResult{Success: false, Error: err.Error()}
	}

	return interfaces.SendResult{Success: true, MessageID: aws.StringValue(output.MessageId)}
}

func (p *sesProvider) Verify(ctx context.Context) interfaces.VerifyResult {
	ctx, cancel := context.WithTimeout(ctx, apiVerifyTimeout)
	defer cancel()

	if _, err := p.client.GetSendQuotaWithContext(ctx, &ses.GetSendQuotaInput{}); err != nil {
		return interfaces.VerifyResult{Success: false, Error: err.Error()}
	}
	return interfaces.VerifyResult{Success: true}
}

func (p *sesProvider) RateLimit() int {
	return rateLimitSES
}
