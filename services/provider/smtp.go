package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"time"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/utils"
)

const (
	smtpSendTimeout   = 60 * time.Second
	smtpVerifyTimeout = 30 * time.Second
)

type smtpCredentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type smtpProvider struct {
	creds smtpCredentials
}

func newSMTPProvider(credentialsJSON string) (interfaces.EmailProvider, error) {
	var creds smtpCredentials
	if err := decodeCredentials(credentialsJSON, &creds); err != nil {
		return nil, err
	}
	if err := requireField("host", creds.Host); err != nil {
		return nil, err
	}
	if err := requireField("username", creds.Username); err != nil {
		return nil, err
	}
	if err := requireField("password", creds.Password); err != nil {
		return nil, err
	}
	if creds.Port == 0 {
		creds.Port = 587
	}
	return &smtpProvider{creds: creds}, nil
}

func (p *smtpProvider) Send(ctx context.Context, fromEmail, toEmail, subject, htmlBody, textBody string) interfaces.SendResult {
	messageID := utils.GenerateMessageID(utils.ExtractDomainFromEmail(fromEmail))
	message := buildMimeMessage(fromEmail, toEmail, subject, messageID, htmlBody, textBody)

	client, err := p.connect(smtpSendTimeout)
	if err != nil {
		return interfaces.SendResult{Success: false, Error: err.Error()}
	}
	defer client.Close()

	if err := client.Mail(fromEmail); err != nil {
		return interfaces.SendResult{Success: false, Error: fmt.Sprintf("SMTP MAIL command failed: %v", err)}
	}
	if err := client.Rcpt(toEmail); err != nil {
		return interfaces.SendResult{Success: false, Error: fmt.Sprintf("SMTP RCPT command failed: %v", err)}
	}

	dataWriter, err := client.Data()
	if err != nil {
		return interfaces.SendResult{Success: false, Error: fmt.Sprintf("SMTP DATA command failed: %v", err)}
	}
	if _, err := dataWriter.Write(message); err != nil {
		return interfaces.SendResult{Success: false, Error: fmt.Sprintf("failed to write message data: %v", err)}
	}
	if err := dataWriter.Close(); err != nil {
		return interfaces.SendResult{Success: false, Error: fmt.Sprintf("failed to close data writer: %v", err)}
	}

	if err := client.Quit(); err != nil {
		return interfaces.SendResult{Success: false, Error: fmt.Sprintf("SMTP QUIT failed: %v", err)}
	}

	return interfaces.SendResult{Success: true, MessageID: messageID}
}

func (p *smtpProvider) Verify(ctx context.Context) interfaces.VerifyResult {
	client, err := p.connect(smtpVerifyTimeout)
	if err != nil {
		return interfaces.VerifyResult{Success: false, Error: err.Error()}
	}
	defer client.Close()

	client.Quit()
	return interfaces.VerifyResult{Success: true}
}

func (p *smtpProvider) RateLimit() int {
	return rateLimitSMTP
}

// connect dials the server, upgrades to TLS and authenticates. The timeout
// bounds the whole conversation through the connection deadline.
func (p *smtpProvider) connect(timeout time.Duration) (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", p.creds.Host, p.creds.Port)

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	conn.SetDeadline(time.Now().Add(timeout))

	client, err := smtp.NewClient(conn, p.creds.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	tlsConfig := &tls.Config{ServerName: p.creds.Host}
	if err := client.StartTLS(tlsConfig); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", p.creds.Username, p.creds.Password, p.creds.Host)
	if err := client.Auth(auth); err != nil {
		client.Close()
		return nil, fmt.Errorf("SMTP authentication failed: %w", err)
	}

	return client, nil
}

// buildMimeMessage assembles a multipart/alternative message with an optional
// plain-text part followed by the HTML part.
func buildMimeMessage(fromEmail, toEmail, subject, messageID, htmlBody, textBody string) []byte {
	boundary := fmt.Sprintf("=_%s", utils.GenerateNanoId(24))

	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "From: %s\r\n", fromEmail)
	fmt.Fprintf(&buffer, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buffer, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buffer, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&buffer, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buffer.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buffer, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	buffer.WriteString("\r\n")

	if textBody != "" {
		writeMimePart(&buffer, boundary, "text/plain; charset=UTF-8", textBody)
	}
	writeMimePart(&buffer, boundary, "text/html; charset=UTF-8", htmlBody)
	fmt.Fprintf(&buffer, "--%s--\r\n", boundary)

	return buffer.Bytes()
}

func writeMimePart(buffer *bytes.Buffer, boundary, contentType, body string) {
	fmt.Fprintf(buffer, "--%s\r\n", boundary)
	fmt.Fprintf(buffer, "Content-Type: %s\r\n", contentType)
	buffer.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buffer.WriteString("\r\n")

	qp := quotedprintable.NewWriter(buffer)
	qp.Write([]byte(body))
	qp.Close()
	buffer.WriteString("\r\n")
}
