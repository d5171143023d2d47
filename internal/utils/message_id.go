package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateMessageID builds an RFC 5322 Message-ID for outbound SMTP mail.
func GenerateMessageID(domain string) string {
	localPart := fmt.Sprintf("%d.%s", time.Now().UnixMicro(), uuid.New().String())
	return fmt.Sprintf("<%s@%s>", localPart, domain)
}

// ExtractDomainFromEmail returns the part after the last @, lowercased.
func ExtractDomainFromEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
