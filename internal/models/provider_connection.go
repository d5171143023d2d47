package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/internal/enum"
	"github.com/sendgrove/blastpipe/internal/utils"
)

// ProviderConnection is a user's configured delivery channel. Credentials are
// stored as an opaque encrypted blob; only the vault and the provider factory
// ever see the plaintext.
type ProviderConnection struct {
	ID       string            `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID   string            `gorm:"column:user_id;type:varchar(50);index:idx_user_provider;not null" json:"userId"`
	Type     enum.ProviderType `gorm:"column:provider_type;type:varchar(50);index:idx_user_provider;not null" json:"providerType"`

	SenderEmail string `gorm:"column:sender_email;type:varchar(255);not null" json:"senderEmail"`
	SenderName  string `gorm:"column:sender_name;type:varchar(255)" json:"senderName"`

	EncryptedCredentials string `gorm:"column:encrypted_credentials;type:text;not null" json:"-"`

	VerificationStatus enum.VerificationStatus `gorm:"column:verification_status;type:varchar(50);default:pending" json:"verificationStatus"`
	HealthStatus       enum.HealthStatus       `gorm:"column:health_status;type:varchar(50);default:unknown" json:"healthStatus"`
	LastVerifiedAt     *time.Time              `gorm:"column:last_verified_at;type:timestamp" json:"lastVerifiedAt"`

	// RateLimit is expressed as sends per minute.
	RateLimit int `gorm:"column:rate_limit;default:100" json:"rateLimit"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (ProviderConnection) TableName() string {
	return "provider_connections"
}

func (p *ProviderConnection) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = utils.GenerateNanoIdWithPrefix("prov", 16)
	}
	if p.VerificationStatus == "" {
		p.VerificationStatus = enum.VerificationPending
	}
	if p.HealthStatus == "" {
		p.HealthStatus = enum.HealthUnknown
	}
	p.CreatedAt = utils.Now()
	return nil
}

func (p *ProviderConnection) IsVerified() bool {
	return p.VerificationStatus == enum.VerificationVerified
}
