package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/internal/enum"
	"github.com/sendgrove/blastpipe/internal/utils"
)

// Campaign represents a single send job: one template instantiated against
// one recipient list through one provider connection.
type Campaign struct {
	ID         string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID     string `gorm:"column:user_id;type:varchar(50);index;not null" json:"userId"`
	ProviderID string `gorm:"column:provider_id;type:varchar(50);not null" json:"providerId"`
	ListID     string `gorm:"column:list_id;type:varchar(50);not null" json:"listId"`
	TemplateID string `gorm:"column:template_id;type:varchar(50)" json:"templateId"`

	Name     string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Subject  string `gorm:"column:subject;type:varchar(500);not null" json:"subject"`
	HTMLBody string `gorm:"column:html_body;type:text" json:"htmlBody"`
	TextBody string `gorm:"column:text_body;type:text" json:"textBody"`

	Status          enum.CampaignStatus `gorm:"column:status;type:varchar(50);index;default:draft" json:"status"`
	TotalRecipients int                 `gorm:"column:total_recipients;default:0" json:"totalRecipients"`
	SentCount       int                 `gorm:"column:sent_count;default:0" json:"sentCount"`
	FailedCount     int                 `gorm:"column:failed_count;default:0" json:"failedCount"`

	ScheduledAt *time.Time `gorm:"column:scheduled_at;type:timestamp" json:"scheduledAt"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	StartedAt   *time.Time `gorm:"column:started_at;type:timestamp" json:"startedAt"`
	CompletedAt *time.Time `gorm:"column:completed_at;type:timestamp" json:"completedAt"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateNanoIdWithPrefix("cmp", 16)
	}
	if c.Status == "" {
		c.Status = enum.CampaignStatusDraft
	}
	c.CreatedAt = utils.Now()
	return nil
}

// CampaignLog is one row per attempted recipient per campaign. Rows are
// append-only and never mutated after creation.
type CampaignLog struct {
	ID             string              `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CampaignID     string              `gorm:"column:campaign_id;type:varchar(50);index:idx_campaign_status;not null" json:"campaignId"`
	RecipientEmail string              `gorm:"column:recipient_email;type:varchar(255);not null" json:"recipientEmail"`
	Status         enum.DeliveryStatus `gorm:"column:status;type:varchar(50);index:idx_campaign_status;not null" json:"status"`
	ErrorMessage   string              `gorm:"column:error_message;type:text" json:"errorMessage"`
	SentAt         time.Time           `gorm:"column:sent_at;type:timestamp;default:current_timestamp" json:"sentAt"`
}

func (CampaignLog) TableName() string {
	return "campaign_logs"
}

func (l *CampaignLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = utils.GenerateNanoIdWithPrefix("clog", 24)
	}
	if l.SentAt.IsZero() {
		l.SentAt = utils.Now()
	}
	return nil
}
