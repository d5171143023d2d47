package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/internal/utils"
)

// EmailTemplate is a reusable campaign body. Variables holds the placeholder
// names extracted from the bodies at save time.
type EmailTemplate struct {
	ID        string         `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID    string         `gorm:"column:user_id;type:varchar(50);index;not null" json:"userId"`
	Name      string         `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Subject   string         `gorm:"column:subject;type:varchar(500)" json:"subject"`
	HTMLBody  string         `gorm:"column:html_body;type:text" json:"htmlBody"`
	TextBody  string         `gorm:"column:text_body;type:text" json:"textBody"`
	Variables pq.StringArray `gorm:"column:variables;type:text[]" json:"variables"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (EmailTemplate) TableName() string {
	return "email_templates"
}

func (t *EmailTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = utils.GenerateNanoIdWithPrefix("tmpl", 16)
	}
	t.CreatedAt = utils.Now()
	return nil
}
