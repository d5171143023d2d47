package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/internal/utils"
)

// RecipientList is a named collection of recipients owned by a user.
// RecipientCount is denormalized and maintained by the CRUD layer.
type RecipientList struct {
	ID             string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID         string    `gorm:"column:user_id;type:varchar(50);index;not null" json:"userId"`
	Name           string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	RecipientCount int       `gorm:"column:recipient_count;default:0" json:"recipientCount"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (RecipientList) TableName() string {
	return "recipient_lists"
}

func (l *RecipientList) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = utils.GenerateNanoIdWithPrefix("list", 16)
	}
	l.CreatedAt = utils.Now()
	return nil
}

// Recipient is a single address in a list plus the open-ended personalization
// fields captured at import time.
type Recipient struct {
	ID     string  `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	ListID string  `gorm:"column:list_id;type:varchar(50);index:idx_list_email;not null" json:"listId"`
	Email  string  `gorm:"column:email;type:varchar(255);index:idx_list_email;not null" json:"email"`
	Data   JSONMap `gorm:"column:data;type:jsonb" json:"data"`
	// Position preserves import order; dispatch sends in this order.
	Position int `gorm:"column:position;index;not null" json:"position"`
}

func (Recipient) TableName() string {
	return "recipients"
}

func (r *Recipient) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateNanoIdWithPrefix("rcpt", 24)
	}
	return nil
}

// Variables returns the personalization mapping for template rendering,
// always guaranteeing an email key.
func (r *Recipient) Variables() map[string]string {
	vars := make(map[string]string, len(r.Data)+1)
	for k, v := range r.Data {
		switch val := v.(type) {
		case string:
			vars[k] = val
		default:
			vars[k] = fmt.Sprintf("%v", val)
		}
	}
	vars["email"] = r.Email
	return vars
}
