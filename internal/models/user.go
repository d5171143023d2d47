package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/internal/utils"
)

// User carries the per-user quota state. DailySendCount resets the first time
// a send is admitted on a new calendar day relative to LastSendDate.
type User struct {
	ID    string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Email string `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	Name  string `gorm:"column:name;type:varchar(255)" json:"name"`

	SendLimit      int        `gorm:"column:send_limit;default:100" json:"sendLimit"`
	DailySendCount int        `gorm:"column:daily_send_count;default:0" json:"dailySendCount"`
	LastSendDate   *time.Time `gorm:"column:last_send_date;type:date" json:"lastSendDate"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = utils.GenerateNanoIdWithPrefix("user", 16)
	}
	u.CreatedAt = utils.Now()
	return nil
}
