package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/internal/utils"
)

// SuppressionEntry marks an address that must never receive mail from the
// owning user. Unique per (user, email).
type SuppressionEntry struct {
	ID        string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(50);uniqueIndex:uq_user_suppression;not null" json:"userId"`
	Email     string    `gorm:"column:email;type:varchar(255);uniqueIndex:uq_user_suppression;not null" json:"email"`
	Reason    string    `gorm:"column:reason;type:varchar(100)" json:"reason"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (SuppressionEntry) TableName() string {
	return "suppression_list"
}

func (s *SuppressionEntry) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = utils.GenerateNanoIdWithPrefix("sup", 16)
	}
	s.CreatedAt = utils.Now()
	return nil
}
