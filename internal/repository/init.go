package repository

import (
	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/models"
)

type Repositories struct {
	CampaignRepository           interfaces.CampaignRepository
	CampaignLogRepository        interfaces.CampaignLogRepository
	RecipientRepository          interfaces.RecipientRepository
	ProviderConnectionRepository interfaces.ProviderConnectionRepository
	SuppressionRepository        interfaces.SuppressionRepository
	UserRepository               interfaces.UserRepository
	TemplateRepository           interfaces.TemplateRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		CampaignRepository:           NewCampaignRepository(db),
		CampaignLogRepository:        NewCampaignLogRepository(db),
		RecipientRepository:          NewRecipientRepository(db),
		ProviderConnectionRepository: NewProviderConnectionRepository(db),
		SuppressionRepository:        NewSuppressionRepository(db),
		UserRepository:               NewUserRepository(db),
		TemplateRepository:           NewTemplateRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ProviderConnection{},
		&models.RecipientList{},
		&models.Recipient{},
		&models.SuppressionEntry{},
		&models.EmailTemplate{},
		&models.Campaign{},
		&models.CampaignLog{},
	)
}
