package interfaces

import (
	"context"
	"time"

	"github.com/sendgrove/blastpipe/internal/enum"
	"github.com/sendgrove/blastpipe/internal/models"
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	GetForUser(ctx context.Context, id, userID string) (*models.Campaign, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Campaign, error)
	// ListScheduledDue returns queued campaigns whose scheduled_at has passed.
	ListScheduledDue(ctx context.Context, now time.Time) ([]*models.Campaign, error)
	UpdateStatus(ctx context.Context, id string, status enum.CampaignStatus) error
	MarkQueued(ctx context.Context, id string, totalRecipients int) error
	// MarkSending claims the transition from queued to sending. It returns
	// false when the campaign was not queued, so a campaign submitted twice
	// is only ever processed by one worker.
	MarkSending(ctx context.Context, id string, startedAt time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id string, sent, failed int, completedAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
}

type CampaignLogRepository interface {
	Create(ctx context.Context, log *models.CampaignLog) error
	ListByCampaign(ctx context.Context, campaignID string) ([]*models.CampaignLog, error)
	CountByStatus(ctx context.Context, campaignID string, status enum.DeliveryStatus) (int64, error)
}

type RecipientRepository interface {
	GetListForUser(ctx context.Context, id, userID string) (*models.RecipientList, error)
	CreateList(ctx context.Context, list *models.RecipientList, recipients []*models.Recipient) error
	// ListByList returns the recipients of a list in insertion order.
	ListByList(ctx context.Context, listID string) ([]*models.Recipient, error)
}

type ProviderConnectionRepository interface {
	GetByID(ctx context.Context, id string) (*models.ProviderConnection, error)
	GetForUser(ctx context.Context, id, userID string) (*models.ProviderConnection, error)
	Create(ctx context.Context, connection *models.ProviderConnection) error
	UpdateVerification(ctx context.Context, id string, status enum.VerificationStatus, health enum.HealthStatus, verifiedAt *time.Time) error
}

type SuppressionRepository interface {
	Add(ctx context.Context, entry *models.SuppressionEntry) error
	// EmailsForUser returns the user's suppressed addresses, lowercased.
	EmailsForUser(ctx context.Context, userID string) ([]string, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateQuota(ctx context.Context, id string, dailySendCount int, lastSendDate time.Time) error
}

type TemplateRepository interface {
	GetForUser(ctx context.Context, id, userID string) (*models.EmailTemplate, error)
	Save(ctx context.Context, template *models.EmailTemplate) error
}
