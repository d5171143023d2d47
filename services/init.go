package services

import (
	"github.com/sendgrove/blastpipe/config"
	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/crypto"
	"github.com/sendgrove/blastpipe/internal/logger"
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/services/dispatch"
	"github.com/sendgrove/blastpipe/services/events"
	"github.com/sendgrove/blastpipe/services/filter"
	"github.com/sendgrove/blastpipe/services/quota"
)

type Services struct {
	Vault          *crypto.Vault
	EventPublisher interfaces.EventPublisher
	QuotaLedger    *quota.Ledger
	FilterService  *filter.Service
	Dispatcher     interfaces.Dispatcher
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	vault, err := crypto.NewVault(cfg.VaultConfig.MasterSecret)
	if err != nil {
		return nil, err
	}

	var publisher interfaces.EventPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		publisherConfig := &events.PublisherConfig{
			MessageTTL:          events.DefaultMessageTTL,
			MaxRetries:          events.DefaultMaxRetries,
			PublishTimeout:      events.DefaultPublishTimeout,
			ReconnectBackoff:    events.DefaultReconnectBackoff,
			MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
		}
		publisher, err = events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, publisherConfig)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn("RABBITMQ_URL not set, campaign lifecycle events are disabled")
		publisher = events.NewNoopPublisher()
	}

	ledger := quota.NewLedger(log, repos.UserRepository)

	services := Services{
		Vault:          vault,
		EventPublisher: publisher,
		QuotaLedger:    ledger,
		FilterService:  filter.NewFilterService(log, repos),
		Dispatcher:     dispatch.NewEngine(log, repos, vault, ledger, publisher, cfg.DispatchConfig.Workers, cfg.DispatchConfig.QueueSize),
	}

	return &services, nil
}
