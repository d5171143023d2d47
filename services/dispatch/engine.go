// Package dispatch drives campaign sending. Admission happens synchronously
// in Enqueue; the actual per-recipient work runs on a bounded worker pool
// consuming a buffered channel of campaign IDs. Recipients of one campaign
// are always processed sequentially so the provider's rate limit can be
// enforced with plain sleep pacing.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/crypto"
	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
	"github.com/sendgrove/blastpipe/internal/logger"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/internal/utils"
	"github.com/sendgrove/blastpipe/services/provider"
	"github.com/sendgrove/blastpipe/services/quota"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

type Engine struct {
	log          logger.Logger
	repositories *repository.Repositories
	vault        *crypto.Vault
	ledger       *quota.Ledger
	events       interfaces.EventPublisher

	newProvider func(connection *models.ProviderConnection, credentialsJSON string) (interfaces.EmailProvider, error)
	// sleep is swappable in tests so pacing does not slow them down
	sleep func(ctx context.Context, d time.Duration)

	queue   chan string
	workers int
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
}

func NewEngine(
	log logger.Logger,
	repositories *repository.Repositories,
	vault *crypto.Vault,
	ledger *quota.Ledger,
	events interfaces.EventPublisher,
	workers int,
	queueSize int,
) *Engine {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Engine{
		log:          log,
		repositories: repositories,
		vault:        vault,
		ledger:       ledger,
		events:       events,
		newProvider: func(connection *models.ProviderConnection, credentialsJSON string) (interfaces.EmailProvider, error) {
			return provider.New(connection.Type, credentialsJSON)
		},
		sleep:   sleepWithContext,
		queue:   make(chan string, queueSize),
		workers: workers,
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Start launches the worker pool. Workers exit when Stop closes the queue.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx)
	}
	e.log.Infof("dispatch engine started with %d workers", e.workers)
}

// Stop closes the queue and waits for in-flight campaigns to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
	e.log.Info("dispatch engine stopped")
}

func (e *Engine) worker(ctx context.Context) {
	defer e.wg.Done()
	for campaignID := range e.queue {
		e.processCampaign(ctx, campaignID)
	}
}

// Enqueue admits a campaign into the dispatch pipeline. All admission checks
// run synchronously: ownership, sendable state, verified provider, non-empty
// list, quota reservation. On success the campaign is queued and, unless it
// is scheduled for later, handed to a worker.
func (e *Engine) Enqueue(ctx context.Context, campaignID, userID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DispatchEngine.Enqueue")
	defer span.Finish()
	tracing.TagComponentDispatcher(span)
	tracing.TagCampaign(span, campaignID)
	tracing.TagUser(span, userID)

	campaign, err := e.repositories.CampaignRepository.GetForUser(ctx, campaignID, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if campaign == nil {
		return blastpipe_errors.ErrCampaignNotFound
	}
	if !campaign.Status.IsSendable() {
		return errors.Wrapf(blastpipe_errors.ErrCampaignNotSendable, "status %s", campaign.Status)
	}

	connection, err := e.repositories.ProviderConnectionRepository.GetForUser(ctx, campaign.ProviderID, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if connection == nil {
		return blastpipe_errors.ErrProviderNotFound
	}
	if !connection.IsVerified() {
		return blastpipe_errors.ErrProviderNotVerified
	}

	list, err := e.repositories.RecipientRepository.GetListForUser(ctx, campaign.ListID, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if list == nil || list.RecipientCount == 0 {
		return blastpipe_errors.ErrListEmpty
	}

	if err := e.ledger.Reserve(ctx, userID, list.RecipientCount); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	if err := e.repositories.CampaignRepository.MarkQueued(ctx, campaignID, list.RecipientCount); err != nil {
		tracing.TraceErr(span, err)
		if settleErr := e.ledger.Settle(ctx, userID, list.RecipientCount, 0); settleErr != nil {
			e.log.Errorf("failed to settle quota for user %s: %v", userID, settleErr)
		}
		return err
	}

	// scheduled campaigns stay queued until the scheduler promotes them
	if campaign.ScheduledAt != nil && campaign.ScheduledAt.After(utils.Now()) {
		e.log.Infof("campaign %s queued for %s", campaignID, campaign.ScheduledAt)
		return nil
	}

	if err := e.submit(campaignID); err != nil {
		tracing.TraceErr(span, err)
		if settleErr := e.ledger.Settle(ctx, userID, list.RecipientCount, 0); settleErr != nil {
			e.log.Errorf("failed to settle quota for user %s: %v", userID, settleErr)
		}
		if rollbackErr := e.repositories.CampaignRepository.UpdateStatus(ctx, campaignID, campaign.Status); rollbackErr != nil {
			e.log.Errorf("failed to roll campaign %s back to %s: %v", campaignID, campaign.Status, rollbackErr)
		}
		return err
	}
	return nil
}

// Resubmit hands an already queued campaign to a worker. Used by the
// scheduler for campaigns whose scheduled_at has passed; quota was reserved
// at the original admission.
func (e *Engine) Resubmit(ctx context.Context, campaignID string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DispatchEngine.Resubmit")
	defer span.Finish()
	tracing.TagComponentDispatcher(span)
	tracing.TagCampaign(span, campaignID)

	if err := e.submit(campaignID); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (e *Engine) submit(campaignID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return blastpipe_errors.ErrDispatcherStopped
	}
	select {
	case e.queue <- campaignID:
		return nil
	default:
		return blastpipe_errors.ErrQueueFull
	}
}
