package interfaces

import "context"

// Dispatcher admits campaigns into the background dispatch pipeline.
type Dispatcher interface {
	// Enqueue validates admission (ownership, sendable state, verified
	// provider, quota) and hands the campaign to a background worker. It
	// returns immediately; per-recipient outcomes are observable through the
	// campaign row and its logs.
	Enqueue(ctx context.Context, campaignID, userID string) error
	// Resubmit re-admits an already queued campaign (scheduled sends). It
	// skips quota reservation, which happened at the original admission.
	Resubmit(ctx context.Context, campaignID string) error
	Start(ctx context.Context)
	Stop()
}

// EventPublisher broadcasts campaign lifecycle events. Implementations are
// fire-and-forget; dispatch never depends on a broker.
type EventPublisher interface {
	PublishCampaignCompleted(ctx context.Context, campaignID string, sent, failed int)
	PublishCampaignFailed(ctx context.Context, campaignID string, reason string)
	Close() error
}
