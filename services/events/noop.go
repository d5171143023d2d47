package events

import (
	"context"

	"github.com/sendgrove/blastpipe/interfaces"
)

// NoopPublisher is used when no RabbitMQ URL is configured. Dispatch runs
// identically; lifecycle events simply go nowhere.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) PublishCampaignCompleted(ctx context.Context, campaignID string, sent, failed int) {
}

func (p *NoopPublisher) PublishCampaignFailed(ctx context.Context, campaignID string, reason string) {
}

func (p *NoopPublisher) Close() error {
	return nil
}

var _ interfaces.EventPublisher = (*NoopPublisher)(nil)
