package cron

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/internal/utils"
)

// sweepScheduledCampaigns submits every queued campaign whose scheduled_at
// has passed. Quota was reserved at the original admission, so the sweep only
// hands IDs to the dispatcher.
func (cm *CronManager) sweepScheduledCampaigns() {
	ctx := context.Background()
	span, ctx := opentracing.StartSpanFromContext(ctx, "CronManager.sweepScheduledCampaigns")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	due, err := cm.campaigns.ListScheduledDue(ctx, utils.Now())
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list due scheduled campaigns: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	span.LogKV("dueCampaigns", len(due))

	for _, campaign := range due {
		if err := cm.dispatcher.Resubmit(ctx, campaign.ID); err != nil {
			// a full queue is retried on the next sweep
			if errors.Is(err, blastpipe_errors.ErrQueueFull) {
				cm.log.Warnf("Dispatch queue full, campaign %s stays queued", campaign.ID)
				return
			}
			tracing.TraceErr(span, err)
			cm.log.Errorf("Failed to resubmit scheduled campaign %s: %v", campaign.ID, err)
			continue
		}
		cm.log.Infof("Promoted scheduled campaign %s into dispatch", campaign.ID)
	}
}
