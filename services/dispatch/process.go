package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/enum"
	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/internal/utils"
	"github.com/sendgrove/blastpipe/services/template"
)

// processCampaign runs one campaign end to end on a worker goroutine.
// Recipient failures are recorded and never abort the loop; only setup
// failures (decrypt, provider construction, missing rows) fail the whole
// campaign.
func (e *Engine) processCampaign(ctx context.Context, campaignID string) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DispatchEngine.processCampaign")
	defer span.Finish()
	tracing.TagComponentDispatcher(span)
	tracing.TagCampaign(span, campaignID)

	campaign, err := e.repositories.CampaignRepository.GetByID(ctx, campaignID)
	if err != nil {
		tracing.TraceErr(span, err)
		e.log.Errorf("failed to load campaign %s: %v", campaignID, err)
		return
	}
	if campaign == nil {
		e.log.Warnf("campaign %s vanished before dispatch", campaignID)
		return
	}
	claimed, err := e.repositories.CampaignRepository.MarkSending(ctx, campaignID, utils.Now())
	if err != nil {
		tracing.TraceErr(span, err)
		e.log.Errorf("failed to claim campaign %s: %v", campaignID, err)
		return
	}
	if !claimed {
		e.log.Warnf("campaign %s is %s, expected queued, skipping", campaignID, campaign.Status)
		return
	}

	emailProvider, connection, err := e.buildProvider(ctx, campaign)
	if err != nil {
		tracing.TraceErr(span, err)
		e.failCampaign(ctx, campaign, err)
		return
	}

	recipients, err := e.repositories.RecipientRepository.ListByList(ctx, campaign.ListID)
	if err != nil {
		tracing.TraceErr(span, err)
		e.failCampaign(ctx, campaign, err)
		return
	}

	e.log.Infof("campaign %s sending to %d recipients via %s", campaignID, len(recipients), connection.Type)

	rateLimit := connection.RateLimit
	if rateLimit <= 0 {
		rateLimit = emailProvider.RateLimit()
	}
	pause := time.Minute / time.Duration(rateLimit)

	sent, failed := 0, 0
	for i, recipient := range recipients {
		result := e.sendToRecipient(ctx, emailProvider, campaign, connection, recipient)

		logRow := &models.CampaignLog{
			CampaignID:     campaign.ID,
			RecipientEmail: recipient.Email,
			SentAt:         utils.Now(),
		}
		if result.Success {
			logRow.Status = enum.DeliverySent
			sent++
		} else {
			logRow.Status = enum.DeliveryFailed
			logRow.ErrorMessage = result.Error
			failed++
		}
		if err := e.repositories.CampaignLogRepository.Create(ctx, logRow); err != nil {
			tracing.TraceErr(span, err)
			e.log.Errorf("failed to persist log row for campaign %s recipient %s: %v", campaign.ID, recipient.Email, err)
		}

		if i < len(recipients)-1 {
			e.sleep(ctx, pause)
		}
	}

	completedAt := utils.Now()
	if err := e.repositories.CampaignRepository.MarkCompleted(ctx, campaign.ID, sent, failed, completedAt); err != nil {
		tracing.TraceErr(span, err)
		e.log.Errorf("failed to mark campaign %s completed: %v", campaign.ID, err)
	}

	if err := e.ledger.Settle(ctx, campaign.UserID, campaign.TotalRecipients, sent); err != nil {
		tracing.TraceErr(span, err)
		e.log.Errorf("failed to settle quota for user %s: %v", campaign.UserID, err)
	}

	if e.events != nil {
		e.events.PublishCampaignCompleted(ctx, campaign.ID, sent, failed)
	}
	e.log.Infof("campaign %s completed: %d sent, %d failed", campaign.ID, sent, failed)
}

func (e *Engine) buildProvider(ctx context.Context, campaign *models.Campaign) (interfaces.EmailProvider, *models.ProviderConnection, error) {
	connection, err := e.repositories.ProviderConnectionRepository.GetByID(ctx, campaign.ProviderID)
	if err != nil {
		return nil, nil, err
	}
	if connection == nil {
		return nil, nil, blastpipe_errors.ErrProviderNotFound
	}

	credentialsJSON, err := e.vault.Decrypt(connection.EncryptedCredentials)
	if err != nil {
		return nil, nil, err
	}

	emailProvider, err := e.newProvider(connection, credentialsJSON)
	if err != nil {
		return nil, nil, err
	}
	return emailProvider, connection, nil
}

// sendToRecipient renders and sends one message. A panic from rendering or a
// provider implementation is converted into a failed result so the remaining
// recipients still get processed.
func (e *Engine) sendToRecipient(
	ctx context.Context,
	emailProvider interfaces.EmailProvider,
	campaign *models.Campaign,
	connection *models.ProviderConnection,
	recipient *models.Recipient,
) (result interfaces.SendResult) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("panic sending campaign %s to %s: %v", campaign.ID, recipient.Email, r)
			result = interfaces.SendResult{Success: false, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	variables := recipient.Variables()
	subject := template.Render(campaign.Subject, variables)
	htmlBody := template.Render(campaign.HTMLBody, variables)

	textBody := ""
	if campaign.TextBody != "" {
		textBody = template.Render(campaign.TextBody, variables)
	} else if htmlBody != "" {
		textBody = template.HTMLToText(htmlBody)
	}

	return emailProvider.Send(ctx, connection.SenderEmail, recipient.Email, subject, htmlBody, textBody)
}

// failCampaign marks the campaign failed before any recipient was processed
// and releases the whole quota reservation.
func (e *Engine) failCampaign(ctx context.Context, campaign *models.Campaign, cause error) {
	e.log.Errorf("campaign %s dispatch failed: %v", campaign.ID, cause)

	if err := e.repositories.CampaignRepository.MarkFailed(ctx, campaign.ID); err != nil {
		e.log.Errorf("failed to mark campaign %s failed: %v", campaign.ID, err)
	}
	if err := e.ledger.Settle(ctx, campaign.UserID, campaign.TotalRecipients, 0); err != nil {
		e.log.Errorf("failed to settle quota for user %s: %v", campaign.UserID, err)
	}
	if e.events != nil {
		e.events.PublishCampaignFailed(ctx, campaign.ID, cause.Error())
	}
}
