package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/enum"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

type campaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) interfaces.CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Create(campaign).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCampaign(span, id)

	var campaign models.Campaign
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &campaign, nil
}

func (r *campaignRepository) GetForUser(ctx context.Context, id, userID string) (*models.Campaign, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignRepository.GetForUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCampaign(span, id)

	var campaign models.Campaign
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &campaign, nil
}

func (r *campaignRepository) ListByUser(ctx context.Context, userID string) ([]*models.Campaign, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignRepository.ListByUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var campaigns []*models.Campaign
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return campaigns, nil
}

func (r *campaignRepository) ListScheduledDue(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignRepository.ListScheduledDue")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var campaigns []*models.Campaign
	if err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", enum.CampaignStatusQueued, now).
		Order("scheduled_at ASC").
		Find(&campaigns).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return campaigns, nil
}

func (r *campaignRepository) UpdateStatus(ctx context.Context, id string, status enum.CampaignStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignRepository.UpdateStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCampaign(span, id)

	if err := r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *campaignRepository) MarkQueued(ctx context.Context, id string, totalRecipients int) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignRepository.MarkQueued")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCampaign(span, id)

	if err := r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           enum.CampaignStatusQueued,
			"total_recipients": totalRecipients,
		}).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *campaignRepository) MarkSending(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignRepository.MarkSending")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCampaign(span, id)

	// conditional update so concurrent workers cannot both claim the campaign
	result := r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, enum.CampaignStatusQueued).
		Updates(map[string]interface{}{
			"status":     enum.CampaignStatusSending,
			"started_at": startedAt,
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *campaignRepository) MarkCompleted(ctx context.Context, id string, sent, failed int, completedAt time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignRepository.MarkCompleted")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCampaign(span, id)

	if err := r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       enum.CampaignStatusCompleted,
			"sent_count":   sent,
			"failed_count": failed,
			"completed_at": completedAt,
		}).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *campaignRepository) MarkFailed(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignRepository.MarkFailed")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCampaign(span, id)

	if err := r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", id).
		Update("status", enum.CampaignStatusFailed).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
