package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/enum"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

type campaignLogRepository struct {
	db *gorm.DB
}

func NewCampaignLogRepository(db *gorm.DB) interfaces.CampaignLogRepository {
	return &campaignLogRepository{db: db}
}

func (r *campaignLogRepository) Create(ctx context.Context, log *models.CampaignLog) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignLogRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCampaign(span, log.CampaignID)

	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *campaignLogRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*models.CampaignLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignLogRepository.ListByCampaign")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCampaign(span, campaignID)

	var logs []*models.CampaignLog
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("sent_at ASC").
		Find(&logs).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return logs, nil
}

func (r *campaignLogRepository) CountByStatus(ctx context.Context, campaignID string, status enum.DeliveryStatus) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "campaignLogRepository.CountByStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCampaign(span, campaignID)

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CampaignLog{}).
		Where("campaign_id = ? AND status = ?", campaignID, status).
		Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	return count, nil
}
