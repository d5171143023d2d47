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

type providerConnectionRepository struct {
	db *gorm.DB
}

func NewProviderConnectionRepository(db *gorm.DB) interfaces.ProviderConnectionRepository {
	return &providerConnectionRepository{db: db}
}

func (r *providerConnectionRepository) GetByID(ctx context.Context, id string) (*models.ProviderConnection, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "providerConnectionRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var connection models.ProviderConnection
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&connection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &connection, nil
}

func (r *providerConnectionRepository) GetForUser(ctx context.Context, id, userID string) (*models.ProviderConnection, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "providerConnectionRepository.GetForUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var connection models.ProviderConnection
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&connection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &connection, nil
}

func (r *providerConnectionRepository) Create(ctx context.Context, connection *models.ProviderConnection) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "providerConnectionRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Create(connection).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *providerConnectionRepository) UpdateVerification(ctx context.Context, id string, status enum.VerificationStatus, health enum.HealthStatus, verifiedAt *time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "providerConnectionRepository.UpdateVerification")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	updates := map[string]interface{}{
		"verification_status": status,
		"health_status":       health,
	}
	if verifiedAt != nil {
		updates["last_verified_at"] = *verifiedAt
	}

	if err := r.db.WithContext(ctx).
		Model(&models.ProviderConnection{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
