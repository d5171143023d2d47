package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

type recipientRepository struct {
	db *gorm.DB
}

func NewRecipientRepository(db *gorm.DB) interfaces.RecipientRepository {
	return &recipientRepository{db: db}
}

func (r *recipientRepository) GetListForUser(ctx context.Context, id, userID string) (*models.RecipientList, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "recipientRepository.GetListForUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var list models.RecipientList
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&list).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &list, nil
}

func (r *recipientRepository) CreateList(ctx context.Context, list *models.RecipientList, recipients []*models.Recipient) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "recipientRepository.CreateList")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list.RecipientCount = len(recipients)
		if err := tx.Create(list).Error; err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		for i, recipient := range recipients {
			recipient.ListID = list.ID
			recipient.Position = i
		}
		if len(recipients) > 0 {
			if err := tx.CreateInBatches(recipients, 500).Error; err != nil {
				tracing.TraceErr(span, err)
				return err
			}
		}
		return nil
	})
}

func (r *recipientRepository) ListByList(ctx context.Context, listID string) ([]*models.Recipient, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "recipientRepository.ListByList")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, listID)

	var recipients []*models.Recipient
	if err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("position ASC").
		Find(&recipients).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return recipients, nil
}
