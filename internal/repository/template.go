package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/internal/utils"
)

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) interfaces.TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) GetForUser(ctx context.Context, id, userID string) (*models.EmailTemplate, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "templateRepository.GetForUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var template models.EmailTemplate
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) Save(ctx context.Context, template *models.EmailTemplate) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "templateRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	template.UpdatedAt = utils.Now()
	if err := r.db.WithContext(ctx).Save(template).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
